package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"zelda-ai/internal/emulator"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// NewAzure targets an Azure OpenAI deployment; the deployment name doubles as
// the model identifier.
func NewAzure(apiKey, endpoint, deployment string) *OpenAIClient {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  deployment,
	}
}

func (c *OpenAIClient) GetGameDecision(ctx context.Context, framePNG []byte, state emulator.GameState, historyContext any) (*Decision, error) {
	if len(framePNG) == 0 {
		return nil, fmt.Errorf("empty frame image")
	}
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(framePNG)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: decisionPrompt(state, historyContext),
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}
	return ParseDecision(resp.Choices[0].Message.Content)
}

func (c *OpenAIClient) GetPlan(ctx context.Context, state emulator.GameState, recentStory, currentGoal string) (*Plan, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: planPrompt(state, recentStory, currentGoal),
			},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty plan response")
	}
	return ParsePlan(resp.Choices[0].Message.Content)
}
