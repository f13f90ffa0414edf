package llm

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"

	"zelda-ai/internal/emulator"
)

// YandexClient is a text-only backend. It cannot see frames, so it only
// serves as a PlanProvider.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) GetPlan(ctx context.Context, state emulator.GameState, recentStory, currentGoal string) (*Plan, error) {
	messages := []yagpt.Message{
		{Role: "user", Content: planPrompt(state, recentStory, currentGoal)},
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, messages)
	if err != nil {
		return nil, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return nil, fmt.Errorf("yagpt returned empty response")
	}
	return ParsePlan(resp.Alternatives[0].Message.Content)
}
