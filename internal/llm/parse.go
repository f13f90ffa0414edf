package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"zelda-ai/internal/emulator"
)

// rawDecision tolerates float durations, which some models emit.
type rawDecision struct {
	Sequence   []rawAction `json:"sequence"`
	Reasoning  *string     `json:"reasoning"`
	Confidence *float64    `json:"confidence"`
	Goals      []string    `json:"goals"`
	ScreenText string      `json:"screen_text"`
}

type rawAction struct {
	Button   string   `json:"button"`
	Duration *float64 `json:"duration"`
	Delay    *float64 `json:"delay"`
}

// ParseDecision validates a raw model response against the Decision contract.
// Anything malformed is rejected wholesale; a decision is never partially
// applied.
func ParseDecision(text string) (*Decision, error) {
	cleaned := stripCodeFence(text)

	var raw rawDecision
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("decision is not valid JSON: %w", err)
	}
	if raw.Reasoning == nil {
		return nil, fmt.Errorf("decision missing required field: reasoning")
	}
	if raw.Confidence == nil {
		return nil, fmt.Errorf("decision missing required field: confidence")
	}
	if len(raw.Sequence) == 0 {
		return nil, fmt.Errorf("decision sequence must be a non-empty array")
	}

	d := &Decision{
		Reasoning:  *raw.Reasoning,
		Confidence: *raw.Confidence,
		Goals:      raw.Goals,
		ScreenText: strings.TrimSpace(raw.ScreenText),
	}
	for i, a := range raw.Sequence {
		btn := emulator.Button(a.Button)
		if !btn.Valid() {
			return nil, fmt.Errorf("action %d: invalid button %q", i, a.Button)
		}
		if a.Duration == nil || *a.Duration <= 0 {
			return nil, fmt.Errorf("action %d: duration must be positive", i)
		}
		step := ActionStep{Button: btn, Duration: int(*a.Duration)}
		if a.Delay != nil {
			if *a.Delay < 0 {
				return nil, fmt.Errorf("action %d: delay must be non-negative", i)
			}
			step.Delay = int(*a.Delay)
		}
		d.Sequence = append(d.Sequence, step)
	}
	return d, nil
}

// ParsePlan validates a raw model response against the Plan contract.
func ParsePlan(text string) (*Plan, error) {
	cleaned := stripCodeFence(text)

	var raw struct {
		Goal      string   `json:"goal"`
		Steps     []string `json:"steps"`
		Reasoning string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if strings.TrimSpace(raw.Goal) == "" {
		return nil, fmt.Errorf("plan missing required field: goal")
	}
	return &Plan{
		Goal:      raw.Goal,
		Steps:     raw.Steps,
		Reasoning: raw.Reasoning,
		CreatedAt: time.Now(),
	}, nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
