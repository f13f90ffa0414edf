package llm

import (
	"context"
	"time"

	"zelda-ai/internal/emulator"
)

// ActionStep is one timed button press requested by the model. Durations are
// frame counts at 60fps; the controller clamps them before execution.
type ActionStep struct {
	Button   emulator.Button `json:"button"`
	Duration int             `json:"duration"`
	Delay    int             `json:"delay"`
}

// Decision is a validated per-cycle action plan from the model.
type Decision struct {
	Sequence   []ActionStep `json:"sequence"`
	Reasoning  string       `json:"reasoning"`
	Confidence float64      `json:"confidence"`
	Goals      []string     `json:"goals"`
	ScreenText string       `json:"screen_text"`
}

// Plan is a longer-lived strategic goal, refreshed every few decision cycles.
type Plan struct {
	Goal      string    `json:"goal"`
	Steps     []string  `json:"steps"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
}

// DecisionProvider turns a rendered frame plus a state snapshot into a
// Decision. historyContext is an optional JSON-serializable payload giving the
// model continuity across calls; nil disables it.
type DecisionProvider interface {
	GetGameDecision(ctx context.Context, framePNG []byte, state emulator.GameState, historyContext any) (*Decision, error)
}

// PlanProvider is asked, on a coarser cadence, for a strategic Plan. Plan
// requests carry no image, so text-only backends qualify.
type PlanProvider interface {
	GetPlan(ctx context.Context, state emulator.GameState, recentStory string, currentGoal string) (*Plan, error)
}
