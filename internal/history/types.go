package history

import (
	"time"

	"zelda-ai/internal/emulator"
	"zelda-ai/internal/llm"
)

// DecisionRecord archives one completed decision cycle. IDs are monotonically
// increasing for the lifetime of the store, surviving ring eviction.
type DecisionRecord struct {
	ID           int                `json:"decision_id"`
	Timestamp    time.Time          `json:"timestamp"`
	Sequence     []llm.ActionStep   `json:"sequence"`
	Reasoning    string             `json:"reasoning"`
	Confidence   float64            `json:"confidence"`
	Goals        []string           `json:"goals,omitempty"`
	Success      bool               `json:"success"`
	GameState    emulator.GameState `json:"game_state"`
	TextDetected string             `json:"text_detected,omitempty"`
	InTextBox    bool               `json:"in_text_box"`
}

// StoryEvent is one narrative event ("dialogue", "npc_repeat",
// "location_change", "stuck", ...). The log is append-only and queried
// through a recent-N view.
type StoryEvent struct {
	ID        int            `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Context   map[string]any `json:"context,omitempty"`
}

// NPCInteraction tracks repeated dialogue at one spatial bucket.
type NPCInteraction struct {
	Key         BucketKey `json:"key"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Count       int       `json:"count"`
	Snippets    []string  `json:"snippets"`
	Description string    `json:"description"`
	RefX        int       `json:"ref_x"`
	RefY        int       `json:"ref_y"`
}

// PositionSample feeds stuck detection and room visit counting only.
type PositionSample struct {
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Room       int       `json:"room"`
	InDialogue bool      `json:"in_dialogue"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoomVisit is the result of registering a room observation.
type RoomVisit struct {
	IsNew             bool `json:"is_new"`
	VisitCount        int  `json:"visit_count"`
	TotalRoomsVisited int  `json:"total_rooms_visited"`
}

// NPCSummary is the read-only view of a bucket surfaced to the model.
type NPCSummary struct {
	Room        int       `json:"room"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Count       int       `json:"interaction_count"`
	Description string    `json:"description"`
	Snippets    []string  `json:"dialogue_snippets"`
	LastSeen    time.Time `json:"last_seen"`
}

// PlanStatus is the read-only view of the live plan.
type PlanStatus struct {
	Goal      string   `json:"goal"`
	Steps     []string `json:"steps,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	CyclesOld int      `json:"cycles_old"`
}

// Context is the snapshot handed to the reasoning provider. It is built
// copy-on-read; mutating it never touches the store.
type Context struct {
	RecentDecisions  []DecisionRecord `json:"recent_decisions"`
	RecentStory      []StoryEvent     `json:"recent_story"`
	KnownNPCs        []NPCSummary     `json:"known_npcs,omitempty"`
	CurrentPlan      *PlanStatus      `json:"current_plan,omitempty"`
	TotalDecisions   int              `json:"total_decisions"`
	TotalStoryEvents int              `json:"total_story_events"`
	RoomsVisited     int              `json:"rooms_visited"`
	LastDecisionTime *time.Time       `json:"last_decision_time,omitempty"`
}
