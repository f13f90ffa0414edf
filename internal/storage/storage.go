package storage

import "time"

// CycleEvent records one completed decision cycle for the session log.
// Events are expected to be appended in chronological order.
type CycleEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	DecisionID int       `json:"decision_id"`
	Buttons    []string  `json:"buttons"`
	Reasoning  string    `json:"reasoning"`
	Confidence float64   `json:"confidence"`
	Success    bool      `json:"success"`
}

// Recorder abstracts persistence of decision-cycle events.
// Implementations can be file-based, database, etc.
// LoadCycles should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendCycle(event CycleEvent) error
	LoadCycles() ([]CycleEvent, error)
}
