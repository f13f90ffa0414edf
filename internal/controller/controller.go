package controller

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"zelda-ai/internal/emulator"
	"zelda-ai/internal/llm"
)

// Duration ceilings per button class, in frames. The model cannot be trusted
// to request realistic hold times; without clamping a single oversized request
// would stall emulation for seconds of real time.
const (
	maxDirectionalFrames = 15
	maxActionFrames      = 5 // the primary 'a' button, kept short for responsiveness
	maxOtherFrames       = 10
	maxDelayFrames       = 5
	settleFrames         = 5

	maxHistory = 100
)

// ActionRecord is the sequencer's own bookkeeping of one Execute call,
// independent of the history store's DecisionRecord.
type ActionRecord struct {
	Timestamp  time.Time        `json:"timestamp"`
	Sequence   []llm.ActionStep `json:"sequence"`
	Reasoning  string           `json:"reasoning"`
	Confidence float64          `json:"confidence"`
	Success    bool             `json:"success"`
	Goals      []string         `json:"goals,omitempty"`
}

// Controller validates and executes decision sequences against the emulator.
// While a sequence runs it owns frame advancement; the scheduler checks
// InputInProgress before ticking.
type Controller struct {
	emu             emulator.Emulator
	inputInProgress atomic.Bool

	mu      sync.Mutex
	history []ActionRecord
}

func New(emu emulator.Emulator) *Controller {
	return &Controller{emu: emu}
}

// InputInProgress reports whether a sequence is mid-execution.
func (c *Controller) InputInProgress() bool {
	return c.inputInProgress.Load()
}

// Execute runs the decision's action sequence in order. An empty sequence is
// rejected without touching the emulator. The first emulator failure aborts
// the rest; frames already advanced stay advanced. Every call is recorded.
func (c *Controller) Execute(d *llm.Decision) bool {
	if d == nil || len(d.Sequence) == 0 {
		log.Printf("❌ Rejecting decision with empty action sequence")
		if d != nil {
			c.record(d, false)
		}
		return false
	}

	c.inputInProgress.Store(true)
	success := c.runSequence(d.Sequence)
	c.inputInProgress.Store(false)

	c.record(d, success)
	return success
}

func (c *Controller) runSequence(sequence []llm.ActionStep) bool {
	for i, step := range sequence {
		hold := clampDuration(step.Button, step.Duration)
		if hold != step.Duration {
			log.Printf("⏱️ Clamped %s duration %d -> %d frames", step.Button, step.Duration, hold)
		}
		log.Printf("🎮 Action %d/%d: %s for %d frames", i+1, len(sequence), step.Button, hold)
		if !c.emu.PressButton(step.Button, hold) {
			log.Printf("❌ Failed to press button: %s", step.Button)
			return false
		}

		if delay := clampDelay(step.Delay); delay > 0 {
			if !c.advance(delay) {
				return false
			}
		}
	}

	// Extra frames so the final release is processed.
	if !c.advance(settleFrames) {
		return false
	}
	log.Printf("✅ Sequence completed: %d actions", len(sequence))
	return true
}

func (c *Controller) advance(frames int) bool {
	for i := 0; i < frames; i++ {
		if !c.emu.Tick() {
			log.Printf("❌ Emulator stopped while advancing frames")
			return false
		}
	}
	return true
}

func (c *Controller) record(d *llm.Decision, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, ActionRecord{
		Timestamp:  time.Now(),
		Sequence:   append([]llm.ActionStep(nil), d.Sequence...),
		Reasoning:  d.Reasoning,
		Confidence: d.Confidence,
		Success:    success,
		Goals:      append([]string(nil), d.Goals...),
	})
	if len(c.history) > maxHistory {
		c.history = c.history[1:]
	}
}

func clampDuration(b emulator.Button, frames int) int {
	limit := maxOtherFrames
	switch {
	case b.Directional():
		limit = maxDirectionalFrames
	case b == emulator.ButtonA:
		limit = maxActionFrames
	}
	if frames > limit {
		return limit
	}
	if frames < 1 {
		return 1
	}
	return frames
}

func clampDelay(frames int) int {
	if frames > maxDelayFrames {
		return maxDelayFrames
	}
	if frames < 0 {
		return 0
	}
	return frames
}
