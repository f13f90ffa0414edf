package controller

import (
	"log"

	"zelda-ai/internal/emulator"
	"zelda-ai/internal/storage"
)

// ButtonStats aggregates one button's usage across the retained window.
type ButtonStats struct {
	Count         int     `json:"count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgConfidence float64 `json:"average_confidence"`
}

// Stats is observability only; nothing feeds it back into decisions.
type Stats struct {
	TotalActions int                             `json:"total_actions"`
	PerButton    map[emulator.Button]ButtonStats `json:"per_button"`
}

// Statistics aggregates per-button occurrences, success rates and average
// confidence across the retained action history.
func (c *Controller) Statistics() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[emulator.Button]int)
	successes := make(map[emulator.Button]int)
	confidence := make(map[emulator.Button]float64)

	for _, rec := range c.history {
		for _, step := range rec.Sequence {
			counts[step.Button]++
			confidence[step.Button] += rec.Confidence
			if rec.Success {
				successes[step.Button]++
			}
		}
	}

	stats := Stats{
		TotalActions: len(c.history),
		PerButton:    make(map[emulator.Button]ButtonStats, len(counts)),
	}
	for btn, n := range counts {
		stats.PerButton[btn] = ButtonStats{
			Count:         n,
			SuccessRate:   float64(successes[btn]) / float64(n),
			AvgConfidence: confidence[btn] / float64(n),
		}
	}
	return stats
}

// SaveActionHistory exports the retained action records as a JSON array for
// offline analysis.
func (c *Controller) SaveActionHistory(path string) error {
	c.mu.Lock()
	records := append([]ActionRecord(nil), c.history...)
	c.mu.Unlock()

	if err := storage.WriteDocument(path, records); err != nil {
		log.Printf("❌ failed to save action history: %v", err)
		return err
	}
	log.Printf("💾 Action history saved to %s", path)
	return nil
}
