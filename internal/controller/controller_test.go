package controller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"zelda-ai/internal/emulator"
	"zelda-ai/internal/llm"
)

type press struct {
	button emulator.Button
	frames int
}

type fakeEmulator struct {
	presses     []press
	ticks       int
	failPressAt int // fail the Nth press (1-based), 0 = never
	tickAlive   bool
}

func newFakeEmulator() *fakeEmulator {
	return &fakeEmulator{tickAlive: true}
}

func (f *fakeEmulator) Tick() bool {
	f.ticks++
	return f.tickAlive
}

func (f *fakeEmulator) PressButton(b emulator.Button, holdFrames int) bool {
	f.presses = append(f.presses, press{button: b, frames: holdFrames})
	return f.failPressAt == 0 || len(f.presses) != f.failPressAt
}

func (f *fakeEmulator) ReleaseButton(emulator.Button) bool        { return true }
func (f *fakeEmulator) ReadState() (emulator.GameState, error)    { return emulator.GameState{}, nil }
func (f *fakeEmulator) CaptureFrame() ([]byte, error)             { return []byte{1}, nil }
func (f *fakeEmulator) Close() error                              { return nil }

func decisionWith(steps ...llm.ActionStep) *llm.Decision {
	return &llm.Decision{Sequence: steps, Reasoning: "test", Confidence: 0.9}
}

func TestExecuteRejectsEmptySequence(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)

	if c.Execute(&llm.Decision{Reasoning: "empty"}) {
		t.Fatalf("empty sequence should fail")
	}
	if c.Execute(nil) {
		t.Fatalf("nil decision should fail")
	}
	if len(emu.presses) != 0 || emu.ticks != 0 {
		t.Fatalf("empty decision must not touch the emulator: %d presses, %d ticks", len(emu.presses), emu.ticks)
	}
}

func TestExecuteClampsDurations(t *testing.T) {
	cases := []struct {
		button emulator.Button
		want   int
	}{
		{emulator.ButtonUp, 15},
		{emulator.ButtonDown, 15},
		{emulator.ButtonLeft, 15},
		{emulator.ButtonRight, 15},
		{emulator.ButtonA, 5},
		{emulator.ButtonB, 10},
		{emulator.ButtonStart, 10},
		{emulator.ButtonSelect, 10},
	}
	for _, tc := range cases {
		emu := newFakeEmulator()
		c := New(emu)
		if !c.Execute(decisionWith(llm.ActionStep{Button: tc.button, Duration: 600})) {
			t.Fatalf("%s: execution failed", tc.button)
		}
		if len(emu.presses) != 1 || emu.presses[0].frames != tc.want {
			t.Fatalf("%s: expected hold clamped to %d, got %+v", tc.button, tc.want, emu.presses)
		}
	}
}

func TestExecuteKeepsShortDurations(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)
	if !c.Execute(decisionWith(llm.ActionStep{Button: emulator.ButtonRight, Duration: 7})) {
		t.Fatalf("execution failed")
	}
	if emu.presses[0].frames != 7 {
		t.Fatalf("in-range duration must pass through, got %d", emu.presses[0].frames)
	}
}

func TestExecuteClampsDelayAndSettles(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)
	if !c.Execute(decisionWith(llm.ActionStep{Button: emulator.ButtonA, Duration: 3, Delay: 100})) {
		t.Fatalf("execution failed")
	}
	// delay clamped to 5 frames, plus 5 settle frames
	if emu.ticks != 10 {
		t.Fatalf("expected 10 advanced frames, got %d", emu.ticks)
	}
}

func TestExecuteAbortsOnPressFailure(t *testing.T) {
	emu := newFakeEmulator()
	emu.failPressAt = 2
	c := New(emu)

	ok := c.Execute(decisionWith(
		llm.ActionStep{Button: emulator.ButtonRight, Duration: 5},
		llm.ActionStep{Button: emulator.ButtonA, Duration: 5},
		llm.ActionStep{Button: emulator.ButtonB, Duration: 5},
	))
	if ok {
		t.Fatalf("expected failure")
	}
	if len(emu.presses) != 2 {
		t.Fatalf("remaining actions must be skipped after a failure, got %d presses", len(emu.presses))
	}
	// the failed call is still recorded
	stats := c.Statistics()
	if stats.TotalActions != 1 {
		t.Fatalf("failed execution should still be recorded: %+v", stats)
	}
}

func TestExecuteAbortsWhenEmulatorDies(t *testing.T) {
	emu := newFakeEmulator()
	emu.tickAlive = false
	c := New(emu)

	if c.Execute(decisionWith(llm.ActionStep{Button: emulator.ButtonA, Duration: 3, Delay: 2})) {
		t.Fatalf("expected failure when emulator stops mid-sequence")
	}
}

func TestStatistics(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)

	d1 := decisionWith(llm.ActionStep{Button: emulator.ButtonA, Duration: 3})
	d1.Confidence = 0.8
	if !c.Execute(d1) {
		t.Fatalf("d1 failed")
	}

	emu.failPressAt = len(emu.presses) + 1
	d2 := decisionWith(llm.ActionStep{Button: emulator.ButtonA, Duration: 3})
	d2.Confidence = 0.4
	if c.Execute(d2) {
		t.Fatalf("d2 should fail")
	}

	stats := c.Statistics()
	if stats.TotalActions != 2 {
		t.Fatalf("unexpected total: %d", stats.TotalActions)
	}
	a := stats.PerButton[emulator.ButtonA]
	if a.Count != 2 {
		t.Fatalf("unexpected count for a: %d", a.Count)
	}
	if a.SuccessRate != 0.5 {
		t.Fatalf("unexpected success rate: %f", a.SuccessRate)
	}
	if a.AvgConfidence < 0.59 || a.AvgConfidence > 0.61 {
		t.Fatalf("unexpected avg confidence: %f", a.AvgConfidence)
	}
}

func TestActionHistoryRingCap(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)
	for i := 0; i < maxHistory+5; i++ {
		c.Execute(decisionWith(llm.ActionStep{Button: emulator.ButtonB, Duration: 1}))
	}
	if stats := c.Statistics(); stats.TotalActions != maxHistory {
		t.Fatalf("history should cap at %d, got %d", maxHistory, stats.TotalActions)
	}
}

func TestSaveActionHistory(t *testing.T) {
	emu := newFakeEmulator()
	c := New(emu)
	c.Execute(decisionWith(llm.ActionStep{Button: emulator.ButtonA, Duration: 2}))

	path := filepath.Join(t.TempDir(), "action_history_123.json")
	if err := c.SaveActionHistory(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var records []ActionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 || !records[0].Success || records[0].Sequence[0].Button != emulator.ButtonA {
		t.Fatalf("unexpected export: %+v", records)
	}
}
