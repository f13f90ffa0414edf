package player

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zelda-ai/internal/console"
	"zelda-ai/internal/controller"
	"zelda-ai/internal/emulator"
	"zelda-ai/internal/history"
	"zelda-ai/internal/llm"
)

// loopEmulator is safe for concurrent use: the loop ticks it while the
// decision goroutine captures frames and presses buttons.
type loopEmulator struct {
	mu       sync.Mutex
	presses  []llm.ActionStep
	ticks    int
	aliveFor int // ticks before the session reports ended, 0 = forever
	closed   bool
}

func (f *loopEmulator) Tick() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	return f.aliveFor == 0 || f.ticks <= f.aliveFor
}

func (f *loopEmulator) PressButton(b emulator.Button, holdFrames int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presses = append(f.presses, llm.ActionStep{Button: b, Duration: holdFrames})
	return true
}

func (f *loopEmulator) ReleaseButton(emulator.Button) bool { return true }

func (f *loopEmulator) ReadState() (emulator.GameState, error) {
	return emulator.GameState{Health: 3, Room: 1, PositionX: 50, PositionY: 50}, nil
}

func (f *loopEmulator) CaptureFrame() ([]byte, error) { return []byte{0x89, 'P', 'N', 'G'}, nil }

func (f *loopEmulator) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *loopEmulator) tickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func (f *loopEmulator) pressed() []llm.ActionStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.ActionStep(nil), f.presses...)
}

type fakeProvider struct {
	delay       time.Duration
	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeProvider) GetGameDecision(ctx context.Context, frame []byte, state emulator.GameState, historyContext any) (*llm.Decision, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return &llm.Decision{
		Sequence:   []llm.ActionStep{{Button: emulator.ButtonA, Duration: 5}},
		Reasoning:  "press a",
		Confidence: 0.9,
	}, nil
}

func newTestPlayer(t *testing.T, emu *loopEmulator, provider *fakeProvider, maxFrames int, interval time.Duration) (*Player, *console.Controls, *history.Manager) {
	t.Helper()
	hist := history.NewManager(10, t.TempDir())
	ctrl := controller.New(emu)
	controls := &console.Controls{}
	p := New(emu, provider, nil, hist, ctrl, controls, nil, interval, maxFrames, 5, true, t.TempDir())
	p.SetLoopDelay(time.Microsecond)
	return p, controls, hist
}

func TestNoDecisionsBeforeStart(t *testing.T) {
	emu := &loopEmulator{}
	provider := &fakeProvider{}
	p, _, _ := newTestPlayer(t, emu, provider, 50, time.Millisecond)

	p.Run(context.Background())

	if n := provider.calls.Load(); n != 0 {
		t.Fatalf("decisions requested before the start signal: %d", n)
	}
	if p.State() != StateStopped {
		t.Fatalf("unexpected final state: %s", p.State())
	}
	if !emu.closed {
		t.Fatalf("emulator not closed on teardown")
	}
}

func TestSingleFlightDispatch(t *testing.T) {
	emu := &loopEmulator{}
	provider := &fakeProvider{delay: 30 * time.Millisecond}
	p, controls, _ := newTestPlayer(t, emu, provider, 300, time.Millisecond)
	p.SetLoopDelay(time.Millisecond)
	controls.Start()

	p.Run(context.Background())

	if n := provider.calls.Load(); n < 2 {
		t.Fatalf("expected repeated decision cycles, got %d", n)
	}
	if m := provider.maxInFlight.Load(); m != 1 {
		t.Fatalf("more than one decision request in flight: %d", m)
	}
}

func TestDecisionExecutedAndRecorded(t *testing.T) {
	emu := &loopEmulator{}
	provider := &fakeProvider{}
	p, controls, hist := newTestPlayer(t, emu, provider, 200, time.Millisecond)
	p.SetLoopDelay(time.Millisecond)
	controls.Start()

	p.Run(context.Background())

	if provider.calls.Load() == 0 {
		t.Fatalf("no decision cycles ran")
	}

	found := false
	for _, step := range emu.pressed() {
		if step.Button == emulator.ButtonA && step.Duration == 5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("decision sequence never reached the emulator: %+v", emu.pressed())
	}

	ctx := hist.ContextForAI()
	if len(ctx.RecentDecisions) == 0 {
		t.Fatalf("decision not recorded in history")
	}
	rec := ctx.RecentDecisions[len(ctx.RecentDecisions)-1]
	if !rec.Success || rec.Reasoning != "press a" {
		t.Fatalf("unexpected decision record: %+v", rec)
	}
}

func TestRunStopsWhenEmulatorDies(t *testing.T) {
	emu := &loopEmulator{aliveFor: 5}
	provider := &fakeProvider{}
	p, controls, _ := newTestPlayer(t, emu, provider, 100000, time.Hour)
	controls.Start()

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after the emulator died")
	}
	if emu.tickCount() > 100 {
		t.Fatalf("loop kept ticking a dead emulator: %d ticks", emu.tickCount())
	}
}

func TestQuitDrainsInFlightDecision(t *testing.T) {
	emu := &loopEmulator{}
	provider := &fakeProvider{delay: 100 * time.Millisecond}
	p, controls, hist := newTestPlayer(t, emu, provider, 1000000, time.Hour)
	p.SetLoopDelay(time.Millisecond)
	controls.Start()

	go func() {
		time.Sleep(20 * time.Millisecond)
		controls.RequestQuit()
	}()
	p.Run(context.Background())

	if n := provider.calls.Load(); n != 1 {
		t.Fatalf("expected exactly one decision cycle, got %d", n)
	}
	// The in-flight request finished before teardown: its decision is recorded.
	if ctx := hist.ContextForAI(); len(ctx.RecentDecisions) != 1 {
		t.Fatalf("in-flight decision was dropped on quit: %+v", ctx.RecentDecisions)
	}
	if p.State() != StateStopped {
		t.Fatalf("unexpected final state: %s", p.State())
	}
}

func TestContextCancelStopsRun(t *testing.T) {
	emu := &loopEmulator{}
	provider := &fakeProvider{}
	p, controls, _ := newTestPlayer(t, emu, provider, 1000000, time.Hour)
	controls.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop ignored context cancellation")
	}
}
