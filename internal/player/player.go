package player

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"zelda-ai/internal/console"
	"zelda-ai/internal/controller"
	"zelda-ai/internal/emulator"
	"zelda-ai/internal/history"
	"zelda-ai/internal/llm"
	"zelda-ai/internal/storage"
)

type State int32

const (
	StateWaitingForStart State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateWaitingForStart:
		return "waiting_for_start"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const defaultLoopDelay = 10 * time.Millisecond

// Player is the decision-cycle scheduler. It ticks the emulator, triggers at
// most one outstanding decision request per interval, harvests the result
// without blocking frame advancement, and feeds the other components.
type Player struct {
	emu          emulator.Emulator
	provider     llm.DecisionProvider
	planProvider llm.PlanProvider
	hist         *history.Manager
	ctrl         *controller.Controller
	controls     *console.Controls
	rec          storage.Recorder

	interval          time.Duration
	maxFrames         int
	planRefreshCycles int
	useHistoryContext bool
	dataDir           string
	loopDelay         time.Duration

	state        atomic.Int32
	frames       atomic.Int64
	decisions    atomic.Int64
	lastDecision time.Time
	pending      *decisionTask
	startTime    time.Time
}

func New(
	emu emulator.Emulator,
	provider llm.DecisionProvider,
	planProvider llm.PlanProvider,
	hist *history.Manager,
	ctrl *controller.Controller,
	controls *console.Controls,
	rec storage.Recorder,
	interval time.Duration,
	maxFrames int,
	planRefreshCycles int,
	useHistoryContext bool,
	dataDir string,
) *Player {
	return &Player{
		emu:               emu,
		provider:          provider,
		planProvider:      planProvider,
		hist:              hist,
		ctrl:              ctrl,
		controls:          controls,
		rec:               rec,
		interval:          interval,
		maxFrames:         maxFrames,
		planRefreshCycles: planRefreshCycles,
		useHistoryContext: useHistoryContext,
		dataDir:           dataDir,
		loopDelay:         defaultLoopDelay,
	}
}

// SetLoopDelay overrides the per-iteration yield (default 10ms).
func (p *Player) SetLoopDelay(d time.Duration) { p.loopDelay = d }

func (p *Player) State() State { return State(p.state.Load()) }

type decisionResult struct {
	success bool
	err     error
}

type decisionTask struct {
	done chan decisionResult
}

// Run drives the session until a quit signal, the emulator reports the
// session ended, or the frame budget is exhausted. It never waits
// synchronously on a decision request.
func (p *Player) Run(ctx context.Context) {
	p.startTime = time.Now()
	p.state.Store(int32(StateWaitingForStart))
	log.Printf("🎮 Starting Zelda AI Player...")
	log.Printf("⏰ AI decisions every %s | Type 'start' to begin | 'q' to quit", p.interval)

	for p.frames.Load() < int64(p.maxFrames) {
		if ctx.Err() != nil || p.controls.QuitRequested() {
			break
		}

		// The sequencer owns frame advancement while it executes input.
		if !p.ctrl.InputInProgress() {
			if !p.emu.Tick() {
				log.Printf("⚠️ Game stopped running")
				break
			}
		}
		frames := p.frames.Add(1)

		if !p.controls.Started() {
			p.state.Store(int32(StateWaitingForStart))
			if frames%300 == 0 {
				log.Printf("⌨️ Waiting for input... Type 'start' to begin")
			}
			time.Sleep(p.loopDelay)
			continue
		}
		p.state.Store(int32(StateRunning))

		// Single-flight: a new trigger is suppressed while a prior request
		// is unresolved, no matter how much time has passed.
		if p.pending == nil && p.decisionDue() {
			p.pending = p.dispatch(ctx)
			p.lastDecision = time.Now()
		}

		if p.pending != nil {
			select {
			case res := <-p.pending.done:
				p.pending = nil
				p.handleResult(res)
			default:
			}
		}

		if frames%600 == 0 {
			p.logProgress()
		}
		time.Sleep(p.loopDelay)
	}

	// A quit only stops new work; an in-flight decision finishes first.
	if p.pending != nil {
		p.handleResult(<-p.pending.done)
		p.pending = nil
	}
	p.state.Store(int32(StateStopped))
	p.teardown()
}

func (p *Player) decisionDue() bool {
	return p.lastDecision.IsZero() || time.Since(p.lastDecision) >= p.interval
}

func (p *Player) dispatch(ctx context.Context) *decisionTask {
	task := &decisionTask{done: make(chan decisionResult, 1)}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				task.done <- decisionResult{err: fmt.Errorf("decision cycle panic: %v", r)}
			}
		}()
		success, err := p.runDecisionCycle(ctx)
		task.done <- decisionResult{success: success, err: err}
	}()
	return task
}

func (p *Player) handleResult(res decisionResult) {
	switch {
	case res.err != nil:
		log.Printf("❌ AI decision error: %v", res.err)
	case res.success:
		log.Printf("✅ AI decision executed successfully")
	default:
		log.Printf("⚠️ AI decision failed")
	}
}

// runDecisionCycle is one request/response/execute round trip. It runs on its
// own goroutine; its only communication with the loop is the result channel.
func (p *Player) runDecisionCycle(ctx context.Context) (bool, error) {
	frame, err := p.emu.CaptureFrame()
	if err != nil {
		return false, fmt.Errorf("capture frame: %w", err)
	}
	state, err := p.emu.ReadState()
	if err != nil {
		return false, fmt.Errorf("read game state: %w", err)
	}

	// Spatial bookkeeping first so the context below reflects it.
	visit := p.hist.CheckRoomVisit(state.Room)
	if visit.IsNew {
		p.hist.AddStoryEvent("location_change",
			fmt.Sprintf("Entered room %d for the first time (%d rooms seen)", state.Room, visit.TotalRoomsVisited),
			map[string]any{"room": state.Room})
	}
	if p.hist.CheckIfStuck(state) {
		p.hist.AddStoryEvent("stuck",
			fmt.Sprintf("Player appears stuck near (%d,%d) in room %d", state.PositionX, state.PositionY, state.Room),
			map[string]any{"room": state.Room})
	}

	p.refreshPlan(ctx, state)
	p.hist.IncrementPlanCycle()

	var historyContext any
	if p.useHistoryContext {
		historyContext = p.hist.ContextForAI()
	}

	decision, err := p.provider.GetGameDecision(ctx, frame, state, historyContext)
	if err != nil {
		return false, fmt.Errorf("get decision: %w", err)
	}

	success := p.ctrl.Execute(decision)
	n := p.decisions.Add(1)

	var buttons []string
	for _, step := range decision.Sequence {
		buttons = append(buttons, string(step.Button))
	}
	log.Printf("🤖 #%d: %s", n, decision.Reasoning)
	log.Printf("🎮 Actions: %s", strings.Join(buttons, ", "))
	if decision.ScreenText != "" {
		log.Printf("📖 Text: %q", decision.ScreenText)
	}

	p.hist.AddDecision(decision, success, state)
	if decision.ScreenText != "" {
		p.hist.AddStoryEvent("dialogue", decision.ScreenText, map[string]any{
			"in_text_box": state.InTextBox,
			"decision_id": int(n),
			"source":      "model",
			"position_x":  state.PositionX,
			"position_y":  state.PositionY,
			"room":        state.Room,
		})
	}

	if p.rec != nil {
		if err := p.rec.AppendCycle(storage.CycleEvent{
			Timestamp:  time.Now(),
			DecisionID: int(n),
			Buttons:    buttons,
			Reasoning:  decision.Reasoning,
			Confidence: decision.Confidence,
			Success:    success,
		}); err != nil {
			log.Printf("❌ failed to record cycle: %v", err)
		}
	}
	return success, nil
}

// refreshPlan asks the plan provider for a new strategic plan when the live
// one is stale. Plan failures are non-fatal; the decision cycle continues
// with the old plan.
func (p *Player) refreshPlan(ctx context.Context, state emulator.GameState) {
	if p.planProvider == nil || !p.hist.ShouldUpdatePlan(p.planRefreshCycles) {
		return
	}
	currentGoal := ""
	if cur := p.hist.CurrentPlan(); cur != nil {
		currentGoal = cur.Goal
	}
	plan, err := p.planProvider.GetPlan(ctx, state, p.hist.Summary(), currentGoal)
	if err != nil {
		log.Printf("⚠️ Plan refresh failed: %v", err)
		return
	}
	p.hist.UpdatePlan(plan)
}

// Status renders the session status for the operator surfaces.
func (p *Player) Status() string {
	elapsed := time.Since(p.startTime).Round(time.Second)
	return fmt.Sprintf("State: %s | Frames: %d/%d | Decisions: %d | Elapsed: %s\n%s",
		p.State(), p.frames.Load(), p.maxFrames, p.decisions.Load(), elapsed, p.hist.Summary())
}

func (p *Player) logProgress() {
	elapsed := time.Since(p.startTime).Seconds()
	fps := 0.0
	if elapsed > 0 {
		fps = float64(p.frames.Load()) / elapsed
	}
	log.Printf("📊 Progress: %d/%d frames (%.1f fps, %.1fs elapsed), %d decisions",
		p.frames.Load(), p.maxFrames, fps, elapsed, p.decisions.Load())
}

func (p *Player) teardown() {
	stats := p.ctrl.Statistics()
	log.Printf("📊 Final statistics: %d actions executed", stats.TotalActions)
	for btn, s := range stats.PerButton {
		log.Printf("   %s: %d presses, %.0f%% success, avg confidence %.2f",
			btn, s.Count, s.SuccessRate*100, s.AvgConfidence)
	}

	exportPath := filepath.Join(p.dataDir, fmt.Sprintf("action_history_%d.json", time.Now().Unix()))
	_ = p.ctrl.SaveActionHistory(exportPath)

	if err := p.hist.SaveToFile(); err != nil {
		log.Printf("⚠️ teardown: history save failed: %v", err)
	}
	if err := p.emu.Close(); err != nil {
		log.Printf("⚠️ teardown: emulator close failed: %v", err)
	}
	log.Printf("🏁 Session finished: %d frames, %d decisions", p.frames.Load(), p.decisions.Load())
}
