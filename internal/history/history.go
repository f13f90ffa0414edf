package history

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"zelda-ai/internal/emulator"
	"zelda-ai/internal/llm"
	"zelda-ai/internal/storage"
)

const (
	positionHistoryCap = 8
	stuckMinSamples    = 5
	stuckTolerance     = 4
	maxSnippets        = 5
	snippetLen         = 50
	recentStoryCount   = 20
)

const (
	decisionFile = "decision_history.json"
	storyFile    = "story_log.json"
)

// Manager owns all decision and narrative history for one session: the
// bounded decision ring, the story log, NPC interaction buckets, the position
// ring for stuck detection, the visited-room set and the live plan. It is
// constructed once and passed to collaborators explicitly.
type Manager struct {
	mu           sync.Mutex
	maxDecisions int
	dataDir      string

	decisions []DecisionRecord
	story     []StoryEvent
	npcs      map[BucketKey]*NPCInteraction
	positions []PositionSample
	visited   map[int]bool

	plan       *llm.Plan
	planCycles int

	decisionSeq int
	eventSeq    int
}

func NewManager(maxDecisions int, dataDir string) *Manager {
	if maxDecisions <= 0 {
		maxDecisions = 10
	}
	return &Manager{
		maxDecisions: maxDecisions,
		dataDir:      dataDir,
		npcs:         make(map[BucketKey]*NPCInteraction),
		visited:      make(map[int]bool),
	}
}

// AddDecision appends a DecisionRecord, evicting the oldest beyond capacity.
func (m *Manager) AddDecision(d *llm.Decision, success bool, state emulator.GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decisionSeq++
	rec := DecisionRecord{
		ID:           m.decisionSeq,
		Timestamp:    time.Now(),
		Sequence:     append([]llm.ActionStep(nil), d.Sequence...),
		Reasoning:    d.Reasoning,
		Confidence:   d.Confidence,
		Goals:        append([]string(nil), d.Goals...),
		Success:      success,
		GameState:    state,
		TextDetected: state.TextDetected,
		InTextBox:    state.InTextBox,
	}
	m.decisions = append(m.decisions, rec)
	if len(m.decisions) > m.maxDecisions {
		m.decisions = m.decisions[1:]
	}
}

// AddStoryEvent appends a StoryEvent. Dialogue events whose context carries a
// position and room additionally feed NPC-interaction tracking.
func (m *Manager) AddStoryEvent(eventType, content string, context map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addStoryEventLocked(eventType, content, context)
}

func (m *Manager) addStoryEventLocked(eventType, content string, context map[string]any) {
	m.eventSeq++
	ev := StoryEvent{
		ID:        m.eventSeq,
		Timestamp: time.Now(),
		Type:      eventType,
		Content:   content,
		Context:   coerceContext(context),
	}
	m.story = append(m.story, ev)
	log.Printf("📖 Story event added: %s - %s", eventType, snippet(content))

	if eventType == "dialogue" {
		m.trackNPCLocked(content, ev.Context)
	}
}

// trackNPCLocked updates the spatial bucket for a dialogue event. From the
// second interaction at the same bucket onward it synthesizes an "npc_repeat"
// event, which is what warns the model off repeat conversations.
func (m *Manager) trackNPCLocked(content string, context map[string]any) {
	x, okX := intFromContext(context, "position_x")
	y, okY := intFromContext(context, "position_y")
	room, okR := intFromContext(context, "room")
	if !okX || !okY || !okR {
		return
	}

	key := bucketFor(room, x, y)
	now := time.Now()
	npc, exists := m.npcs[key]
	if !exists {
		npc = &NPCInteraction{
			Key:         key,
			FirstSeen:   now,
			Description: fmt.Sprintf("NPC near (%d,%d) in room %d", x, y, room),
			RefX:        x,
			RefY:        y,
		}
		m.npcs[key] = npc
	}
	npc.LastSeen = now
	npc.Count++
	npc.addSnippet(snippet(content))

	if npc.Count >= 2 {
		m.addStoryEventLocked("npc_repeat",
			fmt.Sprintf("Talked to the same NPC again (%d times) near (%d,%d) in room %d", npc.Count, npc.RefX, npc.RefY, room),
			map[string]any{"room": room, "gx": key.GX, "gy": key.GY, "count": npc.Count})
	}
}

func (n *NPCInteraction) addSnippet(s string) {
	for _, have := range n.Snippets {
		if have == s {
			return
		}
	}
	n.Snippets = append(n.Snippets, s)
	if len(n.Snippets) > maxSnippets {
		n.Snippets = n.Snippets[1:]
	}
}

// CheckRoomVisit registers the room as visited and reports whether it was
// newly seen. The visit count is approximate: it counts position samples
// recorded in that room within the bounded position ring.
func (m *Manager) CheckRoomVisit(room int) RoomVisit {
	m.mu.Lock()
	defer m.mu.Unlock()

	isNew := !m.visited[room]
	m.visited[room] = true

	count := 0
	for _, p := range m.positions {
		if p.Room == room {
			count++
		}
	}
	return RoomVisit{IsNew: isNew, VisitCount: count, TotalRoomsVisited: len(m.visited)}
}

// CheckIfStuck records a position sample and reports whether the player has
// been stationary across several decision cycles. Dialogue samples stay in
// the ring but are excluded from the check: sitting in a conversation is not
// being stuck.
func (m *Manager) CheckIfStuck(state emulator.GameState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = append(m.positions, PositionSample{
		X:          state.PositionX,
		Y:          state.PositionY,
		Room:       state.Room,
		InDialogue: state.InTextBox,
		Timestamp:  time.Now(),
	})
	if len(m.positions) > positionHistoryCap {
		m.positions = m.positions[1:]
	}

	var nd []PositionSample
	for _, p := range m.positions {
		if !p.InDialogue {
			nd = append(nd, p)
		}
	}
	if len(nd) < stuckMinSamples {
		return false
	}
	first := nd[0]
	for _, p := range nd[1:] {
		if p.Room != first.Room {
			return false
		}
		if abs(p.X-first.X) > stuckTolerance || abs(p.Y-first.Y) > stuckTolerance {
			return false
		}
	}
	return true
}

// UpdatePlan replaces the live plan wholesale and resets the cycle counter.
func (m *Manager) UpdatePlan(p *llm.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.Steps = append([]string(nil), p.Steps...)
	m.plan = &cp
	m.planCycles = 0
	log.Printf("🗺️ Plan updated: %s", p.Goal)
}

// ShouldUpdatePlan reports whether the plan is stale: none exists yet or the
// cycle counter since creation reached maxCycles.
func (m *Manager) ShouldUpdatePlan(maxCycles int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan == nil || m.planCycles >= maxCycles
}

// IncrementPlanCycle advances the staleness counter; called once per decision
// cycle whether or not a plan exists.
func (m *Manager) IncrementPlanCycle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planCycles++
}

// CurrentPlan returns a copy of the live plan, or nil.
func (m *Manager) CurrentPlan() *llm.Plan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plan == nil {
		return nil
	}
	cp := *m.plan
	cp.Steps = append([]string(nil), m.plan.Steps...)
	return &cp
}

// ContextForAI assembles the read-only snapshot handed to the reasoning
// provider. Only NPC buckets with at least two interactions are surfaced so
// one-off contacts don't crowd the context.
func (m *Manager) ContextForAI() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := &Context{
		RecentDecisions:  append([]DecisionRecord(nil), m.decisions...),
		RecentStory:      append([]StoryEvent(nil), m.recentStoryLocked(recentStoryCount)...),
		TotalDecisions:   len(m.decisions),
		TotalStoryEvents: len(m.story),
		RoomsVisited:     len(m.visited),
	}
	if len(m.decisions) > 0 {
		t := m.decisions[len(m.decisions)-1].Timestamp
		ctx.LastDecisionTime = &t
	}
	for _, npc := range m.npcs {
		if npc.Count < 2 {
			continue
		}
		ctx.KnownNPCs = append(ctx.KnownNPCs, NPCSummary{
			Room:        npc.Key.Room,
			X:           npc.RefX,
			Y:           npc.RefY,
			Count:       npc.Count,
			Description: npc.Description,
			Snippets:    append([]string(nil), npc.Snippets...),
			LastSeen:    npc.LastSeen,
		})
	}
	sort.Slice(ctx.KnownNPCs, func(i, j int) bool {
		if ctx.KnownNPCs[i].Count != ctx.KnownNPCs[j].Count {
			return ctx.KnownNPCs[i].Count > ctx.KnownNPCs[j].Count
		}
		return ctx.KnownNPCs[i].LastSeen.After(ctx.KnownNPCs[j].LastSeen)
	})
	if m.plan != nil {
		ctx.CurrentPlan = &PlanStatus{
			Goal:      m.plan.Goal,
			Steps:     append([]string(nil), m.plan.Steps...),
			Reasoning: m.plan.Reasoning,
			CyclesOld: m.planCycles,
		}
	}
	return ctx
}

func (m *Manager) recentStoryLocked(n int) []StoryEvent {
	if len(m.story) <= n {
		return m.story
	}
	return m.story[len(m.story)-n:]
}

// Summary renders a short human-readable digest for the status command.
func (m *Manager) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.decisions) == 0 && len(m.story) == 0 {
		return "No history available yet."
	}

	var b strings.Builder
	if len(m.decisions) > 0 {
		b.WriteString("Recent Decisions:\n")
		start := len(m.decisions) - 3
		if start < 0 {
			start = 0
		}
		for _, d := range m.decisions[start:] {
			mark := "❌"
			if d.Success {
				mark = "✅"
			}
			var buttons []string
			for _, s := range d.Sequence {
				buttons = append(buttons, string(s.Button))
			}
			fmt.Fprintf(&b, "  %s Decision #%d: %s (%s)\n", mark, d.ID, strings.Join(buttons, ", "), snippet(d.Reasoning))
		}
	}
	if len(m.story) > 0 {
		b.WriteString("Recent Story Events:\n")
		start := len(m.story) - 5
		if start < 0 {
			start = 0
		}
		for _, ev := range m.story[start:] {
			fmt.Fprintf(&b, "  📖 %s: %s\n", ev.Type, snippet(ev.Content))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SaveToFile writes the decision and story logs as two JSON documents. A
// failed save is logged and reported, never fatal.
func (m *Manager) SaveToFile() error {
	m.mu.Lock()
	decisions := append([]DecisionRecord(nil), m.decisions...)
	story := append([]StoryEvent(nil), m.story...)
	m.mu.Unlock()

	var firstErr error
	if err := storage.WriteDocument(filepath.Join(m.dataDir, decisionFile), decisions); err != nil {
		log.Printf("❌ failed to save decision history: %v", err)
		firstErr = err
	}
	if err := storage.WriteDocument(filepath.Join(m.dataDir, storyFile), story); err != nil {
		log.Printf("❌ failed to save story log: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		log.Printf("💾 History saved to %s", m.dataDir)
	}
	return firstErr
}

// LoadFromFile restores the decision and story logs. Missing files are not an
// error: the session simply starts with empty history.
func (m *Manager) LoadFromFile() error {
	var decisions []DecisionRecord
	var story []StoryEvent

	foundD, err := storage.ReadDocument(filepath.Join(m.dataDir, decisionFile), &decisions)
	if err != nil {
		log.Printf("❌ failed to load decision history: %v", err)
		return err
	}
	foundS, err := storage.ReadDocument(filepath.Join(m.dataDir, storyFile), &story)
	if err != nil {
		log.Printf("❌ failed to load story log: %v", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if foundD {
		if len(decisions) > m.maxDecisions {
			decisions = decisions[len(decisions)-m.maxDecisions:]
		}
		m.decisions = decisions
		for _, d := range decisions {
			if d.ID > m.decisionSeq {
				m.decisionSeq = d.ID
			}
		}
		log.Printf("📂 Loaded %d decisions from file", len(decisions))
	}
	if foundS {
		m.story = story
		for _, ev := range story {
			if ev.ID > m.eventSeq {
				m.eventSeq = ev.ID
			}
		}
		log.Printf("📂 Loaded %d story events from file", len(story))
	}
	return nil
}

// coerceContext makes the context map JSON-safe: basic types pass through,
// anything else is stringified rather than failing the whole record.
func coerceContext(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch v.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, json.Number:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func intFromContext(ctx map[string]any, key string) (int, bool) {
	switch v := ctx[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
