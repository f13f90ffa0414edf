package llm

import (
	"testing"

	"zelda-ai/internal/emulator"
)

func TestParseDecisionValid(t *testing.T) {
	text := `{"sequence":[{"button":"right","duration":15,"delay":5},{"button":"a","duration":10}],"reasoning":"move and attack","confidence":0.8,"goals":["explore"],"screen_text":""}`
	d, err := ParseDecision(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Sequence) != 2 {
		t.Fatalf("unexpected sequence length: %d", len(d.Sequence))
	}
	if d.Sequence[0].Button != emulator.ButtonRight || d.Sequence[0].Duration != 15 || d.Sequence[0].Delay != 5 {
		t.Fatalf("unexpected first step: %+v", d.Sequence[0])
	}
	if d.Sequence[1].Delay != 0 {
		t.Fatalf("missing delay should default to 0, got %d", d.Sequence[1].Delay)
	}
	if d.Confidence != 0.8 || d.Reasoning != "move and attack" {
		t.Fatalf("unexpected metadata: %+v", d)
	}
}

func TestParseDecisionCodeFence(t *testing.T) {
	text := "```json\n{\"sequence\":[{\"button\":\"a\",\"duration\":5}],\"reasoning\":\"ok\",\"confidence\":0.5}\n```"
	d, err := ParseDecision(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Sequence) != 1 || d.Sequence[0].Button != emulator.ButtonA {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestParseDecisionRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `press a now`,
		"empty sequence":     `{"sequence":[],"reasoning":"x","confidence":0.5}`,
		"missing reasoning":  `{"sequence":[{"button":"a","duration":5}],"confidence":0.5}`,
		"missing confidence": `{"sequence":[{"button":"a","duration":5}],"reasoning":"x"}`,
		"invalid button":     `{"sequence":[{"button":"x","duration":5}],"reasoning":"x","confidence":0.5}`,
		"zero duration":      `{"sequence":[{"button":"a","duration":0}],"reasoning":"x","confidence":0.5}`,
		"negative duration":  `{"sequence":[{"button":"a","duration":-3}],"reasoning":"x","confidence":0.5}`,
		"negative delay":     `{"sequence":[{"button":"a","duration":5,"delay":-1}],"reasoning":"x","confidence":0.5}`,
	}
	for name, text := range cases {
		if _, err := ParseDecision(text); err == nil {
			t.Fatalf("%s: expected error, got none", name)
		}
	}
}

func TestParseDecisionFloatDuration(t *testing.T) {
	text := `{"sequence":[{"button":"up","duration":12.7,"delay":2.3}],"reasoning":"x","confidence":0.5}`
	d, err := ParseDecision(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Sequence[0].Duration != 12 || d.Sequence[0].Delay != 2 {
		t.Fatalf("float timing should truncate, got %+v", d.Sequence[0])
	}
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan("```json\n{\"goal\":\"reach the dungeon\",\"steps\":[\"go north\",\"find key\"],\"reasoning\":\"progress\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Goal != "reach the dungeon" || len(p.Steps) != 2 {
		t.Fatalf("unexpected plan: %+v", p)
	}
	if p.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	if _, err := ParsePlan(`{"steps":["x"]}`); err == nil {
		t.Fatalf("plan without goal should be rejected")
	}
}
