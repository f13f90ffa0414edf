package console

import (
	"strings"
	"testing"
)

func TestHandleCommands(t *testing.T) {
	controls := &Controls{}
	l := &Listener{controls: controls, status: func() string { return "ok" }}

	if l.handle("start") {
		t.Fatalf("start should not stop the loop")
	}
	if !controls.Started() {
		t.Fatalf("start did not raise the start gate")
	}

	l.handle("pause")
	if controls.Started() {
		t.Fatalf("pause did not lower the start gate")
	}

	l.handle("r")
	if !controls.Started() {
		t.Fatalf("resume did not raise the start gate")
	}

	if !l.handle("q") {
		t.Fatalf("quit should stop the loop")
	}
	if !controls.QuitRequested() {
		t.Fatalf("quit did not raise the quit flag")
	}
}

func TestEmptyLineStarts(t *testing.T) {
	controls := &Controls{}
	l := &Listener{controls: controls}
	l.handle("")
	if !controls.Started() {
		t.Fatalf("empty line should act as start")
	}
}

func TestLoopStopsAfterQuit(t *testing.T) {
	controls := &Controls{}
	l := &Listener{controls: controls, in: strings.NewReader("start\nquit\nresume\n")}
	l.loop()

	if !controls.QuitRequested() {
		t.Fatalf("quit command not processed")
	}
	// "resume" after quit is never read: the loop exits on quit, so the
	// start gate still reflects the pre-quit state.
	if !controls.Started() {
		t.Fatalf("start before quit should have been processed")
	}
}
