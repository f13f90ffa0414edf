package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Controls carries the operator signals that gate the player loop: the start
// gate and the quit request. Both sides touch them from different goroutines,
// hence the atomics.
type Controls struct {
	started atomic.Bool
	quit    atomic.Bool
}

func (c *Controls) Started() bool      { return c.started.Load() }
func (c *Controls) QuitRequested() bool { return c.quit.Load() }
func (c *Controls) Start()             { c.started.Store(true) }
func (c *Controls) Pause()             { c.started.Store(false) }
func (c *Controls) RequestQuit()       { c.quit.Store(true) }

// Listener reads operator commands line by line from stdin.
type Listener struct {
	controls *Controls
	status   func() string
	in       io.Reader
}

func NewListener(controls *Controls, status func() string) *Listener {
	return &Listener{controls: controls, status: status, in: os.Stdin}
}

// Start launches the command loop on its own goroutine.
func (l *Listener) Start() {
	go l.loop()
}

func (l *Listener) loop() {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		if l.handle(strings.ToLower(strings.TrimSpace(scanner.Text()))) {
			return
		}
	}
}

// handle processes one command and reports whether the loop should stop.
func (l *Listener) handle(cmd string) bool {
	switch cmd {
	case "", "start", "s":
		l.controls.Start()
		fmt.Println("🚀 AI decision-making started!")
	case "pause", "p":
		if l.controls.Started() {
			l.controls.Pause()
			fmt.Println("⏸️ AI paused. Type 'resume' or 'r' to continue.")
		} else {
			fmt.Println("ℹ️ AI is not running. Type 'start' to begin.")
		}
	case "resume", "r":
		if !l.controls.Started() {
			l.controls.Start()
			fmt.Println("▶️ AI resumed!")
		} else {
			fmt.Println("ℹ️ AI is already running.")
		}
	case "quit", "q", "exit":
		l.controls.RequestQuit()
		fmt.Println("👋 Quitting...")
		return true
	case "status", "info":
		if l.status != nil {
			fmt.Println(l.status())
		}
	case "help", "h":
		printHelp()
	default:
		fmt.Printf("❓ Unknown command: %q. Type 'help' for available commands.\n", cmd)
	}
	return false
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  start, s   - start AI decision-making")
	fmt.Println("  pause, p   - pause AI (game keeps running)")
	fmt.Println("  resume, r  - resume AI")
	fmt.Println("  status     - show session status")
	fmt.Println("  quit, q    - stop the session")
}
