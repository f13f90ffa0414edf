// Command freshstart wipes all persisted history and logs so the next session
// starts a completely new run.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	dataDir := flag.String("data", "logs", "data directory to wipe")
	force := flag.Bool("force", false, "skip the confirmation prompt")
	flag.Parse()

	if _, err := os.Stat(*dataDir); os.IsNotExist(err) {
		fmt.Println("📁 No data directory found - already starting fresh!")
		return
	}

	if !*force && !confirmWipe() {
		fmt.Println("❌ Cancelled - no files were deleted.")
		return
	}

	fmt.Println("🗑️ Wiping data...")
	deleted := wipeFiles(*dataDir)
	fmt.Printf("✨ Fresh start complete! Deleted %d file(s).\n", deleted)
}

func confirmWipe() bool {
	fmt.Println("⚠️ WARNING: This will delete ALL game progress and logs!")
	fmt.Println("   - Decision history")
	fmt.Println("   - Story logs")
	fmt.Println("   - Action history")
	fmt.Println("   - Session and log files")
	fmt.Print("Are you sure you want to continue? (type 'yes' to confirm): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.ToLower(strings.TrimSpace(scanner.Text())) == "yes"
}

func wipeFiles(dataDir string) int {
	targets := []string{
		filepath.Join(dataDir, "decision_history.json"),
		filepath.Join(dataDir, "story_log.json"),
		filepath.Join(dataDir, "session.jsonl"),
		filepath.Join(dataDir, "zelda_ai.log"),
	}
	if matches, err := filepath.Glob(filepath.Join(dataDir, "action_history_*.json")); err == nil {
		targets = append(targets, matches...)
	}

	deleted := 0
	for _, path := range targets {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("⏭️ Not found (already clean): %s\n", path)
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Printf("❌ Failed to delete %s: %v\n", path, err)
			continue
		}
		fmt.Printf("✅ Deleted: %s\n", path)
		deleted++
	}
	return deleted
}
