package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"zelda-ai/internal/emulator"
)

func decisionPrompt(state emulator.GameState, historyContext any) string {
	var b strings.Builder

	b.WriteString(`You are playing The Legend of Zelda on Game Boy. Analyze the current screen and create a sequence of button presses to achieve your goals.

Current Game State:
`)
	fmt.Fprintf(&b, "- Health: %d\n", state.Health)
	fmt.Fprintf(&b, "- Rupees: %d\n", state.Rupees)
	fmt.Fprintf(&b, "- Room: %d\n", state.Room)
	fmt.Fprintf(&b, "- Position: (%d, %d)\n", state.PositionX, state.PositionY)
	fmt.Fprintf(&b, "- In Text Box: %t\n", state.InTextBox)
	fmt.Fprintf(&b, "- In Menu: %t\n", state.InMenu)

	if historyContext != nil {
		if data, err := json.MarshalIndent(historyContext, "", "  "); err == nil {
			b.WriteString("\nHistory context (recent decisions, story events, known NPCs, current plan):\n")
			b.Write(data)
			b.WriteString("\n")
		}
	}

	b.WriteString(`
IMPORTANT: If "In Text Box" is true, you MUST press 'a' to advance the dialogue. Do NOT try to move or do other actions.
If the history context contains "npc_repeat" events, avoid talking to those NPCs again.

Available Game Boy Buttons:
- up, down, left, right: Move Link
- a: Sword attack, interact with objects/NPCs
- b: Use equipped item, cancel
- start: Open pause menu
- select: Open item menu

Create a sequence of button presses (2-5 actions). Each action specifies:
- button: The button to press
- duration: How long to hold it (in frames, 60fps = 1 second)
- delay: Wait time after releasing (in frames)

Respond with a JSON object containing:
1. "sequence": Array of button actions [{"button": "right", "duration": 15, "delay": 5}, ...]
2. "reasoning": Brief explanation of the strategy
3. "confidence": Confidence level from 0.0 to 1.0
4. "goals": List of 2-3 immediate goals you're trying to achieve
5. "screen_text": Any dialogue or text you can read on screen (empty string if none)

Focus on:
- Avoiding enemies and obstacles
- Collecting items and rupees
- Progressing through the game
- Exploring new areas
- ADVANCING DIALOGUE when in text boxes

CRITICAL RULES:
1. If "In Text Box" is true: ONLY press 'a' to advance dialogue
2. If "In Menu" is true: Use appropriate menu navigation
3. Never try to move when in dialogue or menus

Note: Use shorter durations (10-15 frames) for movement buttons for more responsive control.

Respond ONLY with valid JSON, no other text.
`)
	return b.String()
}

func planPrompt(state emulator.GameState, recentStory, currentGoal string) string {
	var b strings.Builder

	b.WriteString(`You are the strategist for an AI playing The Legend of Zelda on Game Boy. Based on the game state and recent story, produce a short strategic plan for the next few minutes of play.

Current Game State:
`)
	fmt.Fprintf(&b, "- Health: %d, Rupees: %d, Room: %d, Position: (%d, %d)\n",
		state.Health, state.Rupees, state.Room, state.PositionX, state.PositionY)

	if currentGoal != "" {
		fmt.Fprintf(&b, "\nPrevious goal: %s\n", currentGoal)
	}
	if recentStory != "" {
		b.WriteString("\nRecent story events:\n")
		b.WriteString(recentStory)
		b.WriteString("\n")
	}

	b.WriteString(`
Respond with a JSON object containing:
1. "goal": One sentence describing the overall objective
2. "steps": List of 2-4 concrete steps toward that goal
3. "reasoning": Brief justification

Respond ONLY with valid JSON, no other text.
`)
	return b.String()
}
