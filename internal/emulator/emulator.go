package emulator

// Button is one of the eight Game Boy inputs.
type Button string

const (
	ButtonUp     Button = "up"
	ButtonDown   Button = "down"
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonA      Button = "a"
	ButtonB      Button = "b"
	ButtonStart  Button = "start"
	ButtonSelect Button = "select"
)

var allButtons = map[Button]bool{
	ButtonUp:     true,
	ButtonDown:   true,
	ButtonLeft:   true,
	ButtonRight:  true,
	ButtonA:      true,
	ButtonB:      true,
	ButtonStart:  true,
	ButtonSelect: true,
}

func (b Button) Valid() bool { return allButtons[b] }

func (b Button) Directional() bool {
	switch b {
	case ButtonUp, ButtonDown, ButtonLeft, ButtonRight:
		return true
	}
	return false
}

// GameState is the snapshot read from emulator memory each decision cycle.
type GameState struct {
	Health       int    `json:"health"`
	Rupees       int    `json:"rupees"`
	Room         int    `json:"room"`
	PositionX    int    `json:"position_x"`
	PositionY    int    `json:"position_y"`
	Facing       string `json:"facing_direction"`
	InTextBox    bool   `json:"in_text_box"`
	InMenu       bool   `json:"in_menu"`
	TextDetected string `json:"text_detected,omitempty"`
}

// Emulator is the consumed tick/read/input surface of the emulation engine.
// Tick advances one frame and reports whether the session is still alive.
// PressButton holds the button for holdFrames frames and releases it; the
// frames spent holding advance the emulation.
type Emulator interface {
	Tick() bool
	PressButton(b Button, holdFrames int) bool
	ReleaseButton(b Button) bool
	ReadState() (GameState, error)
	CaptureFrame() ([]byte, error)
	Close() error
}
