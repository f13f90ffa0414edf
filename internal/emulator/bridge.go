package emulator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Bridge talks JSON over HTTP to a PyBoy sidecar process that owns the ROM.
// Every call maps to one endpoint; the sidecar serializes requests, so the
// bridge itself needs no locking.
type Bridge struct {
	base string
	hc   *http.Client
}

func NewBridge(baseURL string) *Bridge {
	return &Bridge{
		base: baseURL,
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

type tickResponse struct {
	Running bool `json:"running"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (b *Bridge) Tick() bool {
	var resp tickResponse
	if err := b.post("/tick", nil, &resp); err != nil {
		log.Printf("❌ emulator tick failed: %v", err)
		return false
	}
	return resp.Running
}

func (b *Bridge) PressButton(btn Button, holdFrames int) bool {
	if !btn.Valid() {
		log.Printf("❌ unknown button: %s", btn)
		return false
	}
	req := map[string]any{"button": string(btn), "hold_frames": holdFrames}
	var resp okResponse
	if err := b.post("/press", req, &resp); err != nil {
		log.Printf("❌ press %s failed: %v", btn, err)
		return false
	}
	return resp.OK
}

func (b *Bridge) ReleaseButton(btn Button) bool {
	if !btn.Valid() {
		log.Printf("❌ unknown button: %s", btn)
		return false
	}
	var resp okResponse
	if err := b.post("/release", map[string]any{"button": string(btn)}, &resp); err != nil {
		log.Printf("❌ release %s failed: %v", btn, err)
		return false
	}
	return resp.OK
}

func (b *Bridge) ReadState() (GameState, error) {
	var st GameState
	if err := b.get("/state", &st); err != nil {
		return GameState{}, fmt.Errorf("read state: %w", err)
	}
	return st, nil
}

// CaptureFrame returns the current screen as PNG bytes.
func (b *Bridge) CaptureFrame() ([]byte, error) {
	resp, err := b.hc.Get(b.base + "/frame")
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	defer func(c io.Closer) { _ = c.Close() }(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capture frame: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("capture frame: empty image")
	}
	return data, nil
}

func (b *Bridge) Close() error {
	return b.post("/shutdown", nil, &okResponse{})
}

func (b *Bridge) post(path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	resp, err := b.hc.Post(b.base+path, "application/json", rd)
	if err != nil {
		return err
	}
	defer func(c io.Closer) { _ = c.Close() }(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *Bridge) get(path string, out any) error {
	resp, err := b.hc.Get(b.base + path)
	if err != nil {
		return err
	}
	defer func(c io.Closer) { _ = c.Close() }(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
