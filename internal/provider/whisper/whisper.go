// Package whisper implements the STT provider contract on top of a
// whisper.cpp engine binary.
package whisper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xgenlab/xgenaudio/internal/mapsafe"
	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/provider/engine"
)

// Kind is the provider identifier.
const Kind = "whisper"

var supportedFormats = map[string]bool{
	"wav": true, "mp3": true, "flac": true, "m4a": true,
	"ogg": true, "webm": true, "mp4": true,
}

// SupportedFormats returns the accepted input audio formats.
func SupportedFormats() []string {
	return []string{"wav", "mp3", "flac", "m4a", "ogg", "webm", "mp4"}
}

// Client transcribes audio by shelling out to whisper.cpp. A client
// whose engine could not be prepared stays constructible but reports
// unavailable and fails Transcribe with ErrNotInitialized, matching the
// degrade-don't-crash policy of the HTTP surface.
type Client struct {
	modelPath string
	device    string
	apiKey    string

	mu       sync.Mutex
	executor *engine.Executor
}

// New builds a whisper STT client from a resolved provider config.
// Identity fields: model, device, api_key. Extra: bin (engine binary
// path), timeout_sec.
func New(ctx context.Context, cfg provider.Config) (*Client, error) {
	c := &Client{
		modelPath: cfg.Fields["model"],
		device:    cfg.Fields["device"],
		apiKey:    cfg.Fields["api_key"],
	}

	bin := mapsafe.Get(cfg.Extra, "bin", "whisper-cli")
	timeout := time.Duration(mapsafe.Get(cfg.Extra, "timeout_sec", 120)) * time.Second

	executor, err := engine.NewExecutor(bin, timeout)
	if err != nil {
		// Missing engine binary degrades the client instead of
		// failing construction; the status endpoints report it.
		slog.Error("Failed to prepare whisper engine", "bin", bin, "error", err)
		return c, nil
	}
	c.executor = executor

	slog.Info("Whisper STT client ready", "model", c.modelPath, "device", c.device)
	return c, nil
}

// Transcribe converts audio bytes to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	c.mu.Lock()
	executor := c.executor
	c.mu.Unlock()

	if executor == nil {
		return "", provider.ErrNotInitialized
	}
	if !supportedFormats[format] {
		return "", fmt.Errorf("%w: %s", provider.ErrUnsupportedFormat, format)
	}

	path, cleanup, err := engine.StageTemp(audio, format)
	if err != nil {
		return "", &provider.ProcessingError{Op: "transcription", Err: err}
	}
	defer cleanup()

	args := []string{"-m", c.modelPath, "-f", path, "--no-timestamps"}
	if c.device == "cpu" {
		args = append(args, "--no-gpu")
	}

	stdout, stderr, err := executor.Execute(ctx, args, nil)
	if err != nil {
		return "", &provider.ProcessingError{
			Op:  "transcription",
			Err: fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(string(stderr))),
		}
	}

	transcription := strings.TrimSpace(string(stdout))
	slog.Info("Audio transcription completed", "chars", len(transcription))
	return transcription, nil
}

// Available reports whether the engine is ready.
func (c *Client) Available(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executor != nil
}

// Info returns a snapshot of the client.
func (c *Client) Info() provider.Info {
	c.mu.Lock()
	available := c.executor != nil
	c.mu.Unlock()

	return provider.Info{
		Provider:  Kind,
		Model:     c.modelPath,
		Available: available,
		Extra: map[string]any{
			"device":             c.device,
			"api_key_configured": c.apiKey != "",
		},
	}
}

// Cleanup releases the engine reference. Safe on a partially
// initialized or already cleaned-up client.
func (c *Client) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.executor == nil {
		return nil
	}
	c.executor = nil
	slog.Info("Whisper STT client cleaned up", "model", c.modelPath)
	return nil
}
