// Package piper implements the TTS provider contract on top of the
// Piper CLI. Piper is stateless between calls, so the client shells out
// per synthesis instead of keeping a resident worker.
package piper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xgenlab/xgenaudio/internal/mapsafe"
	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/provider/engine"
)

// Kind is the provider identifier.
const Kind = "piper"

// Client synthesizes speech by running the Piper binary per call.
type Client struct {
	modelPath   string
	lengthScale float64
	tempDir     string

	mu       sync.Mutex
	executor *engine.Executor
}

// New builds a piper TTS client. Identity fields: model. Extra: bin
// (piper binary path), length_scale, timeout_sec.
func New(ctx context.Context, cfg provider.Config) (*Client, error) {
	c := &Client{
		modelPath:   cfg.Fields["model"],
		lengthScale: mapsafe.Get(cfg.Extra, "length_scale", 1.0),
		tempDir:     os.TempDir(),
	}

	bin := mapsafe.Get(cfg.Extra, "bin", "piper")
	timeout := time.Duration(mapsafe.Get(cfg.Extra, "timeout_sec", 30)) * time.Second

	executor, err := engine.NewExecutor(bin, timeout)
	if err != nil {
		slog.Error("Failed to prepare piper engine", "bin", bin, "error", err)
		return c, nil
	}
	c.executor = executor

	slog.Info("Piper TTS client ready", "model", c.modelPath)
	return c, nil
}

// Synthesize converts text to WAV audio bytes. Piper only writes to a
// file, so the output is staged through the temp dir and read back.
func (c *Client) Synthesize(ctx context.Context, req provider.SynthesisRequest) ([]byte, error) {
	c.mu.Lock()
	executor := c.executor
	c.mu.Unlock()

	if executor == nil {
		return nil, provider.ErrNotInitialized
	}
	if req.OutputFormat != "" && req.OutputFormat != "wav" {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedFormat, req.OutputFormat)
	}

	outputFile := filepath.Join(c.tempDir, fmt.Sprintf("piper_%d.wav", time.Now().UnixNano()))
	defer os.Remove(outputFile)

	args := []string{
		"--model", c.modelPath,
		"--output_file", outputFile,
	}
	if req.Speaker != "" {
		args = append(args, "--speaker", req.Speaker)
	}
	if c.lengthScale != 1.0 {
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", c.lengthScale))
	}

	_, stderr, err := executor.Execute(ctx, args, strings.NewReader(req.Text))
	if err != nil {
		return nil, &provider.ProcessingError{
			Op:  "synthesis",
			Err: fmt.Errorf("%w (stderr: %s)", err, strings.TrimSpace(string(stderr))),
		}
	}

	audio, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, &provider.ProcessingError{Op: "synthesis", Err: fmt.Errorf("failed to read audio file: %w", err)}
	}

	slog.Info("Speech synthesis completed", "bytes", len(audio))
	return audio, nil
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
			"length_scale": c.lengthScale,
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
	slog.Info("Piper TTS client cleaned up", "model", c.modelPath)
	return nil
}
