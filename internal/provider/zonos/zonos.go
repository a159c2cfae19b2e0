// Package zonos implements the TTS provider contract against a
// resident Zonos engine worker. The worker keeps the model loaded on
// the accelerator between calls, so disposing the client is what frees
// that memory.
package zonos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/xgenlab/xgenaudio/internal/mapsafe"
	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/provider/engine"
)

// Kind is the provider identifier.
const Kind = "zonos"

const (
	defaultPort     = 8123
	defaultLanguage = "en-us"
)

var supportedOutputFormats = map[string]bool{"wav": true, "mp3": true}

type synthesisPayload struct {
	Text         string    `json:"text"`
	Speaker      string    `json:"speaker"`
	Language     string    `json:"language"`
	OutputFormat string    `json:"output_format"`
	Emotion      []float64 `json:"emotion"`
}

// Client synthesizes speech through a Zonos worker process.
type Client struct {
	model          string
	device         string
	defaultSpeaker string

	httpc *http.Client

	mu      sync.Mutex
	worker  *engine.Worker
	baseURL string
}

// New builds a zonos TTS client and starts its worker. Identity
// fields: model, device. Extra: bin (worker binary path), port,
// default_speaker, ready_timeout_sec. A worker that fails to start
// degrades the client instead of failing construction.
func New(ctx context.Context, cfg provider.Config) (*Client, error) {
	c := &Client{
		model:          cfg.Fields["model"],
		device:         cfg.Fields["device"],
		defaultSpeaker: mapsafe.Get(cfg.Extra, "default_speaker", "default"),
		httpc:          &http.Client{Timeout: 120 * time.Second},
	}

	bin := mapsafe.Get(cfg.Extra, "bin", "zonos-server")
	port := mapsafe.Get(cfg.Extra, "port", defaultPort)
	readyTimeout := time.Duration(mapsafe.Get(cfg.Extra, "ready_timeout_sec", 60)) * time.Second

	worker, err := engine.StartWorker(ctx, engine.WorkerConfig{
		Name:    Kind,
		BinPath: bin,
		Args: []string{
			"--model", c.model,
			"--device", c.device,
			"--port", strconv.Itoa(port),
		},
		Port:         port,
		ReadyTimeout: readyTimeout,
	})
	if err != nil {
		slog.Error("Failed to start zonos worker", "bin", bin, "error", err)
		return c, nil
	}

	c.worker = worker
	c.baseURL = worker.BaseURL()

	slog.Info("Zonos TTS client ready", "model", c.model, "device", c.device, "port", port)
	return c, nil
}

// Synthesize converts text to audio bytes.
func (c *Client) Synthesize(ctx context.Context, req provider.SynthesisRequest) ([]byte, error) {
	c.mu.Lock()
	baseURL := c.baseURL
	c.mu.Unlock()

	if baseURL == "" {
		return nil, provider.ErrNotInitialized
	}

	format := req.OutputFormat
	if format == "" {
		format = "wav"
	}
	if !supportedOutputFormats[format] {
		return nil, fmt.Errorf("%w: %s", provider.ErrUnsupportedFormat, format)
	}

	emotion := req.Emotion
	if len(emotion) == 0 {
		emotion = provider.DefaultEmotion()
	}
	if len(emotion) != 8 {
		return nil, &provider.ProcessingError{
			Op:  "synthesis",
			Err: fmt.Errorf("expected 8 emotion weights, got %d", len(emotion)),
		}
	}

	speaker := req.Speaker
	if speaker == "" {
		speaker = c.defaultSpeaker
	}
	language := req.Language
	if language == "" {
		language = defaultLanguage
	}

	payload, err := json.Marshal(synthesisPayload{
		Text:         req.Text,
		Speaker:      speaker,
		Language:     language,
		OutputFormat: format,
		Emotion:      emotion,
	})
	if err != nil {
		return nil, &provider.ProcessingError{Op: "synthesis", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, &provider.ProcessingError{Op: "synthesis", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, &provider.ProcessingError{Op: "synthesis", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProcessingError{Op: "synthesis", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.ProcessingError{
			Op:  "synthesis",
			Err: fmt.Errorf("worker returned %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	slog.Info("Speech synthesis completed", "bytes", len(body), "format", format)
	return body, nil
}

// Available reports whether the worker responds to its health check.
func (c *Client) Available(ctx context.Context) bool {
	c.mu.Lock()
	baseURL := c.baseURL
	c.mu.Unlock()

	if baseURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Info returns a snapshot of the client.
func (c *Client) Info() provider.Info {
	c.mu.Lock()
	available := c.baseURL != ""
	c.mu.Unlock()

	return provider.Info{
		Provider:  Kind,
		Model:     c.model,
		Available: available,
		Extra: map[string]any{
			"device":          c.device,
			"default_speaker": c.defaultSpeaker,
		},
	}
}

// Cleanup stops the worker process, releasing its model memory. Safe on
// a partially initialized or already cleaned-up client.
func (c *Client) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	worker := c.worker
	c.worker = nil
	c.baseURL = ""
	c.mu.Unlock()

	if worker == nil {
		return nil
	}
	worker.Stop()
	slog.Info("Zonos TTS client cleaned up", "model", c.model)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
