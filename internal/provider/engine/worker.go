package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

// WorkerConfig defines how to start and health-check a resident engine
// process.
type WorkerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// Worker is a resident engine process serving inference over a local
// HTTP port. Unlike Executor, the process outlives individual calls and
// keeps its model loaded; stopping the worker is what releases that
// state.
type Worker struct {
	name   string
	port   int
	cmd    *exec.Cmd
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// StartWorker launches the process and blocks until its health endpoint
// responds or the ready timeout expires.
func StartWorker(ctx context.Context, cfg WorkerConfig) (*Worker, error) {
	if info, err := os.Stat(cfg.BinPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("engine: failed to start %s worker: binary not found at %s", cfg.Name, cfg.BinPath)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.BinPath, cfg.Args...)

	if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("engine: failed to start %s worker: %w", cfg.Name, err)
	}

	w := &Worker{name: cfg.Name, port: cfg.Port, cmd: cmd, cancel: cancel}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	if err := waitForWorker(ctx, w.BaseURL()+healthPath, timeout); err != nil {
		w.Stop()
		return nil, fmt.Errorf("engine: %s worker did not become ready: %w", cfg.Name, err)
	}

	slog.Info("Engine worker started", "name", cfg.Name, "port", cfg.Port)
	return w, nil
}

// BaseURL returns the worker's local HTTP endpoint.
func (w *Worker) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", w.port)
}

// Stop terminates the worker process. Safe to call more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true

	w.cancel()
	if err := w.cmd.Process.Kill(); err != nil {
		slog.Error("Failed to kill worker process", "name", w.name, "error", err)
	}
	// Reap the process so it does not linger as a zombie.
	_ = w.cmd.Wait()

	slog.Info("Engine worker stopped", "name", w.name, "port", w.port)
}

// waitForWorker polls the health URL until it returns 200 OK.
func waitForWorker(ctx context.Context, url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return fmt.Errorf("worker failed to respond at %s within %v", url, timeout)
}
