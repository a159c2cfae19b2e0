// Package engine runs provider inference binaries as subprocesses. The
// actual model code is opaque to this repository; providers stage audio
// or text through temporary files and shell out to an engine binary.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// CommandRunner is the interface for running commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecCommandRunner uses os/exec.
type ExecCommandRunner struct{}

// Run runs a command.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	stdout, stderr, err = outBuf.Bytes(), errBuf.Bytes(), cmd.Run()
	return stdout, stderr, err
}

// Executor runs one engine binary with a per-call timeout.
type Executor struct {
	runner     CommandRunner
	binaryPath string
	timeout    time.Duration
}

// NewExecutor creates an executor after verifying the binary exists.
func NewExecutor(binaryPath string, timeout time.Duration) (*Executor, error) {
	if _, err := os.Stat(binaryPath); err != nil {
		return nil, fmt.Errorf("engine binary not found: %w", err)
	}

	return &Executor{
		binaryPath: binaryPath,
		timeout:    timeout,
		runner:     ExecCommandRunner{},
	}, nil
}

// NewExecutorWithRunner creates an executor with a custom runner.
func NewExecutorWithRunner(binaryPath string, timeout time.Duration, runner CommandRunner) *Executor {
	return &Executor{
		binaryPath: binaryPath,
		timeout:    timeout,
		runner:     runner,
	}
}

// BinaryPath returns the engine binary path.
func (e *Executor) BinaryPath() string {
	return e.binaryPath
}

// Execute runs the engine and returns its output.
func (e *Executor) Execute(ctx context.Context, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.runner.Run(ctx, e.binaryPath, args, stdin)
}

// StageTemp writes data to a temporary file with the given extension
// and returns its path together with a cleanup func. Callers must
// invoke cleanup even when the engine call fails, so staged input never
// leaks.
func StageTemp(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "xgenaudio-*."+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to stage temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}
