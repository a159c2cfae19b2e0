package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xgenlab/xgenaudio/internal/env"
	"github.com/xgenlab/xgenaudio/internal/xfs"
)

// Options control logger construction.
type Options struct {
	logToFile  bool
	logFile    string
	maxSizeMB  int
	maxBackups int
}

// Option mutates logger Options.
type Option func(*Options)

// WithLogToFile enables writing log output to a rotated file in
// addition to the terminal.
func WithLogToFile(enabled bool) Option {
	return func(o *Options) { o.logToFile = enabled }
}

// WithLogFile sets the log file path used when file logging is enabled.
func WithLogFile(path string) Option {
	return func(o *Options) { o.logFile = path }
}

// WithRotation sets the rotation thresholds for the log file.
func WithRotation(maxSizeMB, maxBackups int) Option {
	return func(o *Options) {
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
	}
}

// New builds the application logger. Development gets a colorized tint
// handler at debug level; production gets plain output at info level.
// When file logging is enabled the output is duplicated into a
// lumberjack-rotated file.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	options := Options{
		logFile:    "logs/xgenaudio.log",
		maxSizeMB:  50,
		maxBackups: 5,
	}
	for _, opt := range opts {
		opt(&options)
	}

	level := slog.LevelInfo
	if environment.IsDevelopment() {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if options.logToFile {
		logFile := xfs.ExpandTilde(options.logFile)
		if err := xfs.EnsureParentDir(logFile); err != nil {
			slog.Warn("Failed to create log directory", "path", logFile, "error", err)
		}
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    options.maxSizeMB,
			MaxBackups: options.maxBackups,
			Compress:   true,
		})
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    !environment.IsDevelopment() || options.logToFile,
	})

	return slog.New(handler)
}
