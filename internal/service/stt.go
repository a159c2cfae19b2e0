// Package service resolves provider configuration from the config
// store, drives the provider factories, and records audit events for
// every operation.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/configstore"
	"github.com/xgenlab/xgenaudio/internal/provider"
)

// BinPaths carries the engine binary locations from the bootstrap
// configuration.
type BinPaths struct {
	Whisper string
	Zonos   string
	Piper   string
}

// STT orchestrates speech-to-text operations.
type STT struct {
	cfg     *configstore.Store
	factory *provider.Factory[provider.STT]
	audit   *auditlog.Logger
	bins    BinPaths
}

// NewSTT creates the STT service.
func NewSTT(cfg *configstore.Store, factory *provider.Factory[provider.STT], audit *auditlog.Logger, bins BinPaths) *STT {
	return &STT{cfg: cfg, factory: factory, audit: audit, bins: bins}
}

// Enabled reads the runtime availability flag.
func (s *STT) Enabled(ctx context.Context) bool {
	return s.cfg.GetBool(ctx, "stt.IS_AVAILABLE_STT", false)
}

func (s *STT) resolveConfig(ctx context.Context) provider.Config {
	kind := strings.ToLower(s.cfg.GetString(ctx, "stt.STT_PROVIDER", "whisper"))

	cfg := provider.Config{
		Provider: kind,
		Fields:   map[string]string{},
		Extra:    map[string]any{},
	}

	if kind == "whisper" {
		cfg.Fields["model"] = s.cfg.GetString(ctx, "stt.WHISPER_MODEL_PATH", "")
		cfg.Fields["device"] = s.cfg.GetString(ctx, "stt.WHISPER_DEVICE", "cpu")
		cfg.Fields["api_key"] = s.cfg.GetString(ctx, "stt.STT_API_KEY", "")
		cfg.Extra["bin"] = s.bins.Whisper
	}

	return cfg
}

// TranscriptionResult is the outcome of one transcription.
type TranscriptionResult struct {
	Transcription string `json:"transcription"`
	Filename      string `json:"filename"`
	AudioFormat   string `json:"audio_format"`
	Provider      string `json:"provider"`
}

// Transcribe converts uploaded audio to text with the currently
// configured provider.
func (s *STT) Transcribe(ctx context.Context, ac auditlog.Context, audio []byte, format, filename string) (TranscriptionResult, error) {
	lease, err := s.factory.Acquire(ctx, s.resolveConfig(ctx))
	if err != nil {
		s.audit.Error(ctx, ac, "failed to acquire STT client", err, nil)
		return TranscriptionResult{}, err
	}
	defer lease.Release()

	client := lease.Client()
	if !client.Available(ctx) {
		s.audit.Error(ctx, ac, "STT service unavailable", nil, nil)
		return TranscriptionResult{}, ErrUnavailable
	}

	text, err := client.Transcribe(ctx, audio, format)
	if err != nil {
		s.audit.Error(ctx, ac, "transcription failed", err, map[string]any{
			"filename":     filename,
			"audio_format": format,
		})
		return TranscriptionResult{}, fmt.Errorf("transcription failed: %w", err)
	}

	s.audit.Success(ctx, ac, "audio transcribed", map[string]any{
		"filename":     filename,
		"audio_format": format,
		"chars":        len(text),
	})

	return TranscriptionResult{
		Transcription: text,
		Filename:      filename,
		AudioFormat:   format,
		Provider:      client.Info().Provider,
	}, nil
}

// Status describes the live client state.
type Status struct {
	Available        bool   `json:"available"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	Error            string `json:"error,omitempty"`
}

// Status acquires the configured client and reports its live state.
func (s *STT) Status(ctx context.Context) Status {
	lease, err := s.factory.Acquire(ctx, s.resolveConfig(ctx))
	if err != nil {
		return Status{Error: err.Error()}
	}
	defer lease.Release()

	client := lease.Client()
	info := client.Info()
	return Status{
		Available:        client.Available(ctx),
		Provider:         info.Provider,
		Model:            info.Model,
		APIKeyConfigured: extraBool(info, "api_key_configured"),
	}
}

// SimpleStatus reports configured availability without touching the
// factory, so it stays cheap even when no client is built.
func (s *STT) SimpleStatus(ctx context.Context) Status {
	return Status{
		Available: s.Enabled(ctx),
		Provider:  strings.ToLower(s.cfg.GetString(ctx, "stt.STT_PROVIDER", "whisper")),
		Model:     s.cfg.GetString(ctx, "stt.WHISPER_MODEL_PATH", ""),
	}
}

// Refresh re-reads the runtime configuration. An enabled service
// rebuilds its client when the configuration changed; a disabled one
// disposes it.
func (s *STT) Refresh(ctx context.Context, ac auditlog.Context) (bool, error) {
	if !s.Enabled(ctx) {
		s.factory.Dispose(ctx)
		s.audit.Info(ctx, ac, "STT service disabled in configuration", nil)
		return false, nil
	}

	lease, err := s.factory.Acquire(ctx, s.resolveConfig(ctx))
	if err != nil {
		s.audit.Error(ctx, ac, "failed to refresh STT client", err, nil)
		return true, err
	}
	lease.Release()

	s.audit.Info(ctx, ac, "STT configuration refreshed", nil)
	return true, nil
}

// Providers lists the registered provider kinds.
func (s *STT) Providers() map[string]string {
	return s.factory.Providers()
}

func extraBool(info provider.Info, key string) bool {
	if v, ok := info.Extra[key].(bool); ok {
		return v
	}
	return false
}
