package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/configstore"
	"github.com/xgenlab/xgenaudio/internal/provider"
)

// TTS orchestrates text-to-speech operations.
type TTS struct {
	cfg     *configstore.Store
	factory *provider.Factory[provider.TTS]
	audit   *auditlog.Logger
	bins    BinPaths
}

// NewTTS creates the TTS service.
func NewTTS(cfg *configstore.Store, factory *provider.Factory[provider.TTS], audit *auditlog.Logger, bins BinPaths) *TTS {
	return &TTS{cfg: cfg, factory: factory, audit: audit, bins: bins}
}

// Enabled reads the runtime availability flag.
func (t *TTS) Enabled(ctx context.Context) bool {
	return t.cfg.GetBool(ctx, "tts.IS_AVAILABLE_TTS", false)
}

func (t *TTS) resolveConfig(ctx context.Context) provider.Config {
	kind := strings.ToLower(t.cfg.GetString(ctx, "tts.TTS_PROVIDER", "zonos"))

	cfg := provider.Config{
		Provider: kind,
		Fields:   map[string]string{},
		Extra:    map[string]any{},
	}

	switch kind {
	case "zonos":
		cfg.Fields["model"] = t.cfg.GetString(ctx, "tts.ZONOS_MODEL_NAME", "Zyphra/Zonos-v0.1-transformer")
		cfg.Fields["device"] = t.cfg.GetString(ctx, "tts.ZONOS_DEVICE", "cpu")
		cfg.Extra["bin"] = t.bins.Zonos
		cfg.Extra["port"] = t.cfg.GetValue(ctx, "tts.ZONOS_PORT", 8123)
		cfg.Extra["default_speaker"] = t.cfg.GetString(ctx, "tts.TTS_DEFAULT_SPEAKER", "default")
	case "piper":
		cfg.Fields["model"] = t.cfg.GetString(ctx, "tts.PIPER_MODEL_PATH", "")
		cfg.Extra["bin"] = t.bins.Piper
		cfg.Extra["length_scale"] = t.cfg.GetValue(ctx, "tts.PIPER_LENGTH_SCALE", 1.0)
	}

	return cfg
}

// Generate renders text to audio with the currently configured
// provider. The request language defaults from configuration when
// unset.
func (t *TTS) Generate(ctx context.Context, ac auditlog.Context, req provider.SynthesisRequest) ([]byte, error) {
	if req.Language == "" {
		req.Language = t.cfg.GetString(ctx, "tts.TTS_LANGUAGE", "ko")
	}

	lease, err := t.factory.Acquire(ctx, t.resolveConfig(ctx))
	if err != nil {
		t.audit.Error(ctx, ac, "failed to acquire TTS client", err, nil)
		return nil, err
	}
	defer lease.Release()

	client := lease.Client()
	if !client.Available(ctx) {
		t.audit.Error(ctx, ac, "TTS service unavailable", nil, nil)
		return nil, ErrUnavailable
	}

	audio, err := client.Synthesize(ctx, req)
	if err != nil {
		t.audit.Error(ctx, ac, "speech generation failed", err, map[string]any{
			"output_format": req.OutputFormat,
			"text_len":      len(req.Text),
		})
		return nil, fmt.Errorf("speech generation failed: %w", err)
	}

	t.audit.Success(ctx, ac, "speech generated", map[string]any{
		"output_format": req.OutputFormat,
		"text_len":      len(req.Text),
		"audio_bytes":   len(audio),
	})
	return audio, nil
}

// Info acquires the configured client and returns its snapshot plus
// live availability.
func (t *TTS) Info(ctx context.Context) (provider.Info, error) {
	lease, err := t.factory.Acquire(ctx, t.resolveConfig(ctx))
	if err != nil {
		return provider.Info{}, err
	}
	defer lease.Release()

	client := lease.Client()
	info := client.Info()
	info.Available = client.Available(ctx)
	return info, nil
}

// SimpleStatus reports configured availability without touching the
// factory.
func (t *TTS) SimpleStatus(ctx context.Context) Status {
	kind := strings.ToLower(t.cfg.GetString(ctx, "tts.TTS_PROVIDER", "zonos"))
	model := t.cfg.GetString(ctx, "tts.ZONOS_MODEL_NAME", "")
	if kind == "piper" {
		model = t.cfg.GetString(ctx, "tts.PIPER_MODEL_PATH", "")
	}

	return Status{
		Available: t.Enabled(ctx),
		Provider:  kind,
		Model:     model,
	}
}

// Refresh re-reads the runtime configuration, rebuilding or disposing
// the client to match.
func (t *TTS) Refresh(ctx context.Context, ac auditlog.Context) (bool, error) {
	if !t.Enabled(ctx) {
		t.factory.Dispose(ctx)
		t.audit.Info(ctx, ac, "TTS service disabled in configuration", nil)
		return false, nil
	}

	lease, err := t.factory.Acquire(ctx, t.resolveConfig(ctx))
	if err != nil {
		t.audit.Error(ctx, ac, "failed to refresh TTS client", err, nil)
		return true, err
	}
	lease.Release()

	t.audit.Info(ctx, ac, "TTS configuration refreshed", nil)
	return true, nil
}

// Providers lists the registered provider kinds.
func (t *TTS) Providers() map[string]string {
	return t.factory.Providers()
}
