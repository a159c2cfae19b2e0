package service

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/configstore"
	"github.com/xgenlab/xgenaudio/internal/provider"
)

type fakeSTT struct {
	mu        sync.Mutex
	available bool
	text      string
	err       error
	cleanups  int

	gotFormat string
}

func (f *fakeSTT) Available(ctx context.Context) bool { return f.available }

func (f *fakeSTT) Info() provider.Info {
	return provider.Info{
		Provider:  "whisper",
		Model:     "/models/ggml-small.bin",
		Available: f.available,
		Extra:     map[string]any{"api_key_configured": true},
	}
}

func (f *fakeSTT) Cleanup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	return nil
}

func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	f.gotFormat = format
	return f.text, f.err
}

func newConfigStore(t *testing.T) *configstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return configstore.New(rdb)
}

func setConfig(t *testing.T, cfg *configstore.Store, path string, value any, typ configstore.ValueType) {
	t.Helper()
	require.NoError(t, cfg.Set(context.Background(), path, value, typ, "", ""))
}

func newSTTService(t *testing.T, client *fakeSTT) (*STT, *[]provider.Config) {
	t.Helper()

	cfg := newConfigStore(t)
	setConfig(t, cfg, "stt.IS_AVAILABLE_STT", true, configstore.TypeBool)
	setConfig(t, cfg, "stt.STT_PROVIDER", "whisper", configstore.TypeString)
	setConfig(t, cfg, "stt.WHISPER_MODEL_PATH", "/models/ggml-small.bin", configstore.TypeString)
	setConfig(t, cfg, "stt.WHISPER_DEVICE", "cuda", configstore.TypeString)

	built := []provider.Config{}
	factory := provider.NewFactory[provider.STT]("stt")
	factory.Register("whisper", "Whisper STT", func(ctx context.Context, pc provider.Config) (provider.STT, error) {
		built = append(built, pc)
		return client, nil
	})

	svc := NewSTT(cfg, factory, auditlog.New(nil), BinPaths{Whisper: "/usr/bin/whisper-cli"})
	return svc, &built
}

func TestTranscribe(t *testing.T) {
	client := &fakeSTT{available: true, text: "hello world"}
	svc, built := newSTTService(t, client)
	ac := auditlog.Context{UserID: "42", Function: "transcribe_audio"}

	res, err := svc.Transcribe(context.Background(), ac, []byte("RIFF"), "wav", "clip.wav")
	require.NoError(t, err)

	assert.Equal(t, "hello world", res.Transcription)
	assert.Equal(t, "clip.wav", res.Filename)
	assert.Equal(t, "wav", res.AudioFormat)
	assert.Equal(t, "whisper", res.Provider)
	assert.Equal(t, "wav", client.gotFormat)

	require.Len(t, *built, 1)
	assert.Equal(t, "/models/ggml-small.bin", (*built)[0].Fields["model"])
	assert.Equal(t, "cuda", (*built)[0].Fields["device"])
	assert.Equal(t, "/usr/bin/whisper-cli", (*built)[0].Extra["bin"])
}

func TestTranscribeReusesClientAcrossCalls(t *testing.T) {
	client := &fakeSTT{available: true, text: "ok"}
	svc, built := newSTTService(t, client)
	ac := auditlog.Context{UserID: "42", Function: "transcribe_audio"}

	_, err := svc.Transcribe(context.Background(), ac, []byte("a"), "wav", "a.wav")
	require.NoError(t, err)
	_, err = svc.Transcribe(context.Background(), ac, []byte("b"), "wav", "b.wav")
	require.NoError(t, err)

	assert.Len(t, *built, 1, "unchanged config must not rebuild the client")
}

func TestTranscribeUnavailable(t *testing.T) {
	client := &fakeSTT{available: false}
	svc, _ := newSTTService(t, client)

	_, err := svc.Transcribe(context.Background(), auditlog.Context{}, []byte("a"), "wav", "a.wav")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTranscribeUnsupportedProvider(t *testing.T) {
	client := &fakeSTT{available: true}
	svc, _ := newSTTService(t, client)
	require.NoError(t, svc.cfg.UpdateByName(context.Background(), "STT_PROVIDER", "openai"))

	_, err := svc.Transcribe(context.Background(), auditlog.Context{}, []byte("a"), "wav", "a.wav")

	var unsupported *provider.UnsupportedProviderError
	assert.ErrorAs(t, err, &unsupported)
}

func TestStatus(t *testing.T) {
	client := &fakeSTT{available: true}
	svc, _ := newSTTService(t, client)

	st := svc.Status(context.Background())
	assert.True(t, st.Available)
	assert.Equal(t, "whisper", st.Provider)
	assert.Equal(t, "/models/ggml-small.bin", st.Model)
	assert.True(t, st.APIKeyConfigured)
}

func TestSimpleStatusReadsFlag(t *testing.T) {
	client := &fakeSTT{available: true}
	svc, built := newSTTService(t, client)
	ctx := context.Background()

	st := svc.SimpleStatus(ctx)
	assert.True(t, st.Available)
	assert.Equal(t, "whisper", st.Provider)
	assert.Empty(t, *built, "simple status must not build a client")

	require.NoError(t, svc.cfg.UpdateByName(ctx, "IS_AVAILABLE_STT", false))
	assert.False(t, svc.SimpleStatus(ctx).Available)
}

func TestRefreshDisabledDisposes(t *testing.T) {
	client := &fakeSTT{available: true, text: "ok"}
	svc, _ := newSTTService(t, client)
	ctx := context.Background()

	_, err := svc.Transcribe(ctx, auditlog.Context{}, []byte("a"), "wav", "a.wav")
	require.NoError(t, err)

	require.NoError(t, svc.cfg.UpdateByName(ctx, "IS_AVAILABLE_STT", false))

	enabled, err := svc.Refresh(ctx, auditlog.Context{})
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, 1, client.cleanups)
}

func TestRefreshEnabledRebuildsOnChange(t *testing.T) {
	client := &fakeSTT{available: true}
	svc, built := newSTTService(t, client)
	ctx := context.Background()

	enabled, err := svc.Refresh(ctx, auditlog.Context{})
	require.NoError(t, err)
	assert.True(t, enabled)
	require.Len(t, *built, 1)

	require.NoError(t, svc.cfg.UpdateByName(ctx, "WHISPER_DEVICE", "cpu"))

	enabled, err = svc.Refresh(ctx, auditlog.Context{})
	require.NoError(t, err)
	assert.True(t, enabled)
	require.Len(t, *built, 2)
	assert.Equal(t, "cpu", (*built)[1].Fields["device"])
}

func TestProviders(t *testing.T) {
	svc, _ := newSTTService(t, &fakeSTT{})
	assert.Equal(t, map[string]string{"whisper": "Whisper STT"}, svc.Providers())
}
