package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgenlab/xgenaudio/internal/auditlog"
	"github.com/xgenlab/xgenaudio/internal/configstore"
	"github.com/xgenlab/xgenaudio/internal/provider"
)

type fakeTTS struct {
	mu        sync.Mutex
	available bool
	audio     []byte
	err       error
	cleanups  int

	gotReq provider.SynthesisRequest
}

func (f *fakeTTS) Available(ctx context.Context) bool { return f.available }

func (f *fakeTTS) Info() provider.Info {
	return provider.Info{Provider: "zonos", Model: "Zyphra/Zonos-v0.1-transformer", Available: f.available}
}

func (f *fakeTTS) Cleanup(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	return nil
}

func (f *fakeTTS) Synthesize(ctx context.Context, req provider.SynthesisRequest) ([]byte, error) {
	f.gotReq = req
	return f.audio, f.err
}

func newTTSService(t *testing.T, client *fakeTTS) (*TTS, *[]provider.Config) {
	t.Helper()

	cfg := newConfigStore(t)
	setConfig(t, cfg, "tts.IS_AVAILABLE_TTS", true, configstore.TypeBool)
	setConfig(t, cfg, "tts.TTS_PROVIDER", "zonos", configstore.TypeString)
	setConfig(t, cfg, "tts.ZONOS_MODEL_NAME", "Zyphra/Zonos-v0.1-transformer", configstore.TypeString)
	setConfig(t, cfg, "tts.ZONOS_DEVICE", "cuda", configstore.TypeString)
	setConfig(t, cfg, "tts.ZONOS_PORT", 9000, configstore.TypeInt)
	setConfig(t, cfg, "tts.TTS_DEFAULT_SPEAKER", "maria", configstore.TypeString)

	built := []provider.Config{}
	factory := provider.NewFactory[provider.TTS]("tts")
	factory.Register("zonos", "Zonos TTS", func(ctx context.Context, pc provider.Config) (provider.TTS, error) {
		built = append(built, pc)
		return client, nil
	})

	svc := NewTTS(cfg, factory, auditlog.New(nil), BinPaths{Zonos: "/usr/bin/zonos-server"})
	return svc, &built
}

func TestGenerate(t *testing.T) {
	client := &fakeTTS{available: true, audio: []byte("RIFF-audio")}
	svc, built := newTTSService(t, client)
	ac := auditlog.Context{UserID: "7", Function: "generate_speech"}

	audio, err := svc.Generate(context.Background(), ac, provider.SynthesisRequest{
		Text:         "buenos dias",
		OutputFormat: "wav",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-audio"), audio)

	assert.Equal(t, "ko", client.gotReq.Language, "language must default from configuration")
	assert.Equal(t, "buenos dias", client.gotReq.Text)

	require.Len(t, *built, 1)
	assert.Equal(t, "Zyphra/Zonos-v0.1-transformer", (*built)[0].Fields["model"])
	assert.Equal(t, "cuda", (*built)[0].Fields["device"])
	assert.Equal(t, "/usr/bin/zonos-server", (*built)[0].Extra["bin"])
	assert.Equal(t, 9000, (*built)[0].Extra["port"])
	assert.Equal(t, "maria", (*built)[0].Extra["default_speaker"])
}

func TestGenerateKeepsExplicitLanguage(t *testing.T) {
	client := &fakeTTS{available: true, audio: []byte("a")}
	svc, _ := newTTSService(t, client)

	_, err := svc.Generate(context.Background(), auditlog.Context{}, provider.SynthesisRequest{
		Text:     "hello",
		Language: "en-us",
	})
	require.NoError(t, err)
	assert.Equal(t, "en-us", client.gotReq.Language)
}

func TestGenerateUnavailable(t *testing.T) {
	client := &fakeTTS{available: false}
	svc, _ := newTTSService(t, client)

	_, err := svc.Generate(context.Background(), auditlog.Context{}, provider.SynthesisRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestInfo(t *testing.T) {
	client := &fakeTTS{available: true}
	svc, _ := newTTSService(t, client)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "zonos", info.Provider)
	assert.True(t, info.Available)
}

func TestTTSSimpleStatus(t *testing.T) {
	client := &fakeTTS{available: true}
	svc, built := newTTSService(t, client)

	st := svc.SimpleStatus(context.Background())
	assert.True(t, st.Available)
	assert.Equal(t, "zonos", st.Provider)
	assert.Equal(t, "Zyphra/Zonos-v0.1-transformer", st.Model)
	assert.Empty(t, *built)
}

func TestTTSRefreshDisabledDisposes(t *testing.T) {
	client := &fakeTTS{available: true, audio: []byte("a")}
	svc, _ := newTTSService(t, client)
	ctx := context.Background()

	_, err := svc.Generate(ctx, auditlog.Context{}, provider.SynthesisRequest{Text: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.cfg.UpdateByName(ctx, "IS_AVAILABLE_TTS", false))

	enabled, err := svc.Refresh(ctx, auditlog.Context{})
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, 1, client.cleanups)
}

func TestPiperConfigResolution(t *testing.T) {
	cfg := newConfigStore(t)
	setConfig(t, cfg, "tts.IS_AVAILABLE_TTS", true, configstore.TypeBool)
	setConfig(t, cfg, "tts.TTS_PROVIDER", "piper", configstore.TypeString)
	setConfig(t, cfg, "tts.PIPER_MODEL_PATH", "/models/es_MX.onnx", configstore.TypeString)

	client := &fakeTTS{available: true, audio: []byte("a")}
	built := []provider.Config{}
	factory := provider.NewFactory[provider.TTS]("tts")
	factory.Register("piper", "Piper TTS", func(ctx context.Context, pc provider.Config) (provider.TTS, error) {
		built = append(built, pc)
		return client, nil
	})
	svc := NewTTS(cfg, factory, auditlog.New(nil), BinPaths{Piper: "/usr/bin/piper"})

	_, err := svc.Generate(context.Background(), auditlog.Context{}, provider.SynthesisRequest{Text: "x"})
	require.NoError(t, err)

	require.Len(t, built, 1)
	assert.Equal(t, "/models/es_MX.onnx", built[0].Fields["model"])
	assert.Equal(t, "/usr/bin/piper", built[0].Extra["bin"])

	st := svc.SimpleStatus(context.Background())
	assert.Equal(t, "piper", st.Provider)
	assert.Equal(t, "/models/es_MX.onnx", st.Model)
}
