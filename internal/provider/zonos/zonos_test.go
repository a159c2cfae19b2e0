package zonos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgenlab/xgenaudio/internal/provider"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		model:          "Zyphra/Zonos-v0.1",
		device:         "cuda",
		defaultSpeaker: "default",
		httpc:          &http.Client{Timeout: time.Second},
		baseURL:        baseURL,
	}
}

func newFakeWorker(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSynthesize(t *testing.T) {
	var got synthesisPayload
	srv := newFakeWorker(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/synthesize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("RIFF-audio"))
	})

	c := newTestClient(srv.URL)
	audio, err := c.Synthesize(context.Background(), provider.SynthesisRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-audio"), audio)

	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "default", got.Speaker)
	assert.Equal(t, "en-us", got.Language)
	assert.Equal(t, "wav", got.OutputFormat)
	assert.Equal(t, provider.DefaultEmotion(), got.Emotion)
}

func TestSynthesizeCustomRequest(t *testing.T) {
	emotion := []float64{1, 0, 0, 0, 0, 0, 0, 0}

	var got synthesisPayload
	srv := newFakeWorker(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("audio"))
	})

	c := newTestClient(srv.URL)
	_, err := c.Synthesize(context.Background(), provider.SynthesisRequest{
		Text:         "hola",
		Speaker:      "maria",
		Language:     "es",
		OutputFormat: "mp3",
		Emotion:      emotion,
	})
	require.NoError(t, err)

	assert.Equal(t, "maria", got.Speaker)
	assert.Equal(t, "es", got.Language)
	assert.Equal(t, "mp3", got.OutputFormat)
	assert.Equal(t, emotion, got.Emotion)
}

func TestSynthesizeBadEmotionLength(t *testing.T) {
	c := newTestClient("http://localhost:1")

	_, err := c.Synthesize(context.Background(), provider.SynthesisRequest{
		Text:    "hi",
		Emotion: []float64{0.5, 0.5},
	})
	require.Error(t, err)

	var perr *provider.ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "8 emotion weights")
}

func TestSynthesizeUnsupportedFormat(t *testing.T) {
	c := newTestClient("http://localhost:1")

	_, err := c.Synthesize(context.Background(), provider.SynthesisRequest{Text: "hi", OutputFormat: "aiff"})
	assert.ErrorIs(t, err, provider.ErrUnsupportedFormat)
}

func TestSynthesizeNotInitialized(t *testing.T) {
	c := newTestClient("")

	_, err := c.Synthesize(context.Background(), provider.SynthesisRequest{Text: "hi"})
	assert.ErrorIs(t, err, provider.ErrNotInitialized)
}

func TestSynthesizeWorkerError(t *testing.T) {
	srv := newFakeWorker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	c := newTestClient(srv.URL)
	_, err := c.Synthesize(context.Background(), provider.SynthesisRequest{Text: "hi"})
	require.Error(t, err)

	var perr *provider.ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestAvailable(t *testing.T) {
	srv := newFakeWorker(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ctx := context.Background()
	assert.True(t, newTestClient(srv.URL).Available(ctx))
	assert.False(t, newTestClient("").Available(ctx))
	assert.False(t, newTestClient("http://localhost:1").Available(ctx))
}

func TestInfo(t *testing.T) {
	info := newTestClient("http://localhost:8123").Info()

	assert.Equal(t, Kind, info.Provider)
	assert.Equal(t, "Zyphra/Zonos-v0.1", info.Model)
	assert.True(t, info.Available)
	assert.Equal(t, "cuda", info.Extra["device"])
}

func TestCleanupIdempotent(t *testing.T) {
	c := newTestClient("http://localhost:8123")
	ctx := context.Background()

	require.NoError(t, c.Cleanup(ctx))
	assert.False(t, c.Available(ctx))
	require.NoError(t, c.Cleanup(ctx))
}

func TestNewDegradesOnMissingBinary(t *testing.T) {
	c, err := New(context.Background(), provider.Config{
		Provider: Kind,
		Fields:   map[string]string{"model": "Zyphra/Zonos-v0.1", "device": "cpu"},
		Extra:    map[string]any{"bin": "/nonexistent/zonos-server"},
	})
	require.NoError(t, err)
	assert.False(t, c.Available(context.Background()))
}
