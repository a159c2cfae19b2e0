package provider

import "context"

// Info is a side-effect-free snapshot of a provider client. It must be
// safe to build even when the client is degraded.
type Info struct {
	Provider  string         `json:"provider"`
	Model     string         `json:"model"`
	Available bool           `json:"available"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Client is the capability shared by every provider backend.
type Client interface {
	// Available reports whether the client can serve requests. It
	// never returns an error; internal faults read as false.
	Available(ctx context.Context) bool

	// Info returns a snapshot of the client. It never fails; on
	// internal error it degrades to an unavailable shape.
	Info() Info

	// Cleanup releases all resources held by the client, including
	// accelerator-resident state. Safe on a partially-initialized or
	// already-cleaned-up instance.
	Cleanup(ctx context.Context) error
}

// STT is a speech-to-text provider client.
type STT interface {
	Client

	// Transcribe converts audio bytes in the given format to text.
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// TTS is a text-to-speech provider client.
type TTS interface {
	Client

	// Synthesize renders the request's text to audio bytes.
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// SynthesisRequest carries the parameters of one TTS operation.
type SynthesisRequest struct {
	Text         string
	Speaker      string
	Language     string
	OutputFormat string

	// Emotion holds the eight emotion weights in fixed order:
	// happiness, sadness, disgust, fear, surprise, anger, other,
	// neutral. A zero-value slice means provider defaults.
	Emotion []float64
}

// DefaultEmotion returns the default emotion weight vector.
func DefaultEmotion() []float64 {
	return []float64{0.3077, 0.0256, 0.0256, 0.0256, 0.0256, 0.0256, 0.2564, 0.3077}
}
