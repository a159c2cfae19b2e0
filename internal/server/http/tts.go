package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/service"
)

type (
	// GenerateRequestDTO carries the synthesis parameters. The eight
	// emotion weights default independently, in the fixed order
	// happiness, sadness, disgust, fear, surprise, anger, other,
	// neutral.
	GenerateRequestDTO struct {
		Text         string `json:"text" minLength:"1" required:"true"`
		Speaker      string `json:"speaker,omitempty"`
		OutputFormat string `json:"output_format,omitempty"`

		Happiness *float64 `json:"happiness,omitempty"`
		Sadness   *float64 `json:"sadness,omitempty"`
		Disgust   *float64 `json:"disgust,omitempty"`
		Fear      *float64 `json:"fear,omitempty"`
		Surprise  *float64 `json:"surprise,omitempty"`
		Anger     *float64 `json:"anger,omitempty"`
		Other     *float64 `json:"other,omitempty"`
		Neutral   *float64 `json:"neutral,omitempty"`
	}

	GenerateInput struct {
		Identity
		Body GenerateRequestDTO
	}

	GenerateOutput struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}

	TTSInfoOutput struct {
		Body provider.Info
	}

	TTSStatusOutput struct {
		Body service.Status
	}
)

// TTSHandler handles HTTP requests for TTS.
type TTSHandler struct {
	service *service.TTS
}

// NewTTSHandler creates a new TTSHandler instance and registers its
// operations.
func NewTTSHandler(api huma.API, service *service.TTS) *TTSHandler {
	h := &TTSHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "tts-generate",
		Method:        http.MethodPost,
		Path:          "/tts/generate",
		Summary:       "Synthesize speech from text",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
	}, h.handleGenerate)

	huma.Register(api, huma.Operation{
		OperationID: "tts-info",
		Method:      http.MethodGet,
		Path:        "/tts/info",
		Summary:     "TTS provider information",
		Tags:        []string{"tts"},
	}, h.handleInfo)

	huma.Register(api, huma.Operation{
		OperationID: "tts-simple-status",
		Method:      http.MethodGet,
		Path:        "/tts/simple-status",
		Summary:     "Configured TTS availability",
		Tags:        []string{"tts"},
	}, h.handleSimpleStatus)

	huma.Register(api, huma.Operation{
		OperationID: "tts-refresh",
		Method:      http.MethodPost,
		Path:        "/tts/refresh",
		Summary:     "Re-read TTS configuration",
		Tags:        []string{"tts"},
	}, h.handleRefresh)

	return h
}

func (h *TTSHandler) handleGenerate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	dto := input.Body

	format := strings.ToLower(dto.OutputFormat)
	if format == "" {
		format = "wav"
	}

	ac := input.Identity.auditContext("tts/generate", "generate_speech")

	audio, err := h.service.Generate(ctx, ac, provider.SynthesisRequest{
		Text:         dto.Text,
		Speaker:      dto.Speaker,
		OutputFormat: format,
		Emotion:      emotionVector(dto),
	})
	if err != nil {
		return nil, mapServiceError(err, "speech generation")
	}

	return &GenerateOutput{
		ContentType:        mediaType(format),
		ContentDisposition: fmt.Sprintf("attachment; filename=generated_speech.%s", format),
		Body:               audio,
	}, nil
}

func (h *TTSHandler) handleInfo(ctx context.Context, _ *struct{}) (*TTSInfoOutput, error) {
	info, err := h.service.Info(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to retrieve TTS service information", err)
	}
	return &TTSInfoOutput{Body: info}, nil
}

func (h *TTSHandler) handleSimpleStatus(ctx context.Context, _ *struct{}) (*TTSStatusOutput, error) {
	return &TTSStatusOutput{Body: h.service.SimpleStatus(ctx)}, nil
}

func (h *TTSHandler) handleRefresh(ctx context.Context, input *struct{ Identity }) (*RefreshOutput, error) {
	ac := input.Identity.auditContext("tts/refresh", "refresh_tts")

	enabled, err := h.service.Refresh(ctx, ac)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to refresh TTS configuration", err)
	}

	out := &RefreshOutput{}
	if enabled {
		out.Body.Message = "TTS configuration refreshed successfully"
	} else {
		out.Body.Message = "TTS service is disabled in configuration"
	}
	return out, nil
}

// emotionVector fills unset weights with their defaults.
func emotionVector(d GenerateRequestDTO) []float64 {
	defaults := provider.DefaultEmotion()
	fields := []*float64{d.Happiness, d.Sadness, d.Disgust, d.Fear, d.Surprise, d.Anger, d.Other, d.Neutral}

	out := make([]float64, len(fields))
	for i, f := range fields {
		if f != nil {
			out[i] = *f
		} else {
			out[i] = defaults[i]
		}
	}
	return out
}

func mediaType(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
