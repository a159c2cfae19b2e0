package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xgenlab/xgenaudio/internal/provider"
	"github.com/xgenlab/xgenaudio/internal/provider/whisper"
	"github.com/xgenlab/xgenaudio/internal/service"
)

type (
	TranscribeInput struct {
		Identity
		RawBody huma.MultipartFormFiles[struct {
			AudioFile   huma.FormFile `form:"audio_file" contentType:"audio/*,application/octet-stream" required:"true"`
			AudioFormat string        `form:"audio_format"`
		}]
	}

	TranscribeOutput struct {
		Body service.TranscriptionResult
	}

	STTStatusOutput struct {
		Body service.Status
	}

	RefreshOutput struct {
		Body struct {
			Message string `json:"message"`
		}
	}
)

// STTHandler handles HTTP requests for STT.
type STTHandler struct {
	service *service.STT
}

// NewSTTHandler creates a new STTHandler instance and registers its
// operations.
func NewSTTHandler(api huma.API, service *service.STT) *STTHandler {
	h := &STTHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "stt-transcribe",
		Method:        http.MethodPost,
		Path:          "/stt/transcribe",
		Summary:       "Transcribe an uploaded audio file",
		Tags:          []string{"stt"},
		DefaultStatus: http.StatusOK,
	}, h.handleTranscribe)

	huma.Register(api, huma.Operation{
		OperationID: "stt-status",
		Method:      http.MethodGet,
		Path:        "/stt/status",
		Summary:     "Live STT client status",
		Tags:        []string{"stt"},
	}, h.handleStatus)

	huma.Register(api, huma.Operation{
		OperationID: "stt-simple-status",
		Method:      http.MethodGet,
		Path:        "/stt/simple-status",
		Summary:     "Configured STT availability",
		Tags:        []string{"stt"},
	}, h.handleSimpleStatus)

	huma.Register(api, huma.Operation{
		OperationID: "stt-refresh",
		Method:      http.MethodPost,
		Path:        "/stt/refresh",
		Summary:     "Re-read STT configuration",
		Tags:        []string{"stt"},
	}, h.handleRefresh)

	return h
}

func (h *STTHandler) handleTranscribe(ctx context.Context, input *TranscribeInput) (*TranscribeOutput, error) {
	formData := input.RawBody.Data()
	audioFile := formData.AudioFile

	if !audioFile.IsSet {
		return nil, huma.Error400BadRequest("audio file is required", nil)
	}

	format := strings.ToLower(formData.AudioFormat)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(audioFile.Filename)), ".")
	}
	if format == "" {
		format = "wav"
	}
	if !supportedFormat(format) {
		return nil, huma.Error400BadRequest(
			fmt.Sprintf("unsupported audio format: %s. Supported formats: %v", format, whisper.SupportedFormats()), nil)
	}

	audio, err := io.ReadAll(audioFile)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read audio file", err)
	}
	if len(audio) == 0 {
		return nil, huma.Error400BadRequest("empty audio file", nil)
	}

	ac := input.Identity.auditContext("stt/transcribe", "transcribe_audio")

	result, err := h.service.Transcribe(ctx, ac, audio, format, audioFile.Filename)
	if err != nil {
		return nil, mapServiceError(err, "transcription")
	}

	return &TranscribeOutput{Body: result}, nil
}

func (h *STTHandler) handleStatus(ctx context.Context, _ *struct{}) (*STTStatusOutput, error) {
	return &STTStatusOutput{Body: h.service.Status(ctx)}, nil
}

func (h *STTHandler) handleSimpleStatus(ctx context.Context, _ *struct{}) (*STTStatusOutput, error) {
	return &STTStatusOutput{Body: h.service.SimpleStatus(ctx)}, nil
}

func (h *STTHandler) handleRefresh(ctx context.Context, input *struct{ Identity }) (*RefreshOutput, error) {
	ac := input.Identity.auditContext("stt/refresh", "refresh_stt")

	enabled, err := h.service.Refresh(ctx, ac)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to refresh STT configuration", err)
	}

	out := &RefreshOutput{}
	if enabled {
		out.Body.Message = "STT configuration refreshed successfully"
	} else {
		out.Body.Message = "STT service is disabled in configuration"
	}
	return out, nil
}

func supportedFormat(format string) bool {
	for _, f := range whisper.SupportedFormats() {
		if f == format {
			return true
		}
	}
	return false
}

func mapServiceError(err error, op string) error {
	var unsupported *provider.UnsupportedProviderError
	switch {
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, provider.ErrNotInitialized):
		return huma.Error503ServiceUnavailable(op+" service is not available", err)
	case errors.Is(err, provider.ErrUnsupportedFormat):
		return huma.Error400BadRequest(err.Error(), err)
	case errors.As(err, &unsupported):
		return huma.Error400BadRequest(err.Error(), err)
	default:
		return huma.Error500InternalServerError(op+" failed", err)
	}
}
