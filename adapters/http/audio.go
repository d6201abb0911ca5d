package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

type AudioHandler struct {
	tts domain.Synthesizer
	stt domain.Transcriber
}

func NewAudioHandler(tts domain.Synthesizer, stt domain.Transcriber) *AudioHandler {
	return &AudioHandler{tts: tts, stt: stt}
}

type SpeechRequest struct {
	Text string `json:"text"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

// Speech reads an answer aloud as MP3.
func (h *AudioHandler) Speech(c echo.Context) error {
	var req SpeechRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	ctx := c.Request().Context()
	audio, err := h.tts.Synthesize(ctx, req.Text)
	if err != nil {
		log.WithCtx(ctx).Error("speech synthesis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to synthesize speech")
	}

	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// Transcribe turns an uploaded LINEAR16 recording into text.
func (h *AudioHandler) Transcribe(c echo.Context) error {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "audio/") && !strings.HasPrefix(contentType, echo.MIMEOctetStream) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content type. Expected audio/* or application/octet-stream")
	}

	ctx := c.Request().Context()
	audio, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.WithCtx(ctx).Warn("reading audio upload failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read audio")
	}
	if len(audio) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "audio is required")
	}

	text, err := h.stt.Transcribe(ctx, audio)
	if err != nil {
		log.WithCtx(ctx).Error("transcription failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to transcribe audio")
	}

	return c.JSON(http.StatusOK, TranscriptionResponse{Text: text})
}
