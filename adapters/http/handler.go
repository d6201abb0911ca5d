package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/metrics"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/usecase"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const (
	// ErrorMarker prefixes the last fragment of a stream that failed.
	ErrorMarker = "[Error] "

	isoFormat = "2006-01-02T15:04:05.000000-07:00"
)

var bakuZone = time.FixedZone("Asia/Baku", 4*60*60)

// ChatService is what the relay routes need from the use case layer.
type ChatService interface {
	Answer(ctx context.Context, req domain.ChatRequest) (*domain.InferenceResponse, error)
	Stream(ctx context.Context, req domain.ChatRequest) <-chan domain.StreamEvent
	KnowledgeBase(ctx context.Context, query string) ([]domain.Passage, error)
	Provider() string
}

type Options struct {
	// StreamDefault applies when a request does not say whether to stream.
	StreamDefault bool
	// StrictStatus maps failures to HTTP status codes instead of 200.
	StrictStatus bool
}

type Handler struct {
	chat ChatService
	opts Options
	now  func() time.Time
}

func NewHandler(chat ChatService, opts Options) *Handler {
	return &Handler{chat: chat, opts: opts, now: time.Now}
}

type ChatRequest struct {
	Query  string `json:"query"`
	System string `json:"system"`
	Stream *bool  `json:"stream,omitempty"`
}

type KnowledgeBaseRequest struct {
	Query string `json:"query"`
}

type KnowledgeBaseResult struct {
	DocumentContent string `json:"documentContent"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	UTCTime  string `json:"utc_time"`
	BakuTime string `json:"baku_time"`
}

// Health reports liveness. Both timestamps come from the same instant.
func (h *Handler) Health(c echo.Context) error {
	now := h.now()
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		UTCTime:  now.UTC().Format(isoFormat),
		BakuTime: now.In(bakuZone).Format(isoFormat),
	})
}

func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(h.statusFor(domain.ErrInvalidBody), map[string]string{"error": domain.ErrInvalidBody.Error()})
	}

	stream := h.opts.StreamDefault
	if req.Stream != nil {
		stream = *req.Stream
	}

	chatReq := domain.ChatRequest{Query: req.Query, System: req.System}
	if stream {
		return h.streamChat(c, chatReq)
	}
	return h.answerChat(c, chatReq)
}

func (h *Handler) answerChat(c echo.Context, req domain.ChatRequest) error {
	ctx := c.Request().Context()
	start := time.Now()

	resp, err := h.chat.Answer(ctx, req)
	if err != nil {
		h.recordFailure(ctx, "blocking", err)
		metrics.RecordChat("blocking", "error", time.Since(start).Seconds())
		return c.JSON(h.statusFor(err), map[string]string{"error": domain.Describe(err)})
	}

	metrics.RecordChat("blocking", "ok", time.Since(start).Seconds())
	log.WithCtx(ctx).Info("chat answered",
		zap.String("mode", "blocking"),
		zap.String("provider", h.chat.Provider()),
		zap.Duration("latency", time.Since(start)),
	)
	return c.JSON(http.StatusOK, map[string]string{"response": string(resp.Raw)})
}

// streamChat writes each fragment as soon as it arrives. Once the body has
// started the status is fixed, so a failure becomes a final in-band fragment.
func (h *Handler) streamChat(c echo.Context, req domain.ChatRequest) error {
	ctx := c.Request().Context()
	start := time.Now()
	events := h.chat.Stream(ctx, req)

	first, ok := <-events
	if ok && first.Kind == domain.StreamError && h.opts.StrictStatus {
		h.recordFailure(ctx, "stream", first.Err)
		metrics.RecordChat("stream", "error", time.Since(start).Seconds())
		return c.JSON(h.statusFor(first.Err), map[string]string{"error": domain.Describe(first.Err)})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.WriteHeader(http.StatusOK)

	fragments := 0
	status := "ok"
	write := func(ev domain.StreamEvent) error {
		switch ev.Kind {
		case domain.StreamChunk:
			fragments++
			if _, err := res.Write([]byte(ev.Text)); err != nil {
				return err
			}
		case domain.StreamError:
			status = "error"
			h.recordFailure(ctx, "stream", ev.Err)
			if _, err := res.Write([]byte(ErrorMarker + domain.Describe(ev.Err))); err != nil {
				return err
			}
		}
		res.Flush()
		return nil
	}

	for ev := first; ok; ev, ok = <-events {
		if err := write(ev); err != nil {
			status = "disconnected"
			log.WithCtx(ctx).Warn("client went away mid-stream", zap.Int("fragments", fragments), zap.Error(err))
			break
		}
	}

	metrics.RecordChat("stream", status, time.Since(start).Seconds())
	metrics.RecordFragments(fragments)
	log.WithCtx(ctx).Info("chat streamed",
		zap.String("mode", "stream"),
		zap.String("provider", h.chat.Provider()),
		zap.String("status", status),
		zap.Int("fragments", fragments),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

func (h *Handler) KnowledgeBase(c echo.Context) error {
	var req KnowledgeBaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(h.statusFor(domain.ErrInvalidBody), map[string]string{"error": domain.ErrInvalidBody.Error()})
	}

	ctx := c.Request().Context()
	passages, err := h.chat.KnowledgeBase(ctx, req.Query)
	if err != nil {
		log.WithCtx(ctx).Error("knowledge base lookup failed", zap.Error(err))
		message := domain.Describe(err)
		if errors.Is(err, usecase.ErrRetrievalDisabled) {
			message = err.Error()
		}
		return c.JSON(h.statusFor(err), map[string]string{"error": message})
	}

	results := make([]KnowledgeBaseResult, 0, len(passages))
	for _, p := range passages {
		results = append(results, KnowledgeBaseResult{DocumentContent: p.Text})
	}
	return c.JSON(http.StatusOK, map[string][]KnowledgeBaseResult{"results": results})
}

func (h *Handler) recordFailure(ctx context.Context, mode string, err error) {
	if domain.IsProviderError(err) {
		metrics.RecordProviderError(h.chat.Provider(), string(domain.KindOf(err)))
		log.WithCtx(ctx).Error("provider error", zap.String("mode", mode), zap.Error(err))
		return
	}
	log.WithCtx(ctx).Error("unexpected error", zap.String("mode", mode), zap.Error(err))
}

func (h *Handler) statusFor(err error) int {
	if !h.opts.StrictStatus {
		return http.StatusOK
	}
	return StatusFor(err)
}

// StatusFor maps a relay failure to the status code used in strict mode.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrRetrievalDisabled):
		return http.StatusNotImplemented
	}

	switch domain.KindOf(err) {
	case domain.KindAuth:
		return http.StatusBadGateway
	case domain.KindThrottled, domain.KindQuota:
		return http.StatusTooManyRequests
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
