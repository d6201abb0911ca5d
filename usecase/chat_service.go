package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const (
	FailureModeSkip   = "skip"
	FailureModeMarker = "marker"

	// RetrievalUnavailable replaces the knowledge base context when lookup
	// fails and the marker failure mode is active.
	RetrievalUnavailable = "retrieval unavailable"

	knowledgeBaseLabel = "\n\n[KnowledgeBase]:\n"
)

var ErrRetrievalDisabled = errors.New("knowledge base retrieval is disabled")

type ChatService struct {
	llm         domain.Llm
	retriever   domain.Retriever
	topK        int
	failureMode string
	maxTokens   int
	temperature float64

	onRetrieval func(status string)
}

type Option func(*ChatService)

// WithRetriever enables augmentation with the top k passages for each query.
func WithRetriever(r domain.Retriever, topK int) Option {
	return func(s *ChatService) {
		s.retriever = r
		if topK > 0 {
			s.topK = topK
		}
	}
}

func WithFailureMode(mode string) Option {
	return func(s *ChatService) { s.failureMode = mode }
}

func WithGeneration(maxTokens int, temperature float64) Option {
	return func(s *ChatService) {
		s.maxTokens = maxTokens
		s.temperature = temperature
	}
}

// WithRetrievalObserver is told "ok", "empty" or "error" after each lookup.
func WithRetrievalObserver(fn func(status string)) Option {
	return func(s *ChatService) { s.onRetrieval = fn }
}

func NewChatService(gen domain.Llm, opts ...Option) *ChatService {
	s := &ChatService{
		llm:         gen,
		topK:        3,
		failureMode: FailureModeSkip,
		maxTokens:   300,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ChatService) Provider() string { return s.llm.Name() }

// Answer runs retrieval and then one blocking inference call.
func (s *ChatService) Answer(ctx context.Context, req domain.ChatRequest) (*domain.InferenceResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	return s.llm.Generate(ctx, s.inferenceRequest(ctx, req))
}

// Stream runs retrieval and then relays the provider stream untouched.
func (s *ChatService) Stream(ctx context.Context, req domain.ChatRequest) <-chan domain.StreamEvent {
	if strings.TrimSpace(req.Query) == "" {
		events := make(chan domain.StreamEvent, 1)
		events <- domain.Failure(domain.ErrEmptyQuery)
		close(events)
		return events
	}
	return s.llm.GenerateStream(ctx, s.inferenceRequest(ctx, req))
}

// KnowledgeBase exposes the raw passages for a query.
func (s *ChatService) KnowledgeBase(ctx context.Context, query string) ([]domain.Passage, error) {
	if s.retriever == nil {
		return nil, ErrRetrievalDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	return s.retriever.Retrieve(ctx, query, s.topK)
}

func (s *ChatService) inferenceRequest(ctx context.Context, req domain.ChatRequest) domain.InferenceRequest {
	return domain.InferenceRequest{
		Messages:    []domain.ChatMessage{{Role: domain.UserRole, Content: s.Prompt(ctx, req.Query)}},
		System:      req.System,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}
}

// Prompt returns the text sent as the user turn. Retrieval failures never
// abort the request.
func (s *ChatService) Prompt(ctx context.Context, query string) string {
	if s.retriever == nil {
		return query
	}

	passages, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		log.WithCtx(ctx).Warn("knowledge base lookup failed, continuing without context",
			zap.String("failure_mode", s.failureMode),
			zap.Error(err),
		)
		s.observe("error")
		if s.failureMode == FailureModeMarker {
			return AugmentPrompt(query, RetrievalUnavailable)
		}
		return query
	}

	if len(passages) == 0 {
		s.observe("empty")
	} else {
		s.observe("ok")
	}
	return AugmentPrompt(query, JoinPassages(passages))
}

func (s *ChatService) observe(status string) {
	if s.onRetrieval != nil {
		s.onRetrieval(status)
	}
}

// JoinPassages concatenates passage texts with newlines; no passages yields "".
func JoinPassages(passages []domain.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// AugmentPrompt appends a labelled context block. An empty context leaves the
// query untouched.
func AugmentPrompt(query, kbContext string) string {
	if kbContext == "" {
		return query
	}
	return query + knowledgeBaseLabel + kbContext
}
