package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const geminiProvider = "gemini"

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient picks up GOOGLE_API_KEY (or Vertex settings) from the
// environment the way the genai SDK does.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Name() string { return geminiProvider }

func geminiContents(messages []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, len(messages))
	for i, msg := range messages {
		role := genai.RoleModel
		if msg.Role == domain.UserRole {
			role = genai.RoleUser
		}
		contents[i] = &genai.Content{
			Role: role,
			Parts: []*genai.Part{
				{Text: msg.Content},
			},
		}
	}
	return contents
}

func geminiConfig(req domain.InferenceRequest) *genai.GenerateContentConfig {
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	return cfg
}

func (g *GeminiClient) Generate(ctx context.Context, req domain.InferenceRequest) (*domain.InferenceResponse, error) {
	req = withDefaults(req)
	if len(req.Messages) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(req.Messages), geminiConfig(req))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding gemini response: %w", err)
	}

	return &domain.InferenceResponse{Text: resp.Text(), Raw: raw}, nil
}

func (g *GeminiClient) GenerateStream(ctx context.Context, req domain.InferenceRequest) <-chan domain.StreamEvent {
	req = withDefaults(req)
	if len(req.Messages) == 0 {
		return failed(domain.ErrEmptyQuery)
	}

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)

		fragments := 0
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, geminiContents(req.Messages), geminiConfig(req)) {
			if err != nil {
				log.WithCtx(ctx).Error("gemini stream failed", zap.Int("fragments", fragments), zap.Error(err))
				emit(ctx, events, domain.Failure(classifyGeminiError(err)))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			fragments++
			if !emit(ctx, events, domain.Chunk(text)) {
				return
			}
		}
		emit(ctx, events, domain.End())
	}()
	return events
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider: geminiProvider,
			Kind:     kindForStatus(apiErr.Code),
			Message:  apiErr.Message,
			Err:      err,
		}
	}
	return fmt.Errorf("%s: %w", geminiProvider, err)
}

var _ domain.Llm = (*GeminiClient)(nil)
