package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const openAIProvider = "openai"

// OpenAIClient targets any OpenAI-compatible chat completions endpoint,
// which also covers local servers during development.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAIClient) Name() string { return openAIProvider }

func (o *OpenAIClient) request(req domain.InferenceRequest, stream bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleAssistant
		if m.Role == domain.UserRole {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
}

func (o *OpenAIClient) Generate(ctx context.Context, req domain.InferenceRequest) (*domain.InferenceResponse, error) {
	req = withDefaults(req)
	if len(req.Messages) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	resp, err := o.client.CreateChatCompletion(ctx, o.request(req, false))
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding openai response: %w", err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	return &domain.InferenceResponse{Text: text, Raw: raw}, nil
}

func (o *OpenAIClient) GenerateStream(ctx context.Context, req domain.InferenceRequest) <-chan domain.StreamEvent {
	req = withDefaults(req)
	if len(req.Messages) == 0 {
		return failed(domain.ErrEmptyQuery)
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, o.request(req, true))
	if err != nil {
		return failed(classifyOpenAIError(err))
	}

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		defer stream.Close()

		fragments := 0
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				emit(ctx, events, domain.End())
				return
			}
			if err != nil {
				log.WithCtx(ctx).Error("openai stream failed", zap.Int("fragments", fragments), zap.Error(err))
				emit(ctx, events, domain.Failure(classifyOpenAIError(err)))
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			fragments++
			if !emit(ctx, events, domain.Chunk(resp.Choices[0].Delta.Content)) {
				return
			}
		}
	}()
	return events
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider: openAIProvider,
			Kind:     kindForStatus(apiErr.HTTPStatusCode),
			Message:  apiErr.Message,
			Err:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.ProviderError{
			Provider: openAIProvider,
			Kind:     kindForStatus(reqErr.HTTPStatusCode),
			Message:  reqErr.Error(),
			Err:      err,
		}
	}

	return fmt.Errorf("%s: %w", openAIProvider, err)
}

var _ domain.Llm = (*OpenAIClient)(nil)
