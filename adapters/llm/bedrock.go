package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.uber.org/zap"

	"github.com/vasifvortex/azercell-project3/adapters/awsclient"
	"github.com/vasifvortex/azercell-project3/domain"
	"github.com/vasifvortex/azercell-project3/utils/log"
)

const (
	bedrockProvider         = "bedrock"
	anthropicBedrockVersion = "bedrock-2023-05-31"
)

type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// responseStream is the part of the SDK event stream the pump needs.
type responseStream interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// BedrockClient talks to Anthropic models hosted on Amazon Bedrock.
type BedrockClient struct {
	client  bedrockAPI
	modelID string

	openStream func(ctx context.Context, body []byte) (responseStream, error)
}

func NewBedrockClient(awsCfg aws.Config, modelID string) *BedrockClient {
	return newBedrockClient(bedrockruntime.NewFromConfig(awsCfg), modelID)
}

func newBedrockClient(api bedrockAPI, modelID string) *BedrockClient {
	b := &BedrockClient{client: api, modelID: modelID}
	b.openStream = b.invokeStream
	return b
}

func (b *BedrockClient) Name() string { return bedrockProvider }

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	System           string             `json:"system,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

func (r anthropicResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildAnthropicBody renders the Messages API payload Bedrock expects for
// Claude models. Only the turns given are sent; no hidden history is added.
func buildAnthropicBody(req domain.InferenceRequest) ([]byte, error) {
	req = withDefaults(req)
	if len(req.Messages) == 0 {
		return nil, domain.ErrEmptyQuery
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, anthropicMessage{
			Role:    string(m.Role),
			Content: []anthropicContent{{Type: "text", Text: m.Content}},
		})
	}

	return json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicBedrockVersion,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		System:           req.System,
		Messages:         messages,
	})
}

func (b *BedrockClient) Generate(ctx context.Context, req domain.InferenceRequest) (*domain.InferenceResponse, error) {
	body, err := buildAnthropicBody(req)
	if err != nil {
		return nil, fmt.Errorf("building bedrock body: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, awsclient.ClassifyError(bedrockProvider, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding bedrock response: %w", err)
	}

	return &domain.InferenceResponse{Text: resp.text(), Raw: out.Body}, nil
}

func (b *BedrockClient) GenerateStream(ctx context.Context, req domain.InferenceRequest) <-chan domain.StreamEvent {
	body, err := buildAnthropicBody(req)
	if err != nil {
		return failed(fmt.Errorf("building bedrock body: %w", err))
	}

	stream, err := b.openStream(ctx, body)
	if err != nil {
		return failed(awsclient.ClassifyError(bedrockProvider, err))
	}

	events := make(chan domain.StreamEvent)
	go pumpBedrockStream(ctx, stream, events)
	return events
}

func (b *BedrockClient) invokeStream(ctx context.Context, body []byte) (responseStream, error) {
	out, err := b.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

var errStreamClosed = errors.New("stream closed by provider")

// pumpBedrockStream forwards decoded text deltas in arrival order and always
// finishes with one terminal event.
func pumpBedrockStream(ctx context.Context, stream responseStream, events chan<- domain.StreamEvent) {
	defer close(events)
	defer stream.Close()

	logger := log.WithCtx(ctx).With(zap.String("provider", bedrockProvider))
	fragments := 0

	for {
		select {
		case <-ctx.Done():
			emit(ctx, events, domain.Failure(ctx.Err()))
			return
		case ev, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					logger.Error("bedrock stream failed", zap.Int("fragments", fragments), zap.Error(err))
					emit(ctx, events, domain.Failure(awsclient.ClassifyError(bedrockProvider, err)))
					return
				}
				emit(ctx, events, domain.End())
				return
			}

			chunk, isChunk := ev.(*types.ResponseStreamMemberChunk)
			if !isChunk {
				logger.Debug("skipping non-chunk stream member", zap.String("type", fmt.Sprintf("%T", ev)))
				continue
			}

			var payload anthropicStreamEvent
			if err := json.Unmarshal(chunk.Value.Bytes, &payload); err != nil {
				logger.Warn("undecodable bedrock chunk", zap.Error(err))
				if !emit(ctx, events, undecodable(err)) {
					return
				}
				continue
			}

			switch payload.Type {
			case "content_block_delta":
				if payload.Delta == nil || payload.Delta.Text == "" {
					continue
				}
				fragments++
				if !emit(ctx, events, domain.Chunk(payload.Delta.Text)) {
					return
				}
			case "error":
				perr := &domain.ProviderError{Provider: bedrockProvider, Kind: domain.KindUnavailable, Err: errStreamClosed}
				if payload.Error != nil {
					perr.Message = payload.Error.Message
					if payload.Error.Type == "overloaded_error" {
						perr.Kind = domain.KindThrottled
					}
				}
				emit(ctx, events, domain.Failure(perr))
				return
			}
		}
	}
}

var _ domain.Llm = (*BedrockClient)(nil)
