package domain

import "context"

// Llm abstracts any text-generation provider.
type Llm interface {
	// Generate blocks until the provider returns the whole reply.
	Generate(ctx context.Context, req InferenceRequest) (*InferenceResponse, error)
	// GenerateStream returns fragments as the provider decodes them. The
	// channel yields exactly one terminal event (end or error) and is then
	// closed; chunks seen before an error are never dropped.
	GenerateStream(ctx context.Context, req InferenceRequest) <-chan StreamEvent
	Name() string
}

type InferenceRequest struct {
	Messages    []ChatMessage
	System      string
	MaxTokens   int
	Temperature float64
}

// InferenceResponse carries the decoded answer next to the provider payload
// it was decoded from.
type InferenceResponse struct {
	Text string
	Raw  []byte
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
)
