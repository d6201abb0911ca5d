package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/domain"
)

type fakeLlm struct {
	reply     string
	fragments []string
	failAfter int
	err       error

	requests []domain.InferenceRequest
}

func (f *fakeLlm) Name() string { return "fake" }

func (f *fakeLlm) Generate(_ context.Context, req domain.InferenceRequest) (*domain.InferenceResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.InferenceResponse{Text: f.reply, Raw: []byte(`{"text":"` + f.reply + `"}`)}, nil
}

func (f *fakeLlm) GenerateStream(_ context.Context, req domain.InferenceRequest) <-chan domain.StreamEvent {
	f.requests = append(f.requests, req)
	events := make(chan domain.StreamEvent, len(f.fragments)+1)
	for i, frag := range f.fragments {
		if f.err != nil && i == f.failAfter {
			events <- domain.Failure(f.err)
			close(events)
			return events
		}
		events <- domain.Chunk(frag)
	}
	events <- domain.End()
	close(events)
	return events
}

type fakeRetriever struct {
	passages []domain.Passage
	err      error
	calls    int
	lastTopK int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, topK int) ([]domain.Passage, error) {
	f.calls++
	f.lastTopK = topK
	return f.passages, f.err
}

func drain(events <-chan domain.StreamEvent) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestAnswerSendsSystemVerbatim(t *testing.T) {
	llm := &fakeLlm{reply: "I'm Luffy!"}
	svc := NewChatService(llm)

	resp, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "Who are you?", System: "Respond as Luffy."})
	require.NoError(t, err)

	assert.Equal(t, "I'm Luffy!", resp.Text)
	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, "Respond as Luffy.", req.System)
	assert.Equal(t, 300, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, domain.UserRole, req.Messages[0].Role)
	assert.Equal(t, "Who are you?", req.Messages[0].Content)
}

func TestAnswerRejectsEmptyQuery(t *testing.T) {
	llm := &fakeLlm{}
	svc := NewChatService(llm)

	_, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Empty(t, llm.requests)

	events := drain(svc.Stream(context.Background(), domain.ChatRequest{}))
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, domain.ErrEmptyQuery)
}

func TestPromptWithoutPassagesIsRawQuery(t *testing.T) {
	retriever := &fakeRetriever{}
	llm := &fakeLlm{reply: "ok"}
	svc := NewChatService(llm, WithRetriever(retriever, 3))

	_, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "Who are you?"})
	require.NoError(t, err)

	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, 3, retriever.lastTopK)
	assert.Equal(t, "Who are you?", llm.requests[0].Messages[0].Content)
	assert.NotContains(t, llm.requests[0].Messages[0].Content, "[KnowledgeBase]:")
}

func TestPromptWithPassages(t *testing.T) {
	retriever := &fakeRetriever{passages: []domain.Passage{{Text: "first"}, {Text: "second"}}}
	llm := &fakeLlm{reply: "ok"}
	var statuses []string
	svc := NewChatService(llm,
		WithRetriever(retriever, 3),
		WithRetrievalObserver(func(s string) { statuses = append(statuses, s) }),
	)

	_, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, "q\n\n[KnowledgeBase]:\nfirst\nsecond", llm.requests[0].Messages[0].Content)
	assert.Equal(t, []string{"ok"}, statuses)
}

func TestRetrievalFailureNeverBlocksInference(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		prompt string
	}{
		{name: "skip", mode: FailureModeSkip, prompt: "q"},
		{name: "marker", mode: FailureModeMarker, prompt: "q\n\n[KnowledgeBase]:\nretrieval unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLlm{reply: "still answered"}
			svc := NewChatService(llm,
				WithRetriever(&fakeRetriever{err: errors.New("kb down")}, 3),
				WithFailureMode(tt.mode),
			)

			resp, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "q"})
			require.NoError(t, err)
			assert.Equal(t, "still answered", resp.Text)
			assert.Equal(t, tt.prompt, llm.requests[0].Messages[0].Content)
		})
	}
}

func TestStreamConcatenationMatchesBlockingAnswer(t *testing.T) {
	llm := &fakeLlm{reply: "Gum-Gum Pistol!", fragments: []string{"Gum", "-Gum", " Pistol", "!"}}
	svc := NewChatService(llm)

	resp, err := svc.Answer(context.Background(), domain.ChatRequest{Query: "attack"})
	require.NoError(t, err)

	var sb strings.Builder
	events := drain(svc.Stream(context.Background(), domain.ChatRequest{Query: "attack"}))
	for _, ev := range events {
		if ev.Kind == domain.StreamChunk {
			sb.WriteString(ev.Text)
		}
	}

	assert.Equal(t, resp.Text, sb.String())
	assert.Equal(t, domain.StreamEnd, events[len(events)-1].Kind)
	assert.Equal(t, llm.requests[0], llm.requests[1])
}

func TestStreamErrorAfterFragmentsKeepsThem(t *testing.T) {
	llm := &fakeLlm{fragments: []string{"a", "b", "c", "d"}, failAfter: 2, err: errors.New("reset")}
	svc := NewChatService(llm)

	events := drain(svc.Stream(context.Background(), domain.ChatRequest{Query: "q"}))

	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].Text)
	assert.Equal(t, "b", events[1].Text)
	assert.Equal(t, domain.StreamError, events[2].Kind)
}

func TestKnowledgeBase(t *testing.T) {
	svc := NewChatService(&fakeLlm{})
	_, err := svc.KnowledgeBase(context.Background(), "q")
	assert.ErrorIs(t, err, ErrRetrievalDisabled)

	retriever := &fakeRetriever{passages: []domain.Passage{{Text: "p"}}}
	svc = NewChatService(&fakeLlm{}, WithRetriever(retriever, 5))
	passages, err := svc.KnowledgeBase(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []domain.Passage{{Text: "p"}}, passages)
	assert.Equal(t, 5, retriever.lastTopK)
}

func TestAugmentPrompt(t *testing.T) {
	assert.Equal(t, "q", AugmentPrompt("q", ""))
	assert.Equal(t, "q\n\n[KnowledgeBase]:\nctx", AugmentPrompt("q", "ctx"))
	assert.Equal(t, "", JoinPassages(nil))
	assert.Equal(t, "a\nb", JoinPassages([]domain.Passage{{Text: "a"}, {Text: "b"}}))
}
