package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/domain"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(srv.URL+"/v1", "test-key", "test-model")
}

func TestOpenAIGenerate(t *testing.T) {
	var captured map[string]any
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","model":"test-model","choices":[{"index":0,"message":{"role":"assistant","content":"Shishishi!"},"finish_reason":"stop"}]}`)
	})

	resp, err := client.Generate(context.Background(), domain.InferenceRequest{
		Messages:    []domain.ChatMessage{{Role: domain.UserRole, Content: "Who are you?"}},
		System:      "Respond as Luffy.",
		MaxTokens:   300,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "Shishishi!", resp.Text)
	assert.Contains(t, string(resp.Raw), "Shishishi!")

	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "Respond as Luffy.", messages[0].(map[string]any)["content"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	assert.EqualValues(t, 300, captured["max_tokens"])
}

func TestOpenAIGenerateRateLimited(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})

	_, err := client.Generate(context.Background(), domain.InferenceRequest{
		Messages: []domain.ChatMessage{{Role: domain.UserRole, Content: "hi"}},
	})

	require.Error(t, err)
	assert.Equal(t, domain.KindThrottled, domain.KindOf(err))
}

func TestOpenAIStream(t *testing.T) {
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Gum", "-Gum ", "Pistol"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"model\":\"test-model\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	events := collect(client.GenerateStream(context.Background(), domain.InferenceRequest{
		Messages: []domain.ChatMessage{{Role: domain.UserRole, Content: "attack"}},
	}))

	require.NotEmpty(t, events)
	var sb strings.Builder
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, domain.StreamChunk, ev.Kind)
		sb.WriteString(ev.Text)
	}
	assert.Equal(t, "Gum-Gum Pistol", sb.String())
	assert.Equal(t, domain.StreamEnd, events[len(events)-1].Kind)
}

func TestOpenAIEmptyRequest(t *testing.T) {
	client := NewOpenAIClient("http://127.0.0.1:0", "k", "m")

	_, err := client.Generate(context.Background(), domain.InferenceRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)

	events := collect(client.GenerateStream(context.Background(), domain.InferenceRequest{}))
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, domain.ErrEmptyQuery)
}
