// Package relayclient talks to the chat relay on behalf of the terminal
// client.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/vasifvortex/azercell-project3/domain"
)

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)

// StatusError is a non-200 answer from the relay.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.Code, e.Body)
}

// RelayError is a failure the relay reported inside a successful response.
type RelayError struct {
	Message string
}

func (e *RelayError) Error() string { return e.Message }

// Describe renders err as the text of an assistant error turn.
func Describe(err error) string {
	var statusErr *StatusError
	var relayErr *RelayError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.As(err, &relayErr):
		return relayErr.Message
	default:
		return fmt.Sprintf("Failed to connect to backend: %v", err)
	}
}

type Client struct {
	baseURL   string
	token     string
	transport string
	http      *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTransport(transport string) Option {
	return func(c *Client) { c.transport = transport }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: TransportHTTP,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatBody struct {
	Query  string `json:"query"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type chatReply struct {
	Response *string `json:"response"`
	Error    *string `json:"error"`
}

func (c *Client) post(ctx context.Context, req domain.ChatRequest, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatBody{Query: req.Query, System: req.System, Stream: stream})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
	return resp, nil
}

// Ask sends a blocking request and returns the answer text.
func (c *Client) Ask(ctx context.Context, req domain.ChatRequest) (string, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var reply chatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", &RelayError{Message: "Invalid relay response: " + err.Error()}
	}
	if reply.Error != nil {
		return "", &RelayError{Message: *reply.Error}
	}
	if reply.Response == nil {
		return "", &RelayError{Message: "relay response carried no answer"}
	}
	return ExtractAnswer(*reply.Response), nil
}

// Stream delivers answer fragments to onChunk in arrival order using the
// configured transport.
func (c *Client) Stream(ctx context.Context, req domain.ChatRequest, onChunk func(string)) error {
	if c.transport == TransportWS {
		return c.StreamWS(ctx, req, onChunk)
	}
	return c.StreamHTTP(ctx, req, onChunk)
}

// StreamHTTP reads the chunked text body. A fragment never splits a UTF-8
// sequence.
func (c *Client) StreamHTTP(ctx context.Context, req domain.ChatRequest, onChunk func(string)) error {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			cut := validPrefix(pending)
			if cut > 0 {
				onChunk(string(pending[:cut]))
				pending = append(pending[:0], pending[cut:]...)
			}
		}
		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				onChunk(string(pending))
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// validPrefix returns the length of b without a trailing incomplete rune.
func validPrefix(b []byte) int {
	for i := len(b); i > 0 && i > len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i-1]) {
			if utf8.FullRune(b[i-1:]) {
				return len(b)
			}
			return i - 1
		}
	}
	return len(b)
}

// ExtractAnswer decodes the provider payload the relay forwards as text.
// Unknown shapes are returned verbatim.
func ExtractAnswer(raw string) string {
	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return raw
	}

	var sb strings.Builder
	switch {
	case len(payload.Content) > 0:
		for _, block := range payload.Content {
			if block.Type == "" || block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
	case len(payload.Choices) > 0:
		sb.WriteString(payload.Choices[0].Message.Content)
	case len(payload.Candidates) > 0:
		for _, part := range payload.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	default:
		return raw
	}
	return sb.String()
}
