package llm

import (
	"context"
	"fmt"

	"github.com/vasifvortex/azercell-project3/domain"
)

// emit hands ev to the consumer unless the request is gone.
func emit(ctx context.Context, events chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// undecodable keeps the stream alive when a single provider event cannot be
// parsed: the fragment is replaced by a readable marker.
func undecodable(err error) domain.StreamEvent {
	return domain.Chunk(fmt.Sprintf("[Error decoding chunk: %v]", err))
}

// failed returns a stream holding a single error event.
func failed(err error) <-chan domain.StreamEvent {
	events := make(chan domain.StreamEvent, 1)
	events <- domain.Failure(err)
	close(events)
	return events
}

func withDefaults(req domain.InferenceRequest) domain.InferenceRequest {
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Temperature < 0 {
		req.Temperature = DefaultTemperature
	}
	return req
}

const (
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
)
