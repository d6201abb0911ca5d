package domain

import "context"

// Synthesizer turns answer text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber turns recorded speech into a query.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
