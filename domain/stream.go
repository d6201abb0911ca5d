package domain

type StreamEventKind string

const (
	StreamChunk StreamEventKind = "chunk"
	StreamError StreamEventKind = "error"
	StreamEnd   StreamEventKind = "end"
)

// StreamEvent is one element of a generation stream.
type StreamEvent struct {
	Kind StreamEventKind
	Text string
	Err  error
}

func Chunk(text string) StreamEvent { return StreamEvent{Kind: StreamChunk, Text: text} }

func Failure(err error) StreamEvent { return StreamEvent{Kind: StreamError, Err: err} }

func End() StreamEvent { return StreamEvent{Kind: StreamEnd} }

// Terminal reports whether no event can follow e.
func (e StreamEvent) Terminal() bool {
	return e.Kind == StreamError || e.Kind == StreamEnd
}
