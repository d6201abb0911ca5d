package websocket

// Request is what a client sends to ask one question.
type Request struct {
	Query  string `json:"query"`
	System string `json:"system,omitempty"`
}

const (
	EventChunk = "chunk"
	EventError = "error"
	EventEnd   = "end"
)

// Event is one frame of an answer. Every answer ends with exactly one
// "end" or "error" frame.
type Event struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}
