package ui

// ChunkMsg delivers one streamed fragment for a thread.
type ChunkMsg struct {
	ThreadID string
	Text     string
}

// DoneMsg ends a streamed answer.
type DoneMsg struct {
	ThreadID string
}

// AnswerMsg carries a complete answer from a blocking request.
type AnswerMsg struct {
	ThreadID string
	Text     string
}

// FailedMsg ends a request with an error turn.
type FailedMsg struct {
	ThreadID string
	Err      error
}

// persistErrMsg reports a failed history write. streaming marks one that came
// through a request channel, which must keep being drained.
type persistErrMsg struct {
	threadID  string
	err       error
	streaming bool
}
