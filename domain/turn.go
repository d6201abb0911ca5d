package domain

// Turn is one committed message in a conversation thread.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	// Failed marks an assistant turn that holds an error message instead of
	// an answer.
	Failed bool `json:"failed,omitempty"`
}
