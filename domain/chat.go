package domain

// ChatRequest is one user submission to the relay.
type ChatRequest struct {
	Query  string `json:"query"`
	System string `json:"system,omitempty"`
}
