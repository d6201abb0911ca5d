package domain

import "context"

// Retriever fetches passages relevant to a free-text query from a knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Passage, error)
}

type Passage struct {
	Text   string  `json:"documentContent"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score,omitempty"`
}
