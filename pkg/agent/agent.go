// Package agent provides the reasoning collaborator used by the deep
// execution path, plus knowledge retrieval to ground its answers.
package agent

import (
	"context"
)

// Reasoner answers a troubleshooting prompt. Implementations keep
// conversational memory across calls until Reset.
type Reasoner interface {
	ProcessMessage(ctx context.Context, prompt string) (string, error)
	Reset()
}

// Passage is one retrieved knowledge base excerpt.
type Passage struct {
	Title   string
	Content string
	Score   float64
}

// Retriever finds the passages most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}
