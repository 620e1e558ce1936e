// Package vector provides passage retrieval over embedded reference material.
package vector

import (
	"context"
	"math"
)

// Retriever finds the passages most similar to a query.
// Consumers: the retrieve_legal_info tool.
type Retriever interface {
	// Search returns at most limit passages, most similar first.
	Search(ctx context.Context, query string, limit int) ([]Passage, error)
}

// Indexer stores documents for later retrieval.
// Consumers: the ingest command.
type Indexer interface {
	Index(ctx context.Context, docs []Document) error
}

// Store is a backend that can both index and retrieve.
type Store interface {
	Retriever
	Indexer
}

// Passage is a retrieved chunk of reference material.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"` // similarity in [0,1], two decimals
}

// Document is a chunk to be indexed.
type Document struct {
	ID      string
	Source  string
	Content string
}

// roundScore clamps a similarity into [0,1] and rounds it to two decimals.
func roundScore(similarity float32) float64 {
	s := float64(similarity)
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return math.Round(s*100) / 100
}
