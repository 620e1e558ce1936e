package store

import (
	"context"

	"github.com/pkg/errors"
)

// LegalPassage is a chunk of reference material with its embedding.
type LegalPassage struct {
	ID        string
	Source    string // Originating file name
	Content   string
	Embedding []float32
	Model     string // Embedding model identifier
	CreatedTs int64
}

// LegalPassageWithScore represents a vector search result with similarity score.
type LegalPassageWithScore struct {
	Passage *LegalPassage
	Score   float32 // Similarity score (0-1, higher is more similar)
}

// SearchLegalPassages represents the options for vector search.
type SearchLegalPassages struct {
	Vector []float32 // Query vector
	Limit  int       // Number of results to return, default 5
}

// ErrVectorUnsupported is returned by drivers without vector search.
var ErrVectorUnsupported = errors.New("legal passage vector storage requires PostgreSQL with pgvector extension")

func (s *Store) UpsertLegalPassages(ctx context.Context, passages []*LegalPassage) error {
	return s.driver.UpsertLegalPassages(ctx, passages)
}

func (s *Store) SearchLegalPassages(ctx context.Context, opts *SearchLegalPassages) ([]*LegalPassageWithScore, error) {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	return s.driver.SearchLegalPassages(ctx, opts)
}
