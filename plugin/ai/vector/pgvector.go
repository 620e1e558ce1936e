package vector

import (
	"context"
	"fmt"

	"github.com/hrygo/lexagent/plugin/ai"
	"github.com/hrygo/lexagent/store"
)

// PassageStore is the subset of store.Store used for pgvector retrieval.
type PassageStore interface {
	UpsertLegalPassages(ctx context.Context, passages []*store.LegalPassage) error
	SearchLegalPassages(ctx context.Context, opts *store.SearchLegalPassages) ([]*store.LegalPassageWithScore, error)
}

// PGVectorStore implements Store on the postgres legal_passage table.
type PGVectorStore struct {
	passages PassageStore
	embedder ai.EmbeddingService
}

// NewPGVectorStore creates a pgvector-backed Store.
func NewPGVectorStore(passages PassageStore, embedder ai.EmbeddingService) *PGVectorStore {
	return &PGVectorStore{passages: passages, embedder: embedder}
}

// Index embeds documents in one batch and upserts them.
func (s *PGVectorStore) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embed passages: got %d vectors for %d documents", len(vectors), len(docs))
	}

	passages := make([]*store.LegalPassage, len(docs))
	for i, doc := range docs {
		passages[i] = &store.LegalPassage{
			ID:        doc.ID,
			Source:    doc.Source,
			Content:   doc.Content,
			Embedding: vectors[i],
			Model:     s.embedder.Model(),
		}
	}
	return s.passages.UpsertLegalPassages(ctx, passages)
}

// Search embeds the query and runs a cosine-distance search.
func (s *PGVectorStore) Search(ctx context.Context, query string, limit int) ([]Passage, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.passages.SearchLegalPassages(ctx, &store.SearchLegalPassages{Vector: vector, Limit: limit})
	if err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, Passage{
			Text:   r.Passage.Content,
			Source: r.Passage.Source,
			Score:  roundScore(r.Score),
		})
	}
	return passages, nil
}

var _ Store = (*PGVectorStore)(nil)
