package sqlite

import (
	"context"

	"github.com/hrygo/lexagent/store"
)

// ============================================================================
// SQLITE AI FEATURES SUPPORT (Not Available)
// ============================================================================
// SQLite does NOT support vector search (no pgvector equivalent).
// For retrieval, use the chromem backend or PostgreSQL.
// ============================================================================

// UpsertLegalPassages is NOT supported for SQLite.
func (d *DB) UpsertLegalPassages(ctx context.Context, passages []*store.LegalPassage) error {
	return store.ErrVectorUnsupported
}

// SearchLegalPassages is NOT supported for SQLite.
// Vector similarity search requires PostgreSQL with pgvector extension.
func (d *DB) SearchLegalPassages(ctx context.Context, opts *store.SearchLegalPassages) ([]*store.LegalPassageWithScore, error) {
	return nil, store.ErrVectorUnsupported
}
