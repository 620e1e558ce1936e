package store

import (
	"context"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	Close() error

	// Migrate creates the tables the driver needs. It is idempotent.
	Migrate(ctx context.Context) error

	// SessionRecord model related methods.
	UpsertSessionRecord(ctx context.Context, upsert *SessionRecord) error
	// GetSessionRecord returns nil, nil when no record exists.
	GetSessionRecord(ctx context.Context, id string) (*SessionRecord, error)
	DeleteSessionRecord(ctx context.Context, id string) error
	ListSessionRecordIDs(ctx context.Context) ([]string, error)

	// LegalPassage model related methods.
	UpsertLegalPassages(ctx context.Context, passages []*LegalPassage) error
	// SearchLegalPassages performs semantic search using vector similarity.
	SearchLegalPassages(ctx context.Context, opts *SearchLegalPassages) ([]*LegalPassageWithScore, error)
}
