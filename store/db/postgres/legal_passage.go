package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/store"
)

// UpsertLegalPassages inserts or replaces passages in one transaction.
func (d *DB) UpsertLegalPassages(ctx context.Context, passages []*store.LegalPassage) error {
	if len(passages) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO legal_passage (id, source, content, embedding, model, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (id)
		DO UPDATE SET
			source = EXCLUDED.source,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model
	`
	now := time.Now().Unix()
	for _, p := range passages {
		createdTs := p.CreatedTs
		if createdTs == 0 {
			createdTs = now
		}
		if _, err := tx.ExecContext(ctx, stmt,
			p.ID, p.Source, p.Content, pgvector.NewVector(p.Embedding), p.Model, createdTs,
		); err != nil {
			return errors.Wrapf(err, "failed to upsert legal passage %s", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit legal passages")
	}
	return nil
}

// SearchLegalPassages performs vector similarity search using pgvector.
func (d *DB) SearchLegalPassages(ctx context.Context, opts *store.SearchLegalPassages) ([]*store.LegalPassageWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	// The <=> operator computes cosine distance (1 - cosine_similarity)
	// So we order by distance ASC to get most similar first
	query := `
		SELECT id, source, content, model, created_ts,
			1 - (embedding <=> ` + placeholder(1) + `) AS score
		FROM legal_passage
		ORDER BY embedding <=> ` + placeholder(1) + `
		LIMIT ` + placeholder(2)

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(opts.Vector), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.LegalPassageWithScore{}
	for rows.Next() {
		var (
			passage store.LegalPassage
			score   float32
		)
		if err := rows.Scan(&passage.ID, &passage.Source, &passage.Content, &passage.Model, &passage.CreatedTs, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan legal passage")
		}
		results = append(results, &store.LegalPassageWithScore{Passage: &passage, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate legal passages")
	}
	return results, nil
}
