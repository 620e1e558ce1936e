package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/store"
)

// newTestDB connects to POSTGRES_TEST_DSN, a database with the pgvector
// extension available. Tests are skipped when it is unset.
func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	driver, err := NewDB(&profile.Profile{Driver: "postgres", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })
	return driver
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholder(1))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestPostgres_SessionRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	id := "pg-test-session"
	t.Cleanup(func() { db.DeleteSessionRecord(ctx, id) })

	require.NoError(t, db.UpsertSessionRecord(ctx, &store.SessionRecord{
		ID: id, AppName: "legal_agent", UserID: "u", Data: []byte(`{"version":1,"id":"pg-test-session"}`),
	}))

	got, err := db.GetSessionRecord(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"version":1,"id":"pg-test-session"}`, string(got.Data))

	require.NoError(t, db.DeleteSessionRecord(ctx, id))
	got, err = db.GetSessionRecord(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgres_LegalPassageSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.UpsertLegalPassages(ctx, []*store.LegalPassage{
		{ID: "pg-test-a", Source: "a.txt", Content: "consumer protection", Embedding: []float32{1, 0, 0}},
		{ID: "pg-test-b", Source: "b.txt", Content: "right to information", Embedding: []float32{0, 1, 0}},
	}))

	results, err := db.SearchLegalPassages(ctx, &store.SearchLegalPassages{Vector: []float32{1, 0, 0}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pg-test-a", results[0].Passage.ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}
