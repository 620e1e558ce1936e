package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	driver, err := NewDB(&profile.Profile{Data: dir, SessionDir: filepath.Join(dir, "sessions")})
	require.NoError(t, err)
	return driver.(*DB)
}

func TestFileDriver_SessionRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	got, err := db.GetSessionRecord(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, db.UpsertSessionRecord(ctx, &store.SessionRecord{ID: "s1", Data: []byte(`{"id":"s1"}`)}))
	require.NoError(t, db.UpsertSessionRecord(ctx, &store.SessionRecord{ID: "s1", Data: []byte(`{"id":"s1","v":2}`)}))
	require.NoError(t, db.UpsertSessionRecord(ctx, &store.SessionRecord{ID: "s0", Data: []byte(`{}`)}))

	got, err = db.GetSessionRecord(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"id":"s1","v":2}`, string(got.Data))

	ids, err := db.ListSessionRecordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s0", "s1"}, ids)

	require.NoError(t, db.DeleteSessionRecord(ctx, "s1"))
	require.NoError(t, db.DeleteSessionRecord(ctx, "s1"), "deleting twice is not an error")

	got, err = db.GetSessionRecord(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileDriver_LeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.UpsertSessionRecord(ctx, &store.SessionRecord{ID: "abc", Data: []byte(`{}`)}))

	entries, err := os.ReadDir(db.dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc.json", entries[0].Name())
}

func TestFileDriver_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	for _, id := range []string{"", "../escape", "a/b", "a.b"} {
		t.Run(id, func(t *testing.T) {
			err := db.UpsertSessionRecord(ctx, &store.SessionRecord{ID: id, Data: []byte(`{}`)})
			assert.ErrorIs(t, err, store.ErrInvalidSessionID)

			_, err = db.GetSessionRecord(ctx, id)
			assert.ErrorIs(t, err, store.ErrInvalidSessionID)
		})
	}
}

func TestFileDriver_VectorUnsupported(t *testing.T) {
	db := newTestDB(t)
	_, err := db.SearchLegalPassages(context.Background(), &store.SearchLegalPassages{})
	assert.ErrorIs(t, err, store.ErrVectorUnsupported)
}
