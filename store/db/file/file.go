package file

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/store"
)

// ============================================================================
// FILE SUPPORT (Default - Sessions Only)
// ============================================================================
// One JSON document per session under the session directory.
// Writes go to a temp file in the same directory and are renamed into place,
// so readers never observe a partially written record.
//
// Vector search is not supported; use the chromem retrieval backend or
// PostgreSQL.
// ============================================================================

const recordExt = ".json"

type DB struct {
	dir     string
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	dir := profile.SessionDir
	if dir == "" {
		dir = filepath.Join(profile.Data, "sessions")
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, errors.Wrapf(err, "failed to create session directory %s", dir)
	}
	return &DB{dir: dir, profile: profile}, nil
}

func (d *DB) Close() error {
	return nil
}

func (d *DB) Migrate(ctx context.Context) error {
	return os.MkdirAll(d.dir, 0o770)
}

func (d *DB) path(id string) string {
	return filepath.Join(d.dir, id+recordExt)
}

func (d *DB) UpsertSessionRecord(ctx context.Context, upsert *store.SessionRecord) error {
	if err := store.ValidateSessionID(upsert.ID); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, "."+upsert.ID+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp session file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(upsert.Data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write session %s", upsert.ID)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to sync session %s", upsert.ID)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close session %s", upsert.ID)
	}
	if err := os.Rename(tmpName, d.path(upsert.ID)); err != nil {
		return errors.Wrapf(err, "failed to replace session %s", upsert.ID)
	}
	return nil
}

func (d *DB) GetSessionRecord(ctx context.Context, id string) (*store.SessionRecord, error) {
	if err := store.ValidateSessionID(id); err != nil {
		return nil, err
	}

	path := d.path(id)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read session %s", id)
	}

	record := &store.SessionRecord{ID: id, Data: data}
	if info, err := os.Stat(path); err == nil {
		record.UpdatedTs = info.ModTime().Unix()
	}
	return record, nil
}

func (d *DB) DeleteSessionRecord(ctx context.Context, id string) error {
	if err := store.ValidateSessionID(id); err != nil {
		return err
	}
	if err := os.Remove(d.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to delete session %s", id)
	}
	return nil
}

func (d *DB) ListSessionRecordIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list session directory")
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// UpsertLegalPassages is NOT supported for the file driver.
func (d *DB) UpsertLegalPassages(ctx context.Context, passages []*store.LegalPassage) error {
	return store.ErrVectorUnsupported
}

// SearchLegalPassages is NOT supported for the file driver.
func (d *DB) SearchLegalPassages(ctx context.Context, opts *store.SearchLegalPassages) ([]*store.LegalPassageWithScore, error) {
	return nil, store.ErrVectorUnsupported
}
