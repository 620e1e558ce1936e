package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/store"
)

// ============================================================================
// SQLITE SUPPORT (Single Node - Sessions Only)
// ============================================================================
// SQLite stores session records for single-node deployments.
// SQLite does NOT support vector search (no pgvector equivalent); pair it
// with the chromem retrieval backend.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens db connection and returns a store driver.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect to the database with some sane settings:
	// - No shared-cache: it's obsolete; WAL journal mode is a better solution.
	// - No foreign key constraints: they are not used.
	// - Journal mode set to WAL: it's the recommended journal mode for most applications.
	// - busy_timeout: wait instead of failing when another connection holds the lock.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	// A single writer avoids SQLITE_BUSY on concurrent upserts.
	sqliteDB.SetMaxOpenConns(1)

	driver := &DB{db: sqliteDB, profile: profile}
	if err := driver.Migrate(context.Background()); err != nil {
		sqliteDB.Close()
		return nil, err
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS session_record (
	id TEXT NOT NULL PRIMARY KEY,
	app_name TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	data TEXT NOT NULL,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate session_record")
	}
	return nil
}
