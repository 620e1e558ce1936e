package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/store"
)

func (d *DB) UpsertSessionRecord(ctx context.Context, upsert *store.SessionRecord) error {
	stmt := `
		INSERT INTO session_record (id, app_name, user_id, data, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id)
		DO UPDATE SET
			app_name = excluded.app_name,
			user_id = excluded.user_id,
			data = excluded.data,
			updated_ts = excluded.updated_ts
	`
	_, err := d.db.ExecContext(ctx, stmt,
		upsert.ID, upsert.AppName, upsert.UserID, string(upsert.Data), upsert.CreatedTs, upsert.UpdatedTs)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert session record %s", upsert.ID)
	}
	return nil
}

func (d *DB) GetSessionRecord(ctx context.Context, id string) (*store.SessionRecord, error) {
	query := `SELECT id, app_name, user_id, data, created_ts, updated_ts FROM session_record WHERE id = ?`

	var (
		record store.SessionRecord
		data   string
	)
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.AppName, &record.UserID, &data, &record.CreatedTs, &record.UpdatedTs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get session record %s", id)
	}
	record.Data = []byte(data)
	return &record, nil
}

func (d *DB) DeleteSessionRecord(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM session_record WHERE id = ?`, id); err != nil {
		return errors.Wrapf(err, "failed to delete session record %s", id)
	}
	return nil
}

func (d *DB) ListSessionRecordIDs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id FROM session_record ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list session records")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan session record id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate session records")
	}
	return ids, nil
}
