package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// SQLiteStore stores created_at as UTC unix microseconds, matching the leave
// events table.
type SQLiteStore struct {
	DB *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, evt Event) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO audit_events (id, action, entity_id, request_id, ip, created_at, before_json, after_json)
    VALUES (?,?,?,?,?,?,?,?)
  `, evt.ID, evt.Action, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UnixMicro(), nullableJSON(evt.Before), nullableJSON(evt.After))
	return err
}

func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter, questionPlaceholder)
	var total int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery(selectColumns("id", includeDetails), filter, questionPlaceholder)
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var (
			evt           Event
			createdAt     int64
			before, after sql.NullString
		)
		dest := []any{&evt.ID, &evt.Action, &evt.EntityID, &evt.RequestID, &evt.IP, &createdAt}
		if includeDetails {
			dest = append(dest, &before, &after)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		evt.CreatedAt = time.UnixMicro(createdAt).UTC()
		if before.Valid {
			evt.Before = json.RawMessage(before.String)
		}
		if after.Valid {
			evt.After = json.RawMessage(after.String)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}
