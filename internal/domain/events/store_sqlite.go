package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leaveportal/internal/domain/calendar"
)

// SQLiteStore keeps timestamps as UTC unix microseconds so range filters and
// ordering stay numeric across the full range of four-digit years.
type SQLiteStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{DB: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEvent(row rowScanner) (calendar.DisplayEvent, error) {
	var (
		ev         calendar.DisplayEvent
		start, end int64
		reason     sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.Title, &start, &end, &reason); err != nil {
		return calendar.DisplayEvent{}, err
	}
	ev.Start = time.UnixMicro(start).UTC()
	ev.End = time.UnixMicro(end).UTC()
	if reason.Valid {
		ev.Reason = &reason.String
	}
	return ev, nil
}

func nullableReason(reason *string) sql.NullString {
	if reason == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *reason, Valid: true}
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]calendar.DisplayEvent, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]calendar.DisplayEvent, 0)
	for rows.Next() {
		ev, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context) ([]calendar.DisplayEvent, error) {
	return s.query(ctx, `
    SELECT id, title, start_at, end_at, reason
    FROM leave_events
    ORDER BY start_at, created_at, rowid
  `)
}

func (s *SQLiteStore) ListForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]calendar.DisplayEvent, error) {
	return s.query(ctx, `
    SELECT id, title, start_at, end_at, reason
    FROM leave_events
    WHERE start_at <= ? AND end_at >= ?
    ORDER BY start_at, created_at, rowid
  `, dayEnd.UnixMicro(), dayStart.UnixMicro())
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (calendar.DisplayEvent, error) {
	ev, err := scanSQLiteEvent(s.DB.QueryRowContext(ctx, `
    SELECT id, title, start_at, end_at, reason
    FROM leave_events
    WHERE id = ?
  `, id))
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	return ev, err
}

func (s *SQLiteStore) CreateMany(ctx context.Context, events []calendar.DisplayEvent) ([]calendar.DisplayEvent, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := s.now().UnixMicro()
	created := make([]calendar.DisplayEvent, 0, len(events))
	for i, ev := range events {
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
      INSERT INTO leave_events (id, title, start_at, end_at, reason, created_at, updated_at)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `, id, ev.Title, ev.Start.UnixMicro(), ev.End.UnixMicro(), nullableReason(ev.Reason), now, now); err != nil {
			return nil, fmt.Errorf("inserting event %d: %w", i, err)
		}
		ev.ID = id
		ev.Start = time.UnixMicro(ev.Start.UnixMicro()).UTC()
		ev.End = time.UnixMicro(ev.End.UnixMicro()).UTC()
		created = append(created, ev)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, event calendar.DisplayEvent) (calendar.DisplayEvent, error) {
	res, err := s.DB.ExecContext(ctx, `
    UPDATE leave_events
    SET title = ?, start_at = ?, end_at = ?, reason = ?, updated_at = ?
    WHERE id = ?
  `, event.Title, event.Start.UnixMicro(), event.End.UnixMicro(), nullableReason(event.Reason), s.now().UnixMicro(), id)
	if err != nil {
		return calendar.DisplayEvent{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return calendar.DisplayEvent{}, err
	}
	if affected == 0 {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM leave_events WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM leave_events WHERE end_at < ?", cutoff.UnixMicro())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
