package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"leaveportal/internal/domain/calendar"
	"leaveportal/internal/platform/querier"
)

type PostgresStore struct {
	DB querier.Querier
}

func NewPostgresStore(db querier.Querier) *PostgresStore {
	return &PostgresStore{DB: db}
}

func scanPostgresEvent(row pgx.Row) (calendar.DisplayEvent, error) {
	var ev calendar.DisplayEvent
	if err := row.Scan(&ev.ID, &ev.Title, &ev.Start, &ev.End, &ev.Reason); err != nil {
		return calendar.DisplayEvent{}, err
	}
	return ev, nil
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]calendar.DisplayEvent, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]calendar.DisplayEvent, 0)
	for rows.Next() {
		ev, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context) ([]calendar.DisplayEvent, error) {
	return s.query(ctx, `
    SELECT id::text, title, start_at, end_at, reason
    FROM leave_events
    ORDER BY start_at, created_at, id
  `)
}

func (s *PostgresStore) ListForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]calendar.DisplayEvent, error) {
	return s.query(ctx, `
    SELECT id::text, title, start_at, end_at, reason
    FROM leave_events
    WHERE start_at <= $2 AND end_at >= $1
    ORDER BY start_at, created_at, id
  `, dayStart, dayEnd)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (calendar.DisplayEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	ev, err := scanPostgresEvent(s.DB.QueryRow(ctx, `
    SELECT id::text, title, start_at, end_at, reason
    FROM leave_events
    WHERE id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	return ev, err
}

func (s *PostgresStore) CreateMany(ctx context.Context, events []calendar.DisplayEvent) ([]calendar.DisplayEvent, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	created := make([]calendar.DisplayEvent, 0, len(events))
	for _, ev := range events {
		stored, err := scanPostgresEvent(tx.QueryRow(ctx, `
      INSERT INTO leave_events (title, start_at, end_at, reason)
      VALUES ($1,$2,$3,$4)
      RETURNING id::text, title, start_at, end_at, reason
    `, ev.Title, ev.Start, ev.End, ev.Reason))
		if err != nil {
			return nil, err
		}
		created = append(created, stored)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, event calendar.DisplayEvent) (calendar.DisplayEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	ev, err := scanPostgresEvent(s.DB.QueryRow(ctx, `
    UPDATE leave_events
    SET title = $1, start_at = $2, end_at = $3, reason = $4, updated_at = now()
    WHERE id = $5
    RETURNING id::text, title, start_at, end_at, reason
  `, event.Title, event.Start, event.End, event.Reason, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return calendar.DisplayEvent{}, ErrNotFound
	}
	return ev, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_events WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM leave_events WHERE end_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if pinger, ok := s.DB.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	_, err := s.DB.Exec(ctx, "SELECT 1")
	return err
}
