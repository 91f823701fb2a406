package events

import (
	"context"
	"time"

	"leaveportal/internal/domain/calendar"
)

// Store persists per-day leave entries. Returned events carry their ID; times
// may come back in any location.
type Store interface {
	List(ctx context.Context) ([]calendar.DisplayEvent, error)
	// ListForDay returns entries overlapping [dayStart, dayEnd].
	ListForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]calendar.DisplayEvent, error)
	Get(ctx context.Context, id string) (calendar.DisplayEvent, error)
	// CreateMany inserts all entries or none.
	CreateMany(ctx context.Context, events []calendar.DisplayEvent) ([]calendar.DisplayEvent, error)
	Update(ctx context.Context, id string, event calendar.DisplayEvent) (calendar.DisplayEvent, error)
	Delete(ctx context.Context, id string) error
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}
