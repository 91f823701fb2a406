package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ActionEventCreate    = "event.create"
	ActionEventUpdate    = "event.update"
	ActionEventDelete    = "event.delete"
	ActionRetentionPurge = "retention.purge"
)

type Event struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	EntityID  string          `json:"entityId"`
	RequestID string          `json:"requestId"`
	IP        string          `json:"ip"`
	CreatedAt time.Time       `json:"createdAt"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action   string
	EntityID string
}

// Store persists audit events newest first. A zero limit lists everything.
type Store interface {
	Insert(ctx context.Context, evt Event) error
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error)
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func New(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Record(ctx context.Context, action, entityID, requestID, ip string, before, after any) error {
	evt := Event{
		ID:        uuid.NewString(),
		Action:    action,
		EntityID:  entityID,
		RequestID: requestID,
		IP:        ip,
		CreatedAt: s.Now().UTC(),
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return err
		}
		evt.After = payload
	}
	return s.Store.Insert(ctx, evt)
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	return s.Store.Count(ctx, filter)
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	return s.Store.List(ctx, filter, includeDetails, limit, offset)
}

func (s *Service) ListExport(ctx context.Context) ([]Event, error) {
	return s.Store.List(ctx, Filter{}, false, 0, 0)
}

// buildBaseQuery appends the filter conditions using the driver's
// placeholder style.
func buildBaseQuery(prefix string, filter Filter, placeholder func(n int) string) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1=1"
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += " AND action = " + placeholder(len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += " AND entity_id = " + placeholder(len(args))
	}
	return query, args
}

func dollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func questionPlaceholder(int) string {
	return "?"
}

func selectColumns(idColumn string, includeDetails bool) string {
	cols := "SELECT " + idColumn + ", action, entity_id, request_id, ip, created_at"
	if includeDetails {
		cols += ", before_json, after_json"
	}
	return cols
}
