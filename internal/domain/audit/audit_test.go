package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaveportal/internal/platform/db"
)

func newSQLiteService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.MigrateSQLite(ctx, conn))

	svc := New(NewSQLiteStore(conn))
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func TestRecordAndListNewestFirst(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, ActionEventCreate, "ev-1", "req-1", "10.0.0.1", nil, map[string]string{"title": "Alice"}))
	require.NoError(t, svc.Record(ctx, ActionEventUpdate, "ev-1", "req-2", "10.0.0.1", map[string]string{"title": "Alice"}, map[string]string{"title": "Alice B."}))
	require.NoError(t, svc.Record(ctx, ActionEventDelete, "ev-2", "req-3", "10.0.0.2", map[string]string{"title": "Bob"}, nil))

	all, err := svc.List(ctx, Filter{}, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ActionEventDelete, all[0].Action)
	assert.Equal(t, ActionEventCreate, all[2].Action)
	assert.Nil(t, all[0].Before)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	detailed, err := svc.List(ctx, Filter{EntityID: "ev-1"}, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, detailed, 2)
	assert.JSONEq(t, `{"title":"Alice"}`, string(detailed[0].Before))
	assert.JSONEq(t, `{"title":"Alice B."}`, string(detailed[0].After))
	assert.Nil(t, detailed[1].Before)
	assert.Equal(t, "req-1", detailed[1].RequestID)
}

func TestCountAndPaginate(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, ActionEventCreate, "ev", "", "", nil, nil))
	}
	require.NoError(t, svc.Record(ctx, ActionRetentionPurge, "", "", "", nil, map[string]int{"removed": 3}))

	total, err := svc.Count(ctx, Filter{Action: ActionEventCreate})
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	page, err := svc.List(ctx, Filter{Action: ActionEventCreate}, false, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	exported, err := svc.ListExport(ctx)
	require.NoError(t, err)
	assert.Len(t, exported, 6)
	assert.Equal(t, ActionRetentionPurge, exported[0].Action)
}

func TestBuildBaseQueryPlaceholders(t *testing.T) {
	query, args := buildBaseQuery("SELECT COUNT(1)", Filter{Action: "a", EntityID: "b"}, dollarPlaceholder)
	assert.Equal(t, "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND action = $1 AND entity_id = $2", query)
	assert.Equal(t, []any{"a", "b"}, args)

	query, args = buildBaseQuery("SELECT id", Filter{EntityID: "b"}, questionPlaceholder)
	assert.Equal(t, "SELECT id FROM audit_events WHERE 1=1 AND entity_id = ?", query)
	assert.Equal(t, []any{"b"}, args)
}
