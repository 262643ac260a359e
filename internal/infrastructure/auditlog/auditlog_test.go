package auditlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, Event{
		UserID: "user_1", Email: "ama@example.com", Action: "login",
		IP: "10.0.0.1", UserAgent: "test-agent",
		Metadata: map[string]any{"origin": "local"},
	}))
	require.NoError(t, s.Insert(ctx, Event{UserID: "user_1", Action: "logout"}))
	require.NoError(t, s.Insert(ctx, Event{UserID: "user_2", Action: "login"}))

	events, err := s.Recent(ctx, "user_1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// newest first
	require.Equal(t, "logout", events[0].Action)
	require.Equal(t, "login", events[1].Action)
	require.Equal(t, "local", events[1].Metadata["origin"])
	require.Equal(t, "10.0.0.1", events[1].IP)
	require.False(t, events[1].CreatedAt.IsZero())
}

func TestRecentLimitClamped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		require.NoError(t, s.Insert(ctx, Event{UserID: "user_1", Action: "login"}))
	}

	events, err := s.Recent(ctx, "user_1", 0)
	require.NoError(t, err)
	require.Len(t, events, 20)

	events, err = s.Recent(ctx, "user_1", 5)
	require.NoError(t, err)
	require.Len(t, events, 5)
}

func TestRecentUnknownUser(t *testing.T) {
	s := newTestStore(t)
	events, err := s.Recent(context.Background(), "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, events)
}
