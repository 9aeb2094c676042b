package database

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestManagerNotConnected(t *testing.T) {
	m := NewManager(ManagerOptions{Logger: zerolog.Nop()})
	ctx := context.Background()

	require.False(t, m.Ready())
	_, err := m.Exec(ctx, "SELECT 1")
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = m.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, ErrNotConnected)
	var n int
	require.ErrorIs(t, m.QueryRow(ctx, "SELECT 1").Scan(&n), ErrNotConnected)
	require.ErrorIs(t, m.Ping(ctx), ErrNotConnected)
	m.Close()
}

func TestManagerRunRetriesUntilConnected(t *testing.T) {
	var attempts atomic.Int32
	var buf bytes.Buffer
	fake := &FakeDB{
		PingFn: func(context.Context) error { return nil },
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("SELECT 1"), nil
		},
	}
	m := NewManager(ManagerOptions{
		URL:           "postgres://x",
		RetryInterval: time.Millisecond,
		Connect: func(_ context.Context, url string) (DB, error) {
			require.Equal(t, "postgres://x", url)
			if attempts.Add(1) < 3 {
				return nil, errors.New("connection refused")
			}
			return fake, nil
		},
		Logger: zerolog.New(&buf),
	})

	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, int32(3), attempts.Load())
	require.True(t, m.Ready())
	require.NoError(t, m.Ping(context.Background()))
	tag, err := m.Exec(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.Equal(t, "SELECT 1", tag.String())
	require.Contains(t, buf.String(), "database initialization error")
	require.Contains(t, buf.String(), "users table ready")
}

func TestManagerBootstrapFailureResetsReady(t *testing.T) {
	var closed atomic.Int32
	var boots atomic.Int32
	var readyDuringBootstrap []bool
	var m *Manager
	m = NewManager(ManagerOptions{
		RetryInterval: time.Millisecond,
		Connect: func(context.Context, string) (DB, error) {
			return &FakeDB{CloseFn: func() { closed.Add(1) }}, nil
		},
		Bootstrap: func(context.Context) error {
			readyDuringBootstrap = append(readyDuringBootstrap, m.Ready())
			if boots.Add(1) == 1 {
				return errors.New("permission denied for schema public")
			}
			return nil
		},
		Logger: zerolog.Nop(),
	})

	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, int32(2), boots.Load())
	require.Equal(t, []bool{true, true}, readyDuringBootstrap)
	require.True(t, m.Ready())
	// 第一次失敗留下的連線在重試時被關閉
	require.Equal(t, int32(1), closed.Load())

	m.Close()
	require.False(t, m.Ready())
	require.Equal(t, int32(2), closed.Load())
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	m := NewManager(ManagerOptions{
		RetryInterval: time.Hour,
		Connect: func(context.Context, string) (DB, error) {
			attempts.Add(1)
			return nil, errors.New("no route to host")
		},
		Logger: zerolog.Nop(),
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	require.False(t, m.Ready())
}

func TestManagerDelegates(t *testing.T) {
	queried := false
	fake := &FakeDB{
		QueryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
			queried = true
			return fakeRows{}, nil
		},
		QueryRowFn: func(context.Context, string, ...any) pgx.Row { return errRow{err: pgx.ErrNoRows} },
	}
	m := NewManager(ManagerOptions{
		Connect: func(context.Context, string) (DB, error) { return fake, nil },
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, m.Run(context.Background()))

	rows, err := m.Query(context.Background(), "SELECT * FROM users")
	require.NoError(t, err)
	rows.Close()
	require.True(t, queried)
	require.ErrorIs(t, m.QueryRow(context.Background(), "SELECT 1").Scan(), pgx.ErrNoRows)
}
