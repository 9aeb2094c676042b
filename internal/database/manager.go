package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"statefulset-users/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// ErrNotConnected 尚未建立任何連線時回傳
var ErrNotConnected = errors.New("database not connected")

const defaultRetryInterval = 5 * time.Second

// ManagerOptions 設定 Manager 的連線方式與重試間隔
type ManagerOptions struct {
	URL           string
	RetryInterval time.Duration
	// Connect 預設為 NewPgxPool
	Connect func(ctx context.Context, url string) (DB, error)
	// Bootstrap 在連線成功後執行，必須是冪等的
	Bootstrap func(ctx context.Context) error
	Logger    zerolog.Logger
}

// Manager 持有唯一的長連線（pool），並維護 ready 旗標。
// ready 只由 Run 寫入，handler 只讀。
type Manager struct {
	url       string
	interval  time.Duration
	connect   func(ctx context.Context, url string) (DB, error)
	bootstrap func(ctx context.Context) error
	logger    zerolog.Logger

	ready atomic.Bool

	mu sync.RWMutex
	db DB
}

var _ Conn = (*Manager)(nil)

func NewManager(opts ManagerOptions) *Manager {
	m := &Manager{
		url:       opts.URL,
		interval:  opts.RetryInterval,
		connect:   opts.Connect,
		bootstrap: opts.Bootstrap,
		logger:    opts.Logger,
	}
	if m.interval <= 0 {
		m.interval = defaultRetryInterval
	}
	if m.connect == nil {
		m.connect = NewPgxPool
	}
	if m.bootstrap == nil {
		m.bootstrap = func(context.Context) error { return nil }
	}
	return m
}

// Run 反覆嘗試連線並建表，每次失敗後固定等待 interval，沒有次數上限。
// 成功後回傳 nil；ctx 取消時回傳 ctx.Err()。
func (m *Manager) Run(ctx context.Context) error {
	for {
		err := m.initialize(ctx)
		if err == nil {
			return nil
		}
		m.logger.Error().Err(err).Dur("retry_in", m.interval).Msg("database initialization error")

		t := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (m *Manager) initialize(ctx context.Context) error {
	db, err := m.connect(ctx, m.url)
	if err != nil {
		m.setReady(false)
		metrics.IncDBConnectAttempt("connect_error")
		return fmt.Errorf("connect: %w", err)
	}
	m.replace(db)
	m.setReady(true)
	m.logger.Info().Msg("connected to PostgreSQL")

	if err := m.bootstrap(ctx); err != nil {
		m.setReady(false)
		metrics.IncDBConnectAttempt("bootstrap_error")
		return fmt.Errorf("bootstrap: %w", err)
	}
	metrics.IncDBConnectAttempt("success")
	m.logger.Info().Msg("users table ready")
	return nil
}

// replace 換上新的連線並關閉上一次嘗試留下的連線
func (m *Manager) replace(db DB) {
	m.mu.Lock()
	prev := m.db
	m.db = db
	m.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

func (m *Manager) setReady(v bool) {
	m.ready.Store(v)
	metrics.SetDBReady(v)
}

func (m *Manager) current() DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Manager) Ready() bool {
	return m.ready.Load()
}

func (m *Manager) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db := m.current()
	if db == nil {
		return pgconn.CommandTag{}, ErrNotConnected
	}
	return db.Exec(ctx, sql, args...)
}

func (m *Manager) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db := m.current()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.Query(ctx, sql, args...)
}

func (m *Manager) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db := m.current()
	if db == nil {
		return errRow{err: ErrNotConnected}
	}
	return db.QueryRow(ctx, sql, args...)
}

func (m *Manager) Ping(ctx context.Context) error {
	db := m.current()
	if db == nil {
		return ErrNotConnected
	}
	return db.Ping(ctx)
}

// Close 關閉目前的連線並把 ready 歸零
func (m *Manager) Close() {
	m.mu.Lock()
	db := m.db
	m.db = nil
	m.mu.Unlock()
	m.setReady(false)
	if db != nil {
		db.Close()
	}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
