package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	src "github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migrateInstance interface {
	Up() error
	Down() error
}

// 以下變數供測試覆寫
var (
	pgxpoolNew             = pgxpool.New
	pingPool               = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
	closePool              = func(p *pgxpool.Pool) { p.Close() }
	sqlOpenDB              = sql.Open
	postgresWithInstanceFn = postgres.WithInstance
	iofsNewFn              = iofs.New
	migrateNewWithInstance = func(sourceName string, sourceDriver src.Driver, databaseName string, databaseDriver dbdriver.Driver) (migrateInstance, error) {
		m, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, databaseDriver)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
)

// NewPgxPool 建立連線池並 Ping 一次；pgxpool.New 本身不會真的連線
func NewPgxPool(ctx context.Context, url string) (DB, error) {
	pool, err := pgxpoolNew(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pingPool(ctx, pool); err != nil {
		closePool(pool)
		return nil, err
	}
	return pool, nil
}

// RunMigrations 執行嵌入的 SQL migration (up all)，已是最新版本不算錯誤
func RunMigrations(dbURL string) error {
	return withMigrator(dbURL, func(m migrateInstance) error { return m.Up() })
}

// RollbackAll 退回所有 migration (down to version 0)
func RollbackAll(dbURL string) error {
	return withMigrator(dbURL, func(m migrateInstance) error { return m.Down() })
}

func withMigrator(dbURL string, step func(migrateInstance) error) error {
	// 使用 pgx stdlib driver 建立 *sql.DB
	sqlDB, err := sqlOpenDB("pgx", dbURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	driver, err := postgresWithInstanceFn(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	sourceDriver, err := iofsNewFn(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	m, err := migrateNewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return err
	}

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
