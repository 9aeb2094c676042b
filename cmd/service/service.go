// @title        StatefulSet Users API
// @version      1.0
// @description  Kubernetes StatefulSet 示範服務：診斷端點與 PostgreSQL 使用者 CRUD
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statefulset-users/internal/api"
	"statefulset-users/internal/cache"
	"statefulset-users/internal/config"
	"statefulset-users/internal/database"
	"statefulset-users/internal/middleware"
	"statefulset-users/internal/router"
	"statefulset-users/internal/worker"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	_ "statefulset-users/docs" // 引入 swag 產出的 docs
)

const (
	shutdownTimeout = 10 * time.Second
	// 背景工作只有資料庫重連迴圈
	backgroundWorkers = 1
)

var (
	newManager      = database.NewManager
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool   = worker.NewPool
	exitFunc        = os.Exit

	logOutput io.Writer = os.Stdout
)

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "statefulset-users",
		Usage: "Diagnostic and users CRUD service for a Kubernetes StatefulSet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "set log level (trace, debug, info, warn, error, fatal, panic)",
				Value: cfg.LogLevel,
			},
			&cli.BoolFlag{
				Name:  "log-pretty",
				Usage: "human-readable console logs instead of JSON",
				Value: cfg.LogPretty,
			},
		},
		Before: func(c *cli.Context) error {
			return setupLogger(c.String("log-level"), c.Bool("log-pretty"))
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server (default)",
				Action: func(c *cli.Context) error {
					return serve(c.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply or roll back the users schema",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "Apply all pending migrations",
						Action: func(c *cli.Context) error {
							if err := runMigrationsFn(cfg.DatabaseURL()); err != nil {
								return fmt.Errorf("migrate up: %w", err)
							}
							log.Info().Msg("migrations applied")
							return nil
						},
					},
					{
						Name:  "down",
						Usage: "Roll back every migration (drops the users table)",
						Action: func(c *cli.Context) error {
							if err := rollbackAllFn(cfg.DatabaseURL()); err != nil {
								return fmt.Errorf("migrate down: %w", err)
							}
							log.Info().Msg("migrations rolled back")
							return nil
						},
					},
				},
			},
		},
	}
}

// setupLogger 預設輸出 JSON 到 stdout，pretty 時改用 ConsoleWriter
func setupLogger(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	var out io.Writer = logOutput
	if pretty {
		out = zerolog.ConsoleWriter{Out: logOutput}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger().Level(lvl)
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, cfg)
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log.Logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	return e
}

// run 在背景持續連線資料庫，同時立即開始服務 HTTP；ctx 結束時優雅關閉
func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var userCache cache.Cache = cache.Nop{}
	if cfg.CacheEnabled() {
		rc, err := newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, user cache disabled")
		} else {
			userCache = rc
			log.Info().Str("addr", cfg.RedisAddr).Msg("user cache enabled")
		}
	}
	defer func() {
		if err := userCache.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis failed")
		}
	}()

	mgr := newManager(database.ManagerOptions{
		URL:           cfg.PoolURL(),
		RetryInterval: cfg.DBRetryInterval,
		Bootstrap: func(context.Context) error {
			return runMigrationsFn(cfg.DatabaseURL())
		},
		Logger: log.With().Str("component", "database").Logger(),
	})
	defer mgr.Close()

	// wp.Stop 先於 mgr.Close 執行，確保重連迴圈已結束
	wp := newWorkerPool(ctx, backgroundWorkers)
	defer wp.Stop()
	wp.Submit(func(ctx context.Context) {
		if err := mgr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("database manager stopped")
		}
	})

	e := newEcho(cfg)
	router.Setup(e, mgr, userCache, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := startServer(e, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := e.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func main() {
	if err := newApp(config.Load()).Run(os.Args); err != nil {
		log.Error().Err(err).Msg("service exited")
		exitFunc(1)
	}
}
