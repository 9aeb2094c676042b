// File: internal/router/router.go
package router

import (
	"statefulset-users/internal/cache"
	"statefulset-users/internal/config"
	"statefulset-users/internal/database"
	"statefulset-users/internal/handler"
	"statefulset-users/internal/handler/users"
	"statefulset-users/internal/metrics"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Setup 註冊所有路由並注入 db、快取與設定
func Setup(e *echo.Echo, db database.Conn, c cache.Cache, cfg *config.Config) {
	opts := users.Options{
		Cache:        c,
		CacheTTL:     cfg.CacheTTL,
		ExposeErrors: cfg.ExposeDBErrors,
	}

	// 診斷與探針
	e.GET("/", handler.DiagnosticHandler(cfg))
	e.GET("/ready", handler.ReadyHandler)
	e.GET("/live", handler.LiveHandler)
	e.GET("/checking", handler.CheckingHandler(cfg))
	e.GET("/db-status", handler.DBStatusHandler(db, cfg.ExposeDBErrors))

	// Users CRUD
	u := e.Group("/users")
	u.GET("", users.ListUsersHandler(db, opts))
	u.GET("/:id", users.GetUserHandler(db, opts))
	u.POST("", users.CreateUserHandler(db, opts))
	u.PUT("/:id", users.UpdateUserHandler(db, opts))
	u.DELETE("/:id", users.DeleteUserHandler(db, opts))

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
