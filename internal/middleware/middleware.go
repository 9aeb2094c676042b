package middleware

import (
	"errors"
	"net/http"
	"time"

	"statefulset-users/internal/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// unmatchedRoute 用於沒有對應路由的請求，避免 path 讓 label 爆量
const unmatchedRoute = "unmatched"

// RequestID 為每個請求產生 X-Request-Id（若客戶端已帶則沿用）
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}

// RequestLogger 以 zerolog 輸出每個請求一行 access log
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ev := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = logger.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// Metrics 記錄請求數與延遲，route 取註冊時的 path pattern
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			metrics.ObserveRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

// CORS 允許指定來源跨域呼叫；origins 含 "*" 時允許全部
func CORS(origins []string) echo.MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{echo.HeaderXRequestID},
	})
	return echo.WrapMiddleware(c.Handler)
}
