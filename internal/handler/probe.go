// File: internal/handler/probe.go
package handler

import (
	"fmt"
	"net/http"
	"os"

	"statefulset-users/internal/api"
	"statefulset-users/internal/config"
	"statefulset-users/internal/database"
	"statefulset-users/internal/store"

	"github.com/labstack/echo/v4"
)

const fileNotFound = "File not found"

var (
	readFile = os.ReadFile
	dbStatus = store.DBStatus
)

// DiagnosticHandler 回傳 ConfigMap / Secret / Pod 名稱與 PV 檔案內容
// @Summary     Diagnostic info
// @Description 讀取環境變數與掛載檔案；檔案讀取失敗時回傳 "File not found"
// @Tags        diagnostic
// @Produce     json
// @Success     200 {object} api.DiagnosticResponse
// @Router      / [get]
func DiagnosticHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		content := fileNotFound
		if b, err := readFile(cfg.PVFilePath); err == nil {
			content = string(b)
		}
		return c.JSON(http.StatusOK, api.DiagnosticResponse{
			MessageFromConfigMap: cfg.AppMessage,
			SecretPassword:       cfg.AppPassword,
			PodName:              cfg.Hostname,
			PVFileContent:        content,
		})
	}
}

// ReadyHandler readiness probe，不檢查資料庫
// @Summary     Readiness probe
// @Tags        health
// @Produce     plain
// @Success     200 {string} string "READY"
// @Router      /ready [get]
func ReadyHandler(c echo.Context) error {
	return c.String(http.StatusOK, "READY")
}

// LiveHandler liveness probe
// @Summary     Liveness probe
// @Tags        health
// @Produce     plain
// @Success     200 {string} string "ALIVE"
// @Router      /live [get]
func LiveHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ALIVE")
}

// CheckingHandler 把 ConfigMap 訊息與 Secret 組成一句話
// @Summary     Config echo
// @Tags        diagnostic
// @Produce     plain
// @Success     200 {string} string "configMap message is: No ConfigMap And secret password is: No Secret"
// @Router      /checking [get]
func CheckingHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf(
			"configMap message is: %s And secret password is: %s", cfg.AppMessage, cfg.AppPassword))
	}
}

// DBStatusHandler 直接查詢資料庫時間與版本，不看 ready 旗標
// @Summary     Database status
// @Description 執行 SELECT NOW(), version()，依查詢結果回報連線狀態
// @Tags        health
// @Produce     json
// @Success     200 {object} api.Response{data=model.DBStatus}
// @Failure     500 {object} api.Response
// @Router      /db-status [get]
func DBStatusHandler(db database.DB, exposeErrors bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := dbStatus(c.Request().Context(), db)
		if err != nil {
			resp := api.Fail(api.MsgDBFailed)
			if exposeErrors {
				resp.Details = api.ErrorMessage(err, true)
			}
			return c.JSON(http.StatusInternalServerError, resp)
		}
		return c.JSON(http.StatusOK, api.Response{
			Success: true,
			Message: api.MsgDBConnected,
			Data:    s,
		})
	}
}
