package api

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorMessage 取出要回給呼叫端的錯誤文字。
// expose=false 時一律回傳 MsgInternalError，避免洩漏資料庫錯誤細節。
func ErrorMessage(err error, expose bool) string {
	if !expose {
		return MsgInternalError
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	return err.Error()
}
