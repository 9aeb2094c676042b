// File: internal/api/response.go
package api

const (
	MsgNotReady          = "Database not connected yet. Please try again in a moment."
	MsgNameEmailRequired = "Name and email are required"
	MsgInvalidBody       = "Invalid request body"
	MsgUserNotFound      = "User not found"
	MsgInternalError     = "internal server error"
	MsgUserCreated       = "User created successfully"
	MsgUserUpdated       = "User updated successfully"
	MsgUserDeleted       = "User deleted successfully"
	MsgDBConnected       = "Database is connected"
	MsgDBFailed          = "Database connection failed"
)

// Response 所有資料端點共用的回應格式
// swagger:model api.Response
type Response struct {
	Success bool   `json:"success" example:"true"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty" example:"User not found"`
	Message string `json:"message,omitempty" example:"User created successfully"`
	Count   *int   `json:"count,omitempty" example:"1"`
	Details string `json:"details,omitempty"`
}

// Fail 建立 success=false 的回應
func Fail(msg string) Response {
	return Response{Success: false, Error: msg}
}

// Count 回傳 n 的指標，讓 count=0 仍會輸出
func Count(n int) *int {
	return &n
}
