// File: internal/api/update_user_request.go
package api

// swagger:model api.UpdateUserRequest
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required" example:"Ada Lovelace"`
	Email string `json:"email" validate:"required" example:"ada@example.com"`
}
