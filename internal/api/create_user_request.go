package api

// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required" example:"Ada"`
	Email string `json:"email" validate:"required" example:"ada@example.com"`
}
