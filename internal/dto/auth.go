package dto

// LoginRequest carries administrator credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
