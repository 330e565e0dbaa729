package handlers

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Password string `json:"password"`
	Operator string `json:"operator"`
}
