package auth

// LoginResult is returned after a successful login.
type LoginResult struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"full_name"`
}

// CSRFToken is the response of the CSRF token endpoint.
type CSRFToken struct {
	Token     string `json:"csrf_token"`
	SessionID string `json:"session_id"`
}
