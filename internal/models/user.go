package models

// User represents an admin panel user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"` // admin/editor
}

// Credential is one seeded login entry. PasswordHash is a bcrypt hash,
// never serialized into responses.
type Credential struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

// LoginRequest represents login request payload. Email also matches
// against the seeded username.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}
