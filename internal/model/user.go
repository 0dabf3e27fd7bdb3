package model

// User is an account that owns items and batches.
type User struct {
	ID           int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
