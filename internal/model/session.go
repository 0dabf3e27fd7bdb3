package model

import "time"

// Session is the server-side state behind a session token. The user id in
// here is the only user identity the core ever trusts.
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
