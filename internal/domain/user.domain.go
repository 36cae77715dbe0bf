package domain

import "time"

// User is one account. Phone tail (last 9 digits) is the login key; email is
// optional and only meaningful once verified.
type User struct {
	ID            string
	PhoneFull     string
	PhoneTail     string
	Email         *string
	PendingEmail  *string
	PINHash       string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public returns the client-facing view. The hash never leaves the server.
func (u *User) Public() map[string]interface{} {
	out := map[string]interface{}{
		"id":            u.ID,
		"phone":         u.PhoneFull,
		"emailVerified": u.EmailVerified,
		"createdAt":     u.CreatedAt,
	}
	if u.Email != nil {
		out["email"] = *u.Email
	}
	return out
}
