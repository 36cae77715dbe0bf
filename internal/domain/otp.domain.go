package domain

import "time"

// OTP purposes. Register and reset map to the public verify modes; email
// verification runs on the authenticated email-attach flow.
const (
	OTPPurposeRegister    = "register"
	OTPPurposeReset       = "reset"
	OTPPurposeVerifyEmail = "verify_email"
)

const (
	OTPChannelSMS   = "sms"
	OTPChannelEmail = "email"
)

// OTP is the audit record persisted alongside the live Redis entry.
type OTP struct {
	ID         string
	PhoneTail  string
	Code       string
	Channel    string
	Purpose    string
	IssuedAt   time.Time
	ValidUntil time.Time
	IsVerified bool
	IsActive   bool
	UpdatedAt  time.Time
}
