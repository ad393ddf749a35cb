package domain

import "time"

// OTPSession is a server-held email verification session. The caller only
// ever sees the opaque session token; the 6-digit code travels out-of-band
// via email and is stored argon2id-hashed. A session is bound to the email
// it was issued for and is destroyed when a verified submission consumes it.
type OTPSession struct {
	ID               string
	TokenFingerprint string // sha256 of the opaque session token
	Email            string
	CodeHash         string // argon2id PHC string
	Attempts         int
	VerifiedAt       *time.Time
	ExpiresAt        time.Time
	CreatedAt        time.Time
}

// Verified reports whether the session's code has been matched.
func (s OTPSession) Verified() bool { return s.VerifiedAt != nil }

// Expired reports whether the session is past its validity window.
func (s OTPSession) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// OTPIssue is returned to the caller after a code has been dispatched.
type OTPIssue struct {
	Token     string
	ExpiresAt time.Time
}
