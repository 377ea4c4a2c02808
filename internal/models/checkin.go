package models

import "time"

// CheckInMethod is how an attendance record was captured.
type CheckInMethod string

const (
	CheckInQR     CheckInMethod = "QR"
	CheckInManual CheckInMethod = "MANUAL"
)

// TokenKind separates QR tokens from manual window activations; both share
// the same window/expiry model.
type TokenKind string

const (
	TokenKindQR     TokenKind = "QR"
	TokenKindManual TokenKind = "MANUAL"
)

// CheckInToken opens a check-in window for a session. Uses is a shared
// counter consumed atomically; MaxUses 0 means unlimited (manual windows).
type CheckInToken struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Kind      TokenKind `db:"kind" json:"kind"`
	Secret    string    `db:"secret" json:"-"`
	MaxUses   int       `db:"max_uses" json:"max_uses"`
	Uses      int       `db:"uses" json:"uses"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Remaining returns the remaining capacity, or -1 when unlimited.
func (t CheckInToken) Remaining() int {
	if t.MaxUses <= 0 {
		return -1
	}
	return t.MaxUses - t.Uses
}
