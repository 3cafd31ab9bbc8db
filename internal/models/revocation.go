package models

import "time"

type RevocationReason string

const (
	ReasonRotation RevocationReason = "rotation"
	ReasonLogout   RevocationReason = "logout"
	ReasonWithdraw RevocationReason = "withdraw"
)

// Revocation is the audit record of a token taken out of service before
// (or after) its natural expiry.
type Revocation struct {
	ID          int64            `json:"id,omitempty"`
	SubjectID   int64            `json:"subject_id"`
	Kind        TokenKind        `json:"kind"`
	TokenID     string           `json:"token_id"`
	Fingerprint string           `json:"fingerprint"`
	Reason      RevocationReason `json:"reason"`
	RevokedAt   time.Time        `json:"revoked_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

const EventTokenRevoked = "token_revoked"

// RevocationEvent is the message published for every revocation. The raw
// token never leaves the process; only its fingerprint does.
type RevocationEvent struct {
	Type string `json:"type"`
	Revocation
}
