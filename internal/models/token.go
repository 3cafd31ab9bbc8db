package models

import "time"

type TokenKind string

const (
	TokenAccess  TokenKind = "ACCESS"
	TokenRefresh TokenKind = "REFRESH"
)

func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Token is the decoded form of a signed session token. It only ever exists
// in memory; the wire form is produced by auth.Codec.
type Token struct {
	SubjectID int64
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
	Issuer    string
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginResult struct {
	MemberID       int64     `json:"member_id"`
	Tokens         TokenPair `json:"tokens"`
	ExistingMember bool      `json:"exist_user"`
}
