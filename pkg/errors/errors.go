package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrNilMember           = errors.New("member is nil")
	ErrNilRevocation       = errors.New("revocation record is nil")
	ErrInvalidNickname     = errors.New("invalid nickname")
	ErrInvalidSubject      = errors.New("subject id must be positive")
	ErrIdentityExchange    = errors.New("identity exchange failed")
	ErrInternal            = fmt.Errorf("internal error")
	ErrInvalidInput        = fmt.Errorf("invalid input")

	// Token failures. Callers switch on auth.FailureOf rather than on these directly.
	ErrMalformedToken     = errors.New("malformed token")
	ErrWrongTokenKind     = errors.New("wrong token kind")
	ErrBlacklistedToken   = errors.New("token is blacklisted")
	ErrPrematureToken     = errors.New("token issued in the future")
	ErrExpiredAccessToken = errors.New("access token expired")
	ErrReLoginRequired    = errors.New("refresh token expired, login required")
	ErrStoreUnavailable   = errors.New("revocation store unavailable")
)
