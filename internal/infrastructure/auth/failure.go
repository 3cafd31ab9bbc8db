package auth

import (
	"errors"

	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
)

// Failure is the closed set of outcomes a token check can end in.
type Failure int

const (
	FailureNone Failure = iota
	FailureMalformed
	FailureWrongKind
	FailureBlacklisted
	FailurePremature
	FailureExpiredAccess
	FailureReLoginRequired
	FailureStoreUnavailable
	FailureInternal
)

var failureNames = map[Failure]string{
	FailureNone:             "none",
	FailureMalformed:        "malformed_token",
	FailureWrongKind:        "wrong_token_kind",
	FailureBlacklisted:      "blacklisted_token",
	FailurePremature:        "premature_token",
	FailureExpiredAccess:    "access_token_expired",
	FailureReLoginRequired:  "relogin_required",
	FailureStoreUnavailable: "store_unavailable",
	FailureInternal:         "internal",
}

func (f Failure) String() string {
	if name, ok := failureNames[f]; ok {
		return name
	}
	return "unknown"
}

// FailureOf maps any error returned by TokenService onto a Failure.
func FailureOf(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, pkgerrors.ErrStoreUnavailable):
		return FailureStoreUnavailable
	case errors.Is(err, pkgerrors.ErrMalformedToken):
		return FailureMalformed
	case errors.Is(err, pkgerrors.ErrWrongTokenKind):
		return FailureWrongKind
	case errors.Is(err, pkgerrors.ErrBlacklistedToken):
		return FailureBlacklisted
	case errors.Is(err, pkgerrors.ErrPrematureToken):
		return FailurePremature
	case errors.Is(err, pkgerrors.ErrExpiredAccessToken):
		return FailureExpiredAccess
	case errors.Is(err, pkgerrors.ErrReLoginRequired):
		return FailureReLoginRequired
	default:
		return FailureInternal
	}
}
