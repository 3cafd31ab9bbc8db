package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"github.com/honeynil/BooReviewService/internal/infrastructure/observability"
	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const bearerPrefix = "Bearer "

// RevocationRecorder receives an audit record for every revocation decision.
// Recording is best effort: errors are logged and never fail the caller.
type RevocationRecorder interface {
	RecordRevocation(ctx context.Context, rev models.Revocation, token string) error
}

type Option func(*TokenService)

func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func WithRecorder(r RevocationRecorder) Option {
	return func(s *TokenService) { s.recorder = r }
}

// TokenService is the only component that mints, verifies, rotates and
// revokes session tokens. Apart from the store it holds no mutable state.
type TokenService struct {
	codec      *Codec
	store      RevocationStore
	recorder   RevocationRecorder
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(codec *Codec, store RevocationStore, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenService, error) {
	if codec == nil || store == nil {
		return nil, fmt.Errorf("codec and revocation store are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive (access=%s, refresh=%s)", accessTTL, refreshTTL)
	}
	s := &TokenService{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func blacklistKey(kind models.TokenKind, subjectID int64) string {
	return fmt.Sprintf("blacklist:%s:%d", kind, subjectID)
}

// revokedBy reports whether a token falls under the subject's revocation
// mark. Token IDs are canonical UUIDv7 strings, which sort in mint order, so
// the mark revokes the token it was taken from and every older one.
func revokedBy(token models.Token, mark string) bool {
	return token.ID <= mark
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", fmt.Errorf("%w: authorization header must start with %q", pkgerrors.ErrMalformedToken, bearerPrefix)
	}
	token := header[len(bearerPrefix):]
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", pkgerrors.ErrMalformedToken)
	}
	return token, nil
}

func (s *TokenService) ttl(kind models.TokenKind) time.Duration {
	if kind == models.TokenAccess {
		return s.accessTTL
	}
	return s.refreshTTL
}

func (s *TokenService) mint(subjectID int64, kind models.TokenKind, issuedAt time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	return s.codec.Encode(models.Token{
		SubjectID: subjectID,
		Kind:      kind,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl(kind)),
		ID:        id.String(),
		Issuer:    s.codec.Issuer(),
	})
}

func (s *TokenService) Issue(ctx context.Context, subjectID int64) (models.TokenPair, error) {
	tracer := otel.Tracer("token-service")
	_, span := tracer.Start(ctx, "Issue")
	defer span.End()
	span.SetAttributes(attribute.Int64("subject_id", subjectID))

	if subjectID <= 0 {
		span.SetStatus(codes.Error, "invalid subject")
		observability.TokenOperations.WithLabelValues("issue", "invalid_subject").Inc()
		return models.TokenPair{}, fmt.Errorf("%w: %d", pkgerrors.ErrInvalidSubject, subjectID)
	}

	issuedAt := time.UnixMilli(s.now().UnixMilli())
	access, err := s.mint(subjectID, models.TokenAccess, issuedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access token encoding failed")
		slog.Error("failed to encode access token", "subject_id", subjectID, "error", err)
		observability.TokenOperations.WithLabelValues("issue", FailureInternal.String()).Inc()
		return models.TokenPair{}, fmt.Errorf("%w: %v", pkgerrors.ErrInternal, err)
	}
	refresh, err := s.mint(subjectID, models.TokenRefresh, issuedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh token encoding failed")
		slog.Error("failed to encode refresh token", "subject_id", subjectID, "error", err)
		observability.TokenOperations.WithLabelValues("issue", FailureInternal.String()).Inc()
		return models.TokenPair{}, fmt.Errorf("%w: %v", pkgerrors.ErrInternal, err)
	}

	observability.TokenOperations.WithLabelValues("issue", "ok").Inc()
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) VerifyAccess(ctx context.Context, tokenStr string) (int64, error) {
	token, err := s.verify(ctx, tokenStr, models.TokenAccess)
	if err != nil {
		return 0, err
	}
	return token.SubjectID, nil
}

func (s *TokenService) VerifyRefresh(ctx context.Context, tokenStr string) (int64, error) {
	token, err := s.verify(ctx, tokenStr, models.TokenRefresh)
	if err != nil {
		return 0, err
	}
	return token.SubjectID, nil
}

// verify runs the checks in a fixed order: signature/shape, kind, blacklist,
// issued-at, expiry. The first failing check decides the reported error.
func (s *TokenService) verify(ctx context.Context, tokenStr string, want models.TokenKind) (token models.Token, err error) {
	tracer := otel.Tracer("token-service")
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(want)))

	operation := "verify_" + strings.ToLower(string(want))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = FailureOf(err).String()
			span.SetStatus(codes.Error, outcome)
		}
		observability.TokenOperations.WithLabelValues(operation, outcome).Inc()
	}()

	token, err = s.codec.Decode(tokenStr)
	if err != nil {
		slog.Warn("rejected undecodable token", "kind", want, "error", err)
		return models.Token{}, err
	}
	span.SetAttributes(attribute.Int64("subject_id", token.SubjectID))

	if token.Kind != want {
		slog.Warn("rejected token of wrong kind", "subject_id", token.SubjectID, "want", want, "got", token.Kind)
		return models.Token{}, fmt.Errorf("%w: want %s, got %s", pkgerrors.ErrWrongTokenKind, want, token.Kind)
	}

	mark, err := s.store.Lookup(ctx, blacklistKey(want, token.SubjectID))
	switch {
	case err == nil && revokedBy(token, mark):
		slog.Warn("rejected blacklisted token", "subject_id", token.SubjectID, "kind", want, "token_id", token.ID)
		return models.Token{}, pkgerrors.ErrBlacklistedToken
	case err == nil, stderrors.Is(err, ErrKeyNotFound):
		// a subject with no blacklist entry is simply not blacklisted
	default:
		span.RecordError(err)
		slog.Error("revocation store lookup failed", "subject_id", token.SubjectID, "error", err)
		return models.Token{}, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}

	now := s.now()
	if token.IssuedAt.After(now) {
		slog.Warn("rejected premature token", "subject_id", token.SubjectID, "issued_at", token.IssuedAt)
		return models.Token{}, pkgerrors.ErrPrematureToken
	}
	if !now.Before(token.ExpiresAt) {
		if want == models.TokenAccess {
			return models.Token{}, pkgerrors.ErrExpiredAccessToken
		}
		return models.Token{}, pkgerrors.ErrReLoginRequired
	}

	return token, nil
}

// Rotate exchanges a valid refresh token for a new pair and blacklists the
// presented one together with every older refresh token of the subject. Two
// concurrent rotations of the same token may both succeed.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	tracer := otel.Tracer("token-service")
	ctx, span := tracer.Start(ctx, "Rotate")
	defer span.End()

	old, err := s.verify(ctx, refreshToken, models.TokenRefresh)
	if err != nil {
		span.SetStatus(codes.Error, "refresh token rejected")
		return models.TokenPair{}, err
	}

	if err := s.store.Raise(ctx, blacklistKey(models.TokenRefresh, old.SubjectID), old.ID, old.ExpiresAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to blacklist refresh token")
		slog.Error("failed to blacklist rotated refresh token", "subject_id", old.SubjectID, "error", err)
		observability.TokenOperations.WithLabelValues("rotate", FailureStoreUnavailable.String()).Inc()
		return models.TokenPair{}, fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
	}
	s.record(ctx, old, refreshToken, models.ReasonRotation)

	pair, err := s.Issue(ctx, old.SubjectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to issue rotated pair")
		return models.TokenPair{}, err
	}

	observability.TokenOperations.WithLabelValues("rotate", "ok").Inc()
	slog.Info("refresh token rotated", "subject_id", old.SubjectID, "old_token_id", old.ID)
	return pair, nil
}

// Revoke blacklists a token, and every older token of the same kind and
// subject, without the kind or temporal checks, so a token cannot escape
// revocation by being presented past its expiry.
func (s *TokenService) Revoke(ctx context.Context, tokenStr string, reason models.RevocationReason) error {
	tracer := otel.Tracer("token-service")
	ctx, span := tracer.Start(ctx, "Revoke")
	defer span.End()

	token, err := s.codec.Decode(tokenStr)
	if err != nil {
		span.SetStatus(codes.Error, "malformed token")
		observability.TokenOperations.WithLabelValues("revoke", FailureMalformed.String()).Inc()
		return err
	}
	span.SetAttributes(
		attribute.Int64("subject_id", token.SubjectID),
		attribute.String("kind", string(token.Kind)),
	)

	if s.now().Before(token.ExpiresAt) {
		if err := s.store.Raise(ctx, blacklistKey(token.Kind, token.SubjectID), token.ID, token.ExpiresAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to blacklist token")
			slog.Error("failed to blacklist token", "subject_id", token.SubjectID, "kind", token.Kind, "error", err)
			observability.TokenOperations.WithLabelValues("revoke", FailureStoreUnavailable.String()).Inc()
			return fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
		}
	} else {
		slog.Info("revoking already expired token", "subject_id", token.SubjectID, "kind", token.Kind)
	}
	s.record(ctx, token, tokenStr, reason)

	observability.TokenOperations.WithLabelValues("revoke", "ok").Inc()
	slog.Info("token revoked", "subject_id", token.SubjectID, "kind", token.Kind, "reason", reason)
	return nil
}

// RevokeSubject blacklists every access and refresh token issued to the
// subject so far. Tokens minted afterwards are unaffected.
func (s *TokenService) RevokeSubject(ctx context.Context, subjectID int64, reason models.RevocationReason) error {
	tracer := otel.Tracer("token-service")
	ctx, span := tracer.Start(ctx, "RevokeSubject")
	defer span.End()
	span.SetAttributes(attribute.Int64("subject_id", subjectID))

	if subjectID <= 0 {
		span.SetStatus(codes.Error, "invalid subject")
		observability.TokenOperations.WithLabelValues("revoke_subject", "invalid_subject").Inc()
		return fmt.Errorf("%w: %d", pkgerrors.ErrInvalidSubject, subjectID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		span.RecordError(err)
		observability.TokenOperations.WithLabelValues("revoke_subject", FailureInternal.String()).Inc()
		return fmt.Errorf("%w: %v", pkgerrors.ErrInternal, err)
	}
	mark := id.String()
	now := time.UnixMilli(s.now().UnixMilli())

	for _, kind := range []models.TokenKind{models.TokenRefresh, models.TokenAccess} {
		key := blacklistKey(kind, subjectID)
		expiresAt := now.Add(s.ttl(kind))
		if err := s.store.Raise(ctx, key, mark, expiresAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to blacklist subject")
			slog.Error("failed to blacklist subject", "subject_id", subjectID, "kind", kind, "error", err)
			observability.TokenOperations.WithLabelValues("revoke_subject", FailureStoreUnavailable.String()).Inc()
			return fmt.Errorf("%w: %v", pkgerrors.ErrStoreUnavailable, err)
		}
		// no token string exists here; the key and mark identify the audit row
		s.record(ctx, models.Token{
			SubjectID: subjectID,
			Kind:      kind,
			ExpiresAt: expiresAt,
			ID:        mark,
		}, key+":"+mark, reason)
	}

	observability.TokenOperations.WithLabelValues("revoke_subject", "ok").Inc()
	slog.Info("subject tokens revoked", "subject_id", subjectID, "reason", reason)
	return nil
}

func (s *TokenService) record(ctx context.Context, token models.Token, tokenStr string, reason models.RevocationReason) {
	if s.recorder == nil {
		return
	}
	rev := models.Revocation{
		SubjectID: token.SubjectID,
		Kind:      token.Kind,
		TokenID:   token.ID,
		Reason:    reason,
		RevokedAt: s.now(),
		ExpiresAt: token.ExpiresAt,
	}
	if err := s.recorder.RecordRevocation(ctx, rev, tokenStr); err != nil {
		slog.Error("failed to record revocation", "subject_id", token.SubjectID, "kind", token.Kind, "error", err)
	}
}
