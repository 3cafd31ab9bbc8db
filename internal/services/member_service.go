package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	stderrors "errors"

	"github.com/honeynil/BooReviewService/internal/infrastructure/kafka"
	"github.com/honeynil/BooReviewService/internal/models"
	"github.com/honeynil/BooReviewService/internal/repository"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxNicknameLength = 20

type MemberService interface {
	GoogleLoginURL(state string) string
	LoginWithGoogle(ctx context.Context, code string) (*models.LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)
	UpdateNickname(ctx context.Context, memberID int64, nickname string) (string, error)
	DeleteMember(ctx context.Context, memberID int64) error
	ListRevocations(ctx context.Context, memberID int64, limit int) ([]models.Revocation, error)
}

// IdentityProvider is the external login provider (Google in production).
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.GoogleProfile, error)
}

// TokenManager is the part of auth.TokenService the account flows use.
type TokenManager interface {
	Issue(ctx context.Context, subjectID int64) (models.TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, token string, reason models.RevocationReason) error
	RevokeSubject(ctx context.Context, subjectID int64, reason models.RevocationReason) error
}

type memberService struct {
	memberRepo  repository.MemberRepository
	auditRepo   repository.RevocationAuditRepository
	identity    IdentityProvider
	tokens      TokenManager
	producer    kafka.KafkaProducer
	memberTopic string
	now         func() time.Time
}

func NewMemberService(
	memberRepo repository.MemberRepository,
	auditRepo repository.RevocationAuditRepository,
	identity IdentityProvider,
	tokens TokenManager,
	producer kafka.KafkaProducer,
	memberTopic string,
) *memberService {
	return &memberService{
		memberRepo:  memberRepo,
		auditRepo:   auditRepo,
		identity:    identity,
		tokens:      tokens,
		producer:    producer,
		memberTopic: memberTopic,
		now:         time.Now,
	}
}

func (s *memberService) GoogleLoginURL(state string) string {
	return s.identity.AuthCodeURL(state)
}

func (s *memberService) LoginWithGoogle(ctx context.Context, code string) (*models.LoginResult, error) {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "LoginWithGoogle")
	defer span.End()

	profile, err := s.identity.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity exchange failed")
		slog.Warn("google login rejected", "error", err)
		if stderrors.Is(err, pkgerrors.ErrIdentityExchange) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrIdentityExchange, err)
	}

	member, existing, err := s.findOrCreate(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "member lookup failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("member_id", member.ID), attribute.Bool("existing", existing))

	pair, err := s.tokens.Issue(ctx, member.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		slog.Error("failed to issue tokens", "member_id", member.ID, "error", err)
		return nil, err
	}

	if !existing {
		s.publishRegistered(ctx, member)
	}

	slog.Info("member logged in", "member_id", member.ID, "existing", existing)
	return &models.LoginResult{MemberID: member.ID, Tokens: pair, ExistingMember: existing}, nil
}

func (s *memberService) findOrCreate(ctx context.Context, profile *models.GoogleProfile) (*models.Member, bool, error) {
	member, err := s.memberRepo.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		return member, true, nil
	}
	if !stderrors.Is(err, pkgerrors.ErrMemberNotFound) {
		slog.Error("failed to look up member", "google_id", profile.ID, "error", err)
		return nil, false, fmt.Errorf("%w: failed to look up member", pkgerrors.ErrInternal)
	}

	member = &models.Member{
		GoogleID: profile.ID,
		Email:    profile.Email,
		LangCode: models.DefaultLangCode,
	}
	err = s.memberRepo.Create(ctx, member)
	if stderrors.Is(err, pkgerrors.ErrMemberAlreadyExists) {
		// a concurrent first login created the row
		member, err = s.memberRepo.GetByGoogleID(ctx, profile.ID)
		if err != nil {
			slog.Error("failed to load concurrently created member", "google_id", profile.ID, "error", err)
			return nil, false, fmt.Errorf("%w: failed to look up member", pkgerrors.ErrInternal)
		}
		return member, true, nil
	}
	if err != nil {
		slog.Error("failed to create member", "google_id", profile.ID, "error", err)
		return nil, false, fmt.Errorf("%w: failed to create member", pkgerrors.ErrInternal)
	}
	return member, false, nil
}

func (s *memberService) publishRegistered(ctx context.Context, member *models.Member) {
	event := models.MemberRegisteredEvent{
		Type:         models.EventMemberRegistered,
		MemberID:     member.ID,
		GoogleID:     member.GoogleID,
		Email:        member.Email,
		LangCode:     member.LangCode,
		RegisteredAt: s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal kafka event", "member_id", member.ID, "error", err)
		return
	}
	if err := s.producer.Send(ctx, s.memberTopic, member.ID, payload); err != nil {
		slog.Error("failed to publish member registration", "member_id", member.ID, "error", err)
		return
	}
	slog.Info("member registration event sent", "member_id", member.ID)
}

func (s *memberService) RefreshTokens(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "RefreshTokens")
	defer span.End()

	pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		span.SetStatus(codes.Error, "rotation rejected")
		return models.TokenPair{}, err
	}
	return pair, nil
}

func (s *memberService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()

	if err := s.tokens.Revoke(ctx, accessToken, models.ReasonLogout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access revoke failed")
		return err
	}
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, refreshToken, models.ReasonLogout); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh revoke failed")
		return err
	}
	return nil
}

func (s *memberService) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "GetMember")
	defer span.End()
	span.SetAttributes(attribute.Int64("member_id", memberID))

	member, err := s.memberRepo.GetByID(ctx, memberID)
	if stderrors.Is(err, pkgerrors.ErrMemberNotFound) {
		return nil, err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "member lookup failed")
		return nil, fmt.Errorf("%w: failed to get member", pkgerrors.ErrInternal)
	}
	return member, nil
}

func (s *memberService) UpdateNickname(ctx context.Context, memberID int64, nickname string) (string, error) {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "UpdateNickname")
	defer span.End()
	span.SetAttributes(attribute.Int64("member_id", memberID))

	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n == 0 || n > maxNicknameLength {
		span.SetStatus(codes.Error, "invalid nickname")
		return "", fmt.Errorf("%w: must be 1-%d characters", pkgerrors.ErrInvalidNickname, maxNicknameLength)
	}

	stored, err := s.memberRepo.UpdateNickname(ctx, memberID, nickname)
	if stderrors.Is(err, pkgerrors.ErrMemberNotFound) {
		return "", err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "nickname update failed")
		return "", fmt.Errorf("%w: failed to update nickname", pkgerrors.ErrInternal)
	}
	return stored, nil
}

// DeleteMember revokes every token issued to the member before removing the
// row, so a store outage aborts the withdrawal instead of leaving a live
// session behind.
func (s *memberService) DeleteMember(ctx context.Context, memberID int64) error {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "DeleteMember")
	defer span.End()
	span.SetAttributes(attribute.Int64("member_id", memberID))

	if err := s.tokens.RevokeSubject(ctx, memberID, models.ReasonWithdraw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token revoke failed")
		return err
	}

	err := s.memberRepo.Delete(ctx, memberID)
	if stderrors.Is(err, pkgerrors.ErrMemberNotFound) {
		return err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "member delete failed")
		return fmt.Errorf("%w: failed to delete member", pkgerrors.ErrInternal)
	}

	slog.Info("member withdrawn", "member_id", memberID)
	return nil
}

func (s *memberService) ListRevocations(ctx context.Context, memberID int64, limit int) ([]models.Revocation, error) {
	tracer := otel.Tracer("member-service")
	ctx, span := tracer.Start(ctx, "ListRevocations")
	defer span.End()

	revs, err := s.auditRepo.ListBySubject(ctx, memberID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit lookup failed")
		return nil, fmt.Errorf("%w: failed to list revocations", pkgerrors.ErrInternal)
	}
	return revs, nil
}
