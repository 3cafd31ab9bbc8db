package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/honeynil/BooReviewService/internal/infrastructure/observability"
	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

// instrument starts a span and returns a func that records the call outcome
// into the span and the repository metrics.
func instrument(ctx context.Context, tracerName, method string) (context.Context, trace.Span, func(*error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method)
	start := time.Now()
	return ctx, span, func(errp *error) {
		status := "success"
		if *errp != nil {
			status = "error"
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
		}
		observability.RepositoryCalls.WithLabelValues(method, status).Inc()
		observability.RepositoryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		span.End()
	}
}

func (r *PostgresMemberRepository) Create(ctx context.Context, member *models.Member) (err error) {
	ctx, span, done := instrument(ctx, "member-repository", "CreateMember")
	defer done(&err)

	if member == nil {
		err = pkgerrors.ErrNilMember
		slog.Error("failed to create member", "method", "Create", "error", err)
		return err
	}
	if member.GoogleID == "" {
		err = fmt.Errorf("%w: google_id is required", pkgerrors.ErrInvalidInput)
		slog.Error("invalid member", "method", "Create", "error", err)
		return err
	}
	if member.LangCode == "" {
		member.LangCode = models.DefaultLangCode
	}
	if !member.LangCode.Valid() {
		err = fmt.Errorf("%w: unsupported lang_code %q", pkgerrors.ErrInvalidInput, member.LangCode)
		slog.Error("invalid member", "method", "Create", "error", err)
		return err
	}
	span.SetAttributes(attribute.String("google_id", member.GoogleID))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "Create", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `INSERT INTO members (google_id, email, nickname, lang_code) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query, member.GoogleID, member.Email, member.Nickname, member.LangCode).
		Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "method", "Create", "error", rbErr)
			return fmt.Errorf("rollback failed: %v; original error: %w", rbErr, err)
		}
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			slog.Warn("member already exists", "method", "Create", "google_id", member.GoogleID)
			return pkgerrors.ErrMemberAlreadyExists
		}
		slog.Error("failed to create member", "method", "Create", "google_id", member.GoogleID, "error", err)
		return fmt.Errorf("failed to create member: %w", err)
	}

	if err = tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "Create", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("member created", "method", "Create", "member_id", member.ID)
	return nil
}

func (r *PostgresMemberRepository) get(ctx context.Context, method, where string, arg interface{}) (*models.Member, error) {
	var m models.Member
	query := `SELECT id, google_id, email, nickname, lang_code, created_at FROM members WHERE ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&m.ID, &m.GoogleID, &m.Email, &m.Nickname, &m.LangCode, &m.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrMemberNotFound
	}
	if err != nil {
		slog.Error("failed to get member", "method", method, "error", err)
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

func (r *PostgresMemberRepository) GetByID(ctx context.Context, id int64) (m *models.Member, err error) {
	ctx, span, done := instrument(ctx, "member-repository", "GetMemberByID")
	defer done(&err)
	span.SetAttributes(attribute.Int64("member_id", id))

	return r.get(ctx, "GetByID", "id = $1", id)
}

func (r *PostgresMemberRepository) GetByGoogleID(ctx context.Context, googleID string) (m *models.Member, err error) {
	ctx, span, done := instrument(ctx, "member-repository", "GetMemberByGoogleID")
	defer done(&err)
	span.SetAttributes(attribute.String("google_id", googleID))

	if googleID == "" {
		return nil, fmt.Errorf("%w: google_id cannot be empty", pkgerrors.ErrInvalidInput)
	}
	return r.get(ctx, "GetByGoogleID", "google_id = $1", googleID)
}

func (r *PostgresMemberRepository) UpdateNickname(ctx context.Context, id int64, nickname string) (stored string, err error) {
	ctx, span, done := instrument(ctx, "member-repository", "UpdateNickname")
	defer done(&err)
	span.SetAttributes(attribute.Int64("member_id", id))

	query := `UPDATE members SET nickname = $1 WHERE id = $2 RETURNING nickname`
	err = r.db.QueryRowContext(ctx, query, nickname, id).Scan(&stored)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrMemberNotFound
		return "", err
	}
	if err != nil {
		slog.Error("failed to update nickname", "method", "UpdateNickname", "member_id", id, "error", err)
		return "", fmt.Errorf("failed to update nickname: %w", err)
	}

	slog.Info("nickname updated", "method", "UpdateNickname", "member_id", id)
	return stored, nil
}

func (r *PostgresMemberRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, span, done := instrument(ctx, "member-repository", "DeleteMember")
	defer done(&err)
	span.SetAttributes(attribute.Int64("member_id", id))

	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete member", "method", "Delete", "member_id", id, "error", err)
		return fmt.Errorf("failed to delete member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n == 0 {
		err = pkgerrors.ErrMemberNotFound
		return err
	}

	slog.Info("member deleted", "method", "Delete", "member_id", id)
	return nil
}
