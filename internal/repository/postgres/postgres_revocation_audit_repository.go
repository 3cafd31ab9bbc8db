package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const defaultAuditListLimit = 50

type PostgresRevocationAuditRepository struct {
	db *sql.DB
}

func NewPostgresRevocationAuditRepository(db *sql.DB) *PostgresRevocationAuditRepository {
	return &PostgresRevocationAuditRepository{db: db}
}

func (r *PostgresRevocationAuditRepository) Create(ctx context.Context, rev *models.Revocation) (id int64, err error) {
	ctx, span, done := instrument(ctx, "revocation-audit-repository", "CreateRevocation")
	defer done(&err)

	if rev == nil {
		err = pkgerrors.ErrNilRevocation
		slog.Error("failed to record revocation", "method", "Create", "error", err)
		return 0, err
	}
	if rev.SubjectID <= 0 || !rev.Kind.Valid() || rev.Fingerprint == "" {
		err = fmt.Errorf("%w: revocation needs subject, kind and fingerprint", pkgerrors.ErrInvalidInput)
		slog.Error("invalid revocation", "method", "Create", "subject_id", rev.SubjectID, "kind", rev.Kind, "error", err)
		return 0, err
	}
	span.SetAttributes(
		attribute.Int64("subject_id", rev.SubjectID),
		attribute.String("kind", string(rev.Kind)),
		attribute.String("reason", string(rev.Reason)),
	)

	// fingerprints are unique, so a redelivered event does not add a second row
	query := `INSERT INTO token_revocations (subject_id, kind, token_id, fingerprint, reason, revoked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (fingerprint) DO UPDATE SET reason = EXCLUDED.reason
		RETURNING id`
	err = r.db.QueryRowContext(ctx, query,
		rev.SubjectID, rev.Kind, rev.TokenID, rev.Fingerprint, rev.Reason, rev.RevokedAt, rev.ExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Error("failed to record revocation", "method", "Create", "subject_id", rev.SubjectID, "error", err)
		return 0, fmt.Errorf("failed to record revocation: %w", err)
	}

	rev.ID = id
	slog.Info("revocation recorded", "method", "Create", "id", id, "subject_id", rev.SubjectID, "kind", rev.Kind, "reason", rev.Reason)
	return id, nil
}

func (r *PostgresRevocationAuditRepository) ListBySubject(ctx context.Context, subjectID int64, limit int) (revs []models.Revocation, err error) {
	ctx, span, done := instrument(ctx, "revocation-audit-repository", "ListRevocationsBySubject")
	defer done(&err)
	span.SetAttributes(attribute.Int64("subject_id", subjectID))

	if limit <= 0 {
		limit = defaultAuditListLimit
	}

	query := `SELECT id, subject_id, kind, token_id, fingerprint, reason, revoked_at, expires_at
		FROM token_revocations WHERE subject_id = $1 ORDER BY revoked_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, subjectID, limit)
	if err != nil {
		slog.Error("failed to list revocations", "method", "ListBySubject", "subject_id", subjectID, "error", err)
		return nil, fmt.Errorf("failed to list revocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rev models.Revocation
		if err = rows.Scan(&rev.ID, &rev.SubjectID, &rev.Kind, &rev.TokenID, &rev.Fingerprint, &rev.Reason, &rev.RevokedAt, &rev.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan revocation: %w", err)
		}
		revs = append(revs, rev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list revocations: %w", err)
	}
	return revs, nil
}
