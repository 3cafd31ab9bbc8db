package repository

import (
	"context"

	"github.com/honeynil/BooReviewService/internal/models"
)

// RevocationAuditRepository persists the audit trail of revoked tokens.
// It is never consulted when verifying a token.
type RevocationAuditRepository interface {
	Create(ctx context.Context, rev *models.Revocation) (int64, error)
	ListBySubject(ctx context.Context, subjectID int64, limit int) ([]models.Revocation, error)
}
