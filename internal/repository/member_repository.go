package repository

import (
	"context"

	"github.com/honeynil/BooReviewService/internal/models"
)

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.Member, error)
	UpdateNickname(ctx context.Context, id int64, nickname string) (string, error)
	Delete(ctx context.Context, id int64) error
}
