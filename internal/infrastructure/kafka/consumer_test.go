package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/honeynil/BooReviewService/internal/models"
	repositorymocks "github.com/honeynil/BooReviewService/internal/repository/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumer_HandleMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	auditRepo := repositorymocks.NewMockRevocationAuditRepository(ctrl)
	c := &Consumer{auditRepo: auditRepo}
	ctx := context.Background()
	revokedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rev := models.Revocation{
		SubjectID:   42,
		Kind:        models.TokenRefresh,
		TokenID:     "jti-1",
		Fingerprint: "ab12",
		Reason:      models.ReasonLogout,
		RevokedAt:   revokedAt,
		ExpiresAt:   revokedAt.Add(time.Hour),
	}

	t.Run("stores revocation", func(t *testing.T) {
		payload, err := json.Marshal(models.RevocationEvent{Type: models.EventTokenRevoked, Revocation: rev})
		require.NoError(t, err)

		auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, got *models.Revocation) (int64, error) {
				assert.Equal(t, rev.SubjectID, got.SubjectID)
				assert.Equal(t, rev.Kind, got.Kind)
				assert.Equal(t, rev.Fingerprint, got.Fingerprint)
				assert.Equal(t, rev.Reason, got.Reason)
				assert.True(t, rev.ExpiresAt.Equal(got.ExpiresAt))
				return 1, nil
			})

		assert.NoError(t, c.handleMessage(ctx, payload))
	})

	t.Run("invalid json", func(t *testing.T) {
		assert.ErrorIs(t, c.handleMessage(ctx, []byte("{")), errMalformedEvent)
	})

	t.Run("unknown type is skipped", func(t *testing.T) {
		assert.NoError(t, c.handleMessage(ctx, []byte(`{"type":"member_registered","member_id":1}`)))
	})

	t.Run("repository error", func(t *testing.T) {
		payload, err := json.Marshal(models.RevocationEvent{Type: models.EventTokenRevoked, Revocation: rev})
		require.NoError(t, err)
		auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database error"))

		assert.Error(t, c.handleMessage(ctx, payload))
	})
}

func TestConsumer_ProcessRetries(t *testing.T) {
	ctx := context.Background()
	payload, err := json.Marshal(models.RevocationEvent{
		Type:       models.EventTokenRevoked,
		Revocation: models.Revocation{SubjectID: 42, Kind: models.TokenAccess, Fingerprint: "cd34", Reason: models.ReasonWithdraw},
	})
	require.NoError(t, err)

	t.Run("transient failure then stored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		auditRepo := repositorymocks.NewMockRevocationAuditRepository(ctrl)
		c := &Consumer{auditRepo: auditRepo, retryDelay: time.Millisecond}

		gomock.InOrder(
			auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection reset by peer")),
			auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(7), nil),
		)

		assert.NoError(t, c.process(ctx, payload))
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		auditRepo := repositorymocks.NewMockRevocationAuditRepository(ctrl)
		c := &Consumer{auditRepo: auditRepo, retryDelay: time.Millisecond}
		dbErr := errors.New("database error")

		auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(0), dbErr).Times(maxHandleAttempts)

		assert.ErrorIs(t, c.process(ctx, payload), dbErr)
	})

	t.Run("malformed event is not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		auditRepo := repositorymocks.NewMockRevocationAuditRepository(ctrl)
		c := &Consumer{auditRepo: auditRepo, retryDelay: time.Millisecond}

		assert.ErrorIs(t, c.process(ctx, []byte("not json")), errMalformedEvent)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		auditRepo := repositorymocks.NewMockRevocationAuditRepository(ctrl)
		c := &Consumer{auditRepo: auditRepo, retryDelay: time.Hour}
		cctx, cancel := context.WithCancel(ctx)

		auditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, *models.Revocation) (int64, error) {
				cancel()
				return 0, errors.New("database error")
			})

		assert.ErrorIs(t, c.process(cctx, payload), context.Canceled)
	})
}
