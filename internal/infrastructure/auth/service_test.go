package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/honeynil/BooReviewService/internal/models"
	pkgerrors "github.com/honeynil/BooReviewService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessTTL  = 30 * time.Minute
	testRefreshTTL = 14 * 24 * time.Hour
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_760_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorderStub struct {
	mu   sync.Mutex
	revs []models.Revocation
	err  error
}

func (r *recorderStub) RecordRevocation(_ context.Context, rev models.Revocation, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revs = append(r.revs, rev)
	return r.err
}

// brokenStore fails every call, standing in for an unreachable Redis.
type brokenStore struct{}

var errStoreDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (brokenStore) Put(context.Context, string, string, time.Time) error   { return errStoreDown }
func (brokenStore) Raise(context.Context, string, string, time.Time) error { return errStoreDown }
func (brokenStore) Lookup(context.Context, string) (string, error)       { return "", errStoreDown }
func (brokenStore) Contains(context.Context, string) (bool, error)       { return false, errStoreDown }

// stickyStore never expires its entries, so a blacklist hit can be observed
// on tokens that are also outside their validity window.
type stickyStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func (s *stickyStore) Put(_ context.Context, key, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = token
	return nil
}

func (s *stickyStore) Raise(_ context.Context, key, mark string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mark > s.entries[key] {
		s.entries[key] = mark
	}
	return nil
}

func (s *stickyStore) Lookup(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *stickyStore) Contains(ctx context.Context, key string) (bool, error) {
	_, err := s.Lookup(ctx, key)
	return err == nil, nil
}

type fixture struct {
	svc      *TokenService
	store    *MemoryStore
	clock    *fakeClock
	recorder *recorderStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	store := NewMemoryStore().WithClock(clock.Now)
	recorder := &recorderStub{}
	svc, err := NewTokenService(newTestCodec(t), store, testAccessTTL, testRefreshTTL, WithClock(clock.Now), WithRecorder(recorder))
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, clock: clock, recorder: recorder}
}

func TestNewTokenService_Validation(t *testing.T) {
	codec := newTestCodec(t)

	_, err := NewTokenService(nil, NewMemoryStore(), time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(codec, nil, time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(codec, NewMemoryStore(), 0, time.Hour)
	assert.Error(t, err)
}

func TestTokenService_IssueThenVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, subject := range []int64{1, 42, 9_007_199_254_740_993} {
		pair, err := f.svc.Issue(ctx, subject)
		require.NoError(t, err)
		assert.NotEqual(t, pair.Access, pair.Refresh)

		got, err := f.svc.VerifyAccess(ctx, pair.Access)
		require.NoError(t, err)
		assert.Equal(t, subject, got)

		got, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
		require.NoError(t, err)
		assert.Equal(t, subject, got)
	}
}

func TestTokenService_IssueSetsKindSpecificExpiry(t *testing.T) {
	f := newFixture(t)
	pair, err := f.svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	access, err := f.svc.codec.Decode(pair.Access)
	require.NoError(t, err)
	refresh, err := f.svc.codec.Decode(pair.Refresh)
	require.NoError(t, err)

	assert.True(t, access.IssuedAt.Equal(f.clock.Now()))
	assert.Equal(t, testAccessTTL, access.ExpiresAt.Sub(access.IssuedAt))
	assert.Equal(t, testRefreshTTL, refresh.ExpiresAt.Sub(refresh.IssuedAt))
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestTokenService_IssueRejectsNonPositiveSubject(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Issue(context.Background(), 0)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidSubject)
}

func TestTokenService_WrongKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	_, err = f.svc.VerifyAccess(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrWrongTokenKind)
	assert.Equal(t, FailureWrongKind, FailureOf(err))

	_, err = f.svc.VerifyRefresh(ctx, pair.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrWrongTokenKind)
	assert.NotEqual(t, FailureMalformed, FailureOf(err))
}

func TestTokenService_TamperedTokenIsMalformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	raw := []byte(pair.Access)
	i := len(raw) - 10
	if raw[i] == 'x' {
		raw[i] = 'y'
	} else {
		raw[i] = 'x'
	}

	_, err = f.svc.VerifyAccess(ctx, string(raw))
	assert.Equal(t, FailureMalformed, FailureOf(err))
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(testAccessTTL - time.Millisecond)
	_, err = f.svc.VerifyAccess(ctx, pair.Access)
	require.NoError(t, err)

	f.clock.Advance(time.Millisecond)
	_, err = f.svc.VerifyAccess(ctx, pair.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrExpiredAccessToken)
	assert.Equal(t, FailureExpiredAccess, FailureOf(err))
}

func TestTokenService_ExpiredRefreshRequiresLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(testRefreshTTL)
	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrReLoginRequired)

	_, err = f.svc.Rotate(ctx, pair.Refresh)
	assert.Equal(t, FailureReLoginRequired, FailureOf(err))
}

func TestTokenService_PrematureToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(-time.Millisecond)
	_, err = f.svc.VerifyAccess(ctx, pair.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrPrematureToken)
}

func TestTokenService_RotationInvalidatesOldRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	rotated, err := f.svc.Rotate(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)

	_, err = f.svc.Rotate(ctx, pair.Refresh)
	assert.Equal(t, FailureBlacklisted, FailureOf(err))

	got, err := f.svc.VerifyRefresh(ctx, rotated.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	require.Len(t, f.recorder.revs, 1)
	assert.Equal(t, models.ReasonRotation, f.recorder.revs[0].Reason)
	assert.Equal(t, models.TokenRefresh, f.recorder.revs[0].Kind)
}

func TestTokenService_ExpiredAccessThenRotateScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(testAccessTTL + time.Second)

	_, err = f.svc.VerifyAccess(ctx, pair.Access)
	require.ErrorIs(t, err, pkgerrors.ErrExpiredAccessToken)

	fresh, err := f.svc.Rotate(ctx, pair.Refresh)
	require.NoError(t, err)

	got, err := f.svc.VerifyAccess(ctx, fresh.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
}

func TestTokenService_BlacklistBeatsTemporalChecks(t *testing.T) {
	clock := newFakeClock()
	store := &stickyStore{entries: make(map[string]string)}
	svc, err := NewTokenService(newTestCodec(t), store, testAccessTTL, testRefreshTTL, WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, pair.Access, models.ReasonLogout))
	require.NoError(t, svc.Revoke(ctx, pair.Refresh, models.ReasonLogout))

	t.Run("expired", func(t *testing.T) {
		clock.Advance(testRefreshTTL + time.Hour)
		defer clock.Advance(-(testRefreshTTL + time.Hour))

		_, err := svc.VerifyAccess(ctx, pair.Access)
		assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
		assert.Equal(t, FailureBlacklisted, FailureOf(err))

		_, err = svc.VerifyRefresh(ctx, pair.Refresh)
		assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	})

	t.Run("premature", func(t *testing.T) {
		clock.Advance(-time.Hour)
		defer clock.Advance(time.Hour)

		_, err := svc.VerifyAccess(ctx, pair.Access)
		assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
		assert.Equal(t, FailureBlacklisted, FailureOf(err))
	})
}

func TestTokenService_NoBlacklistEntryIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Zero(t, f.store.Len())

	pair, err := f.svc.Issue(ctx, 1001)
	require.NoError(t, err)

	got, err := f.svc.VerifyRefresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got)
}

func TestTokenService_BlacklistIsPerSubjectAndMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)
	other, err := f.svc.Issue(ctx, 43)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, first.Access, models.ReasonLogout))

	_, err = f.svc.VerifyAccess(ctx, first.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.VerifyAccess(ctx, second.Access)
	assert.NoError(t, err)
	_, err = f.svc.VerifyAccess(ctx, other.Access)
	assert.NoError(t, err)

	// a newer revocation covers the older token too
	require.NoError(t, f.svc.Revoke(ctx, second.Access, models.ReasonLogout))
	_, err = f.svc.VerifyAccess(ctx, second.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.VerifyAccess(ctx, first.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)

	// revoking an older token again does not lower the mark
	require.NoError(t, f.svc.Revoke(ctx, first.Access, models.ReasonLogout))
	_, err = f.svc.VerifyAccess(ctx, second.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)

	_, err = f.svc.VerifyAccess(ctx, other.Access)
	assert.NoError(t, err)
	_, err = f.svc.VerifyRefresh(ctx, second.Refresh)
	assert.NoError(t, err)
}

func TestTokenService_SecondRotationKeepsFirstTokenRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)
	second, err := f.svc.Rotate(ctx, first.Refresh)
	require.NoError(t, err)
	third, err := f.svc.Rotate(ctx, second.Refresh)
	require.NoError(t, err)

	_, err = f.svc.VerifyRefresh(ctx, first.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.Rotate(ctx, first.Refresh)
	assert.Equal(t, FailureBlacklisted, FailureOf(err))
	_, err = f.svc.VerifyRefresh(ctx, second.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)

	got, err := f.svc.VerifyRefresh(ctx, third.Refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestTokenService_LogoutAfterRotationKeepsFirstTokenRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)
	second, err := f.svc.Rotate(ctx, first.Refresh)
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, second.Refresh, models.ReasonLogout))

	_, err = f.svc.VerifyRefresh(ctx, first.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.Rotate(ctx, first.Refresh)
	assert.Equal(t, FailureBlacklisted, FailureOf(err))
	_, err = f.svc.Rotate(ctx, second.Refresh)
	assert.Equal(t, FailureBlacklisted, FailureOf(err))
}

func TestTokenService_RevokeSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)
	other, err := f.svc.Issue(ctx, 43)
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeSubject(ctx, 42, models.ReasonWithdraw))

	_, err = f.svc.VerifyAccess(ctx, pair.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
	_, err = f.svc.Rotate(ctx, pair.Refresh)
	assert.Equal(t, FailureBlacklisted, FailureOf(err))

	_, err = f.svc.VerifyRefresh(ctx, other.Refresh)
	assert.NoError(t, err)

	// the marks outlive every token issued before the call
	f.clock.Advance(testRefreshTTL - time.Millisecond)
	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)

	require.Len(t, f.recorder.revs, 2)
	for _, rev := range f.recorder.revs {
		assert.Equal(t, int64(42), rev.SubjectID)
		assert.Equal(t, models.ReasonWithdraw, rev.Reason)
	}

	assert.ErrorIs(t, f.svc.RevokeSubject(ctx, 0, models.ReasonWithdraw), pkgerrors.ErrInvalidSubject)
}

func TestTokenService_RevokeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, pair.Refresh, models.ReasonLogout))
	onceLen := f.store.Len()
	onceVal, err := f.store.Lookup(ctx, blacklistKey(models.TokenRefresh, 42))
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, pair.Refresh, models.ReasonLogout))
	twiceVal, err := f.store.Lookup(ctx, blacklistKey(models.TokenRefresh, 42))
	require.NoError(t, err)

	assert.Equal(t, onceLen, f.store.Len())
	assert.Equal(t, onceVal, twiceVal)
	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
}

func TestTokenService_RevokeExpiredTokenOnlyAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	f.clock.Advance(testAccessTTL)
	require.NoError(t, f.svc.Revoke(ctx, pair.Access, models.ReasonLogout))

	assert.Zero(t, f.store.Len())
	require.Len(t, f.recorder.revs, 1)
	assert.Equal(t, models.TokenAccess, f.recorder.revs[0].Kind)
}

func TestTokenService_RevokeMalformed(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Revoke(context.Background(), "garbage", models.ReasonLogout)
	assert.Equal(t, FailureMalformed, FailureOf(err))
	assert.Empty(t, f.recorder.revs)
}

func TestTokenService_RecorderErrorDoesNotFailRevocation(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("kafka down")
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	assert.NoError(t, f.svc.Revoke(ctx, pair.Access, models.ReasonLogout))
}

func TestTokenService_FailsClosedWhenStoreUnavailable(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(newTestCodec(t), brokenStore{}, testAccessTTL, testRefreshTTL, WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, 42)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(ctx, pair.Access)
	assert.ErrorIs(t, err, pkgerrors.ErrStoreUnavailable)
	assert.Equal(t, FailureStoreUnavailable, FailureOf(err))

	_, err = svc.Rotate(ctx, pair.Refresh)
	assert.Equal(t, FailureStoreUnavailable, FailureOf(err))

	err = svc.Revoke(ctx, pair.Refresh, models.ReasonLogout)
	assert.Equal(t, FailureStoreUnavailable, FailureOf(err))

	err = svc.RevokeSubject(ctx, 42, models.ReasonWithdraw)
	assert.Equal(t, FailureStoreUnavailable, FailureOf(err))
}

func TestTokenService_WrongKindCheckedBeforeStore(t *testing.T) {
	clock := newFakeClock()
	svc, err := NewTokenService(newTestCodec(t), brokenStore{}, testAccessTTL, testRefreshTTL, WithClock(clock.Now))
	require.NoError(t, err)
	pair, err := svc.Issue(context.Background(), 42)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(context.Background(), pair.Refresh)
	assert.Equal(t, FailureWrongKind, FailureOf(err))
}

// Concurrent rotation of one refresh token is an accepted race: several calls
// may succeed. What must hold afterwards is that the original token is
// rejected.
func TestTokenService_ConcurrentRotationRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := f.svc.Issue(ctx, 42)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Rotate(ctx, pair.Refresh)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, FailureBlacklisted, FailureOf(err))
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	_, err = f.svc.VerifyRefresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, pkgerrors.ErrBlacklistedToken)
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Bearer ", "", true},
		{"bearer abc", "", true},
		{"Basic abc", "", true},
		{"Bearerabc", "", true},
		{"abc.def.ghi", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, pkgerrors.ErrMalformedToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
