package otp

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/padimart/padimart-backend/pkg/db/models"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	byID map[uuid.UUID]*models.Otp
	seq  int
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.Otp{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, code *models.Otp) error {
	s.seq++
	clone := *code
	clone.CreatedAt = time.Unix(int64(s.seq), 0)
	s.byID[code.ID] = &clone
	return nil
}

func (s *stubRepo) FindLatestByPhone(ctx context.Context, phone string) (*models.Otp, error) {
	var matches []*models.Otp
	for _, code := range s.byID {
		if code.Phone == phone && !code.Consumed {
			matches = append(matches, code)
		}
	}
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	clone := *matches[0]
	return &clone, nil
}

func (s *stubRepo) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	code, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	code.Consumed = true
	return nil
}

func (s *stubRepo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	for id, code := range s.byID {
		if code.ExpiresAt.Before(before) || code.Consumed {
			delete(s.byID, id)
			removed++
		}
	}
	return removed, nil
}

func testOtpConfig() config.OtpConfig {
	// Minimal argon parameters keep the hashing fast in tests.
	return config.OtpConfig{
		TTL:          10 * time.Minute,
		ArgonMemory:  8,
		ArgonTime:    1,
		ArgonThreads: 1,
	}
}

type otpFixture struct {
	svc  *service
	repo *stubRepo
	now  time.Time
}

func newOtpFixture(t *testing.T) *otpFixture {
	t.Helper()

	f := &otpFixture{
		repo: newStubRepo(),
		now:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(fakeTxRunner{}, f.repo, testOtpConfig())
	require.NoError(t, err)
	f.svc = svc.(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestIssueReturnsSixDigitCode(t *testing.T) {
	f := newOtpFixture(t)

	issued, err := f.svc.Issue(context.Background(), "+2348012345678")
	require.NoError(t, err)

	assert.Len(t, issued.Code, 6)
	assert.Equal(t, f.now.Add(10*time.Minute), issued.ExpiresAt)

	// Only the hash reaches storage.
	require.Len(t, f.repo.byID, 1)
	for _, stored := range f.repo.byID {
		assert.NotContains(t, stored.CodeHash, issued.Code)
		assert.Contains(t, stored.CodeHash, "$argon2id$")
	}
}

func TestVerifyConsumesCode(t *testing.T) {
	f := newOtpFixture(t)
	phone := "+2348012345678"

	issued, err := f.svc.Issue(context.Background(), phone)
	require.NoError(t, err)

	require.NoError(t, f.svc.Verify(context.Background(), phone, issued.Code))

	// Second use of the same code fails: nothing active remains.
	err = f.svc.Verify(context.Background(), phone, issued.Code)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestVerifyWrongCode(t *testing.T) {
	f := newOtpFixture(t)
	phone := "+2348012345678"

	issued, err := f.svc.Issue(context.Background(), phone)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == issued.Code {
		wrong = "000001"
	}
	err = f.svc.Verify(context.Background(), phone, wrong)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	// The code survives a failed attempt.
	require.NoError(t, f.svc.Verify(context.Background(), phone, issued.Code))
}

func TestVerifyExpiredCode(t *testing.T) {
	f := newOtpFixture(t)
	phone := "+2348012345678"

	issued, err := f.svc.Issue(context.Background(), phone)
	require.NoError(t, err)

	f.now = f.now.Add(11 * time.Minute)
	err = f.svc.Verify(context.Background(), phone, issued.Code)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeExpired))
}

func TestVerifyLatestCodeWins(t *testing.T) {
	f := newOtpFixture(t)
	phone := "+2348012345678"

	first, err := f.svc.Issue(context.Background(), phone)
	require.NoError(t, err)
	second, err := f.svc.Issue(context.Background(), phone)
	require.NoError(t, err)

	// Re-issuing supersedes the earlier code.
	err = f.svc.Verify(context.Background(), phone, first.Code)
	if first.Code != second.Code {
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
	}
	require.NoError(t, f.svc.Verify(context.Background(), phone, second.Code))
}

func TestCleanExpiredRemovesStaleRows(t *testing.T) {
	f := newOtpFixture(t)

	_, err := f.svc.Issue(context.Background(), "+2348000000001")
	require.NoError(t, err)
	fresh, err := f.svc.Issue(context.Background(), "+2348000000002")
	require.NoError(t, err)

	// Age the first code past its expiry, keep the second fresh.
	for _, stored := range f.repo.byID {
		if stored.Phone == "+2348000000001" {
			stored.ExpiresAt = f.now.Add(-time.Minute)
		}
	}

	removed, err := f.svc.CleanExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, f.svc.Verify(context.Background(), "+2348000000002", fresh.Code))
}
