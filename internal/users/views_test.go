package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
)

type fakeViewStore struct {
	counts  map[string]int64
	incrErr error
}

func newFakeViewStore() *fakeViewStore {
	return &fakeViewStore{counts: make(map[string]int64)}
}

func (s *fakeViewStore) Incr(_ context.Context, key string) (int64, error) {
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeViewStore) ProfileViewKey(vendorID string) string {
	return "pm:views:" + vendorID
}

func TestRecordProfileViewIncrementsCounter(t *testing.T) {
	store := newFakeViewStore()
	counter, err := NewViewCounter(store)
	require.NoError(t, err)

	vendorID := uuid.New()
	require.NoError(t, counter.RecordProfileView(context.Background(), vendorID))
	require.NoError(t, counter.RecordProfileView(context.Background(), vendorID))

	assert.Equal(t, int64(2), store.counts["pm:views:"+vendorID.String()])
}

func TestRecordProfileViewRejectsNilVendor(t *testing.T) {
	counter, err := NewViewCounter(newFakeViewStore())
	require.NoError(t, err)

	err = counter.RecordProfileView(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRecordProfileViewWrapsStoreFailure(t *testing.T) {
	store := newFakeViewStore()
	store.incrErr = errors.New("connection refused")
	counter, err := NewViewCounter(store)
	require.NoError(t, err)

	err = counter.RecordProfileView(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestNewViewCounterRequiresStore(t *testing.T) {
	_, err := NewViewCounter(nil)
	assert.Error(t, err)
}
