package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
)

type viewCounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	ProfileViewKey(vendorID string) string
}

// ViewCounter buffers vendor profile views in redis. Counters are drained
// into the users table by the view-count flush job, so a lost counter costs
// at most one flush interval of views.
type ViewCounter struct {
	store viewCounterStore
}

func NewViewCounter(store viewCounterStore) (*ViewCounter, error) {
	if store == nil {
		return nil, fmt.Errorf("users: view counter store is required")
	}
	return &ViewCounter{store: store}, nil
}

// RecordProfileView bumps the pending view counter for a vendor profile.
func (v *ViewCounter) RecordProfileView(ctx context.Context, vendorID uuid.UUID) error {
	if vendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	if _, err := v.store.Incr(ctx, v.store.ProfileViewKey(vendorID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment profile view counter")
	}
	return nil
}
