package repository

import (
	"context"

	"gym-membership-platform/internal/domain/model"
)

type MemberRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Member) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Member, error)
	// SetActiveMembership atomically rewrites the member's single
	// active-membership pointer. Pass nil/nil to clear it.
	SetActiveMembership(ctx context.Context, tx Tx, memberID string, planID, paymentID *string) error
}
