package repository

import (
	"context"

	"gym-membership-platform/internal/domain/model"
)

type MembershipPlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.MembershipPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MembershipPlan, error)
}

// ItemLoader resolves one purchasable item type by id. The payment core keeps
// a registry of loaders keyed by item type tag; adding a purchasable type is
// one registry entry.
type ItemLoader interface {
	Load(ctx context.Context, tx Tx, id string) (*model.PurchasableItem, error)
}
