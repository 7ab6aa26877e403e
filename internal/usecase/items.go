package usecase

import (
	"context"
	"fmt"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/repository"
)

// ItemRegistry maps a purchased-item type tag to the loader that resolves it.
// A purchased-item reference on a transaction is only meaningful together
// with its type tag; the registry is how the core stays open to new
// purchasable types without touching the payment flows.
type ItemRegistry struct {
	loaders map[model.ItemType]repository.ItemLoader
}

func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{loaders: make(map[model.ItemType]repository.ItemLoader)}
}

func (r *ItemRegistry) Register(t model.ItemType, loader repository.ItemLoader) {
	r.loaders[t] = loader
}

// Resolve loads the purchasable item behind a typed reference.
func (r *ItemRegistry) Resolve(ctx context.Context, tx repository.Tx, t model.ItemType, id string) (*model.PurchasableItem, error) {
	loader, ok := r.loaders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownItemType, t)
	}
	return loader.Load(ctx, tx, id)
}

// planItemLoader adapts the membership-plan repository to the generic loader.
type planItemLoader struct {
	plans repository.MembershipPlanRepository
}

func NewPlanItemLoader(plans repository.MembershipPlanRepository) repository.ItemLoader {
	return &planItemLoader{plans: plans}
}

func (l *planItemLoader) Load(ctx context.Context, tx repository.Tx, id string) (*model.PurchasableItem, error) {
	plan, err := l.plans.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return plan.Purchasable(), nil
}
