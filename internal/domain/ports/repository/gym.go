package repository

import (
	"context"

	"gym-membership-platform/internal/domain/model"
)

type GymRepository interface {
	Save(ctx context.Context, tx Tx, g *model.Gym) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Gym, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Gym, error)
}
