package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/repository"
)

var _ repository.GymRepository = (*gymRepo)(nil)

type gymRepo struct{ pool *pgxpool.Pool }

func NewGymRepo(pool *pgxpool.Pool) *gymRepo {
	return &gymRepo{pool: pool}
}

func (r *gymRepo) Save(ctx context.Context, tx repository.Tx, g *model.Gym) error {
	const q = `
INSERT INTO gyms (id, name, timezone, created_at) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=$2, timezone=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, g.ID, g.Name, g.Timezone, g.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *gymRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Gym, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, timezone, created_at FROM gyms WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	g := &model.Gym{}
	if err := row.Scan(&g.ID, &g.Name, &g.Timezone, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return g, nil
}

func (r *gymRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Gym, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, name, timezone, created_at FROM gyms ORDER BY created_at;`)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Gym
	for rows.Next() {
		g := &model.Gym{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Timezone, &g.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, g)
	}
	return out, nil
}
