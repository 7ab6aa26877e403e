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

var _ repository.MemberRepository = (*memberRepo)(nil)

type memberRepo struct{ pool *pgxpool.Pool }

func NewMemberRepo(pool *pgxpool.Pool) *memberRepo {
	return &memberRepo{pool: pool}
}

func (r *memberRepo) Save(ctx context.Context, tx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (id, gym_id, name, email, active_plan_id, active_payment_id, registered_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$3, email=$4, active_plan_id=$5, active_payment_id=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.GymID, m.Name, m.Email, m.ActiveMembership.PlanID, m.ActiveMembership.PaymentID, m.RegisteredAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *memberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	q := `SELECT id, gym_id, name, email, active_plan_id, active_payment_id, registered_at FROM members WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	m := &model.Member{}
	if err := row.Scan(&m.ID, &m.GymID, &m.Name, &m.Email, &m.ActiveMembership.PlanID, &m.ActiveMembership.PaymentID, &m.RegisteredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

func (r *memberRepo) SetActiveMembership(ctx context.Context, tx repository.Tx, memberID string, planID, paymentID *string) error {
	const q = `UPDATE members SET active_plan_id=$2, active_payment_id=$3 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, memberID, planID, paymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
