package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/repository"
)

var _ repository.MembershipPlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.MembershipPlan) error {
	methods, err := json.Marshal(p.PaymentMethods)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO membership_plans (
  id, gym_id, name, description, amount, currency, billing_interval, interval_count,
  tax_enabled, tax_rate, trial_enabled, trial_days, payment_methods, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  name=$3, description=$4, amount=$5, currency=$6, billing_interval=$7, interval_count=$8,
  tax_enabled=$9, tax_rate=$10, trial_enabled=$11, trial_days=$12, payment_methods=$13, updated_at=$15;`
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.GymID, p.Name, p.Description, p.Pricing.Amount, p.Pricing.Currency,
		string(p.Pricing.Interval), p.Pricing.IntervalCount, p.Pricing.Tax.Enabled, p.Pricing.Tax.Rate,
		p.Trial.Enabled, p.Trial.Days, methods, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	const q = `SELECT id, gym_id, name, description, amount, currency, billing_interval, interval_count,
tax_enabled, tax_rate, trial_enabled, trial_days, payment_methods, created_at, updated_at
FROM membership_plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		p        model.MembershipPlan
		interval string
		methods  []byte
	)
	err = row.Scan(&p.ID, &p.GymID, &p.Name, &p.Description, &p.Pricing.Amount, &p.Pricing.Currency,
		&interval, &p.Pricing.IntervalCount, &p.Pricing.Tax.Enabled, &p.Pricing.Tax.Rate,
		&p.Trial.Enabled, &p.Trial.Days, &methods, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Pricing.Interval = model.BillingInterval(interval)
	if len(methods) > 0 {
		if err := json.Unmarshal(methods, &p.PaymentMethods); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &p, nil
}
