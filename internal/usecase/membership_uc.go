package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/repository"
	"gym-membership-platform/internal/infra/metrics"
)

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

const sweepBatchSize = 500

type MembershipUseCase interface {
	// SweepExpiredSubscriptions demotes a gym's lapsed active memberships to
	// expired and clears the owning members' active-membership pointers.
	// Each demotion is its own atomic unit, so one failure does not block the
	// rest of the batch. Returns the number of demoted subscriptions.
	SweepExpiredSubscriptions(ctx context.Context, gymID string) (int, error)
}

type membershipUC struct {
	payments repository.PaymentRepository
	members  repository.MemberRepository
	gyms     repository.GymRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewMembershipUseCase(
	payments repository.PaymentRepository,
	members repository.MemberRepository,
	gyms repository.GymRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *membershipUC {
	ucLog := logger.With().Str("component", "MembershipUC").Logger()
	return &membershipUC{payments: payments, members: members, gyms: gyms, tm: tm, log: &ucLog}
}

func (u *membershipUC) SweepExpiredSubscriptions(ctx context.Context, gymID string) (int, error) {
	gym, err := u.gyms.FindByID(ctx, nil, gymID)
	if err != nil {
		return 0, err
	}
	now := time.Now().In(gym.Location())

	lapsed, err := u.payments.ListLapsedActiveSubscriptions(ctx, nil, gymID, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	demoted := 0
	for _, stale := range lapsed {
		id := stale.ID
		applied := false
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, err := u.payments.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			// Another sweep (or a cancellation) may have raced us here.
			if p.Subscription == nil || p.Subscription.Status != model.SubscriptionStatusActive {
				return nil
			}
			applied = true
			p.Subscription.Status = model.SubscriptionStatusExpired
			p.UpdatedAt = time.Now()
			if err := u.payments.Save(ctx, tx, p); err != nil {
				return err
			}
			return u.members.SetActiveMembership(ctx, tx, p.PaymentBy, nil, nil)
		})
		if err != nil {
			u.log.Error().Err(err).Str("payment_id", id).Msg("failed to demote lapsed subscription")
			continue
		}
		if applied {
			demoted++
		}
	}

	if demoted > 0 {
		metrics.IncMembershipsExpired(demoted)
		u.log.Info().Str("gym_id", gymID).Int("count", demoted).Msg("lapsed subscriptions demoted")
	}
	return demoted, nil
}
