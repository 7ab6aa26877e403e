package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/adapter"
	"gym-membership-platform/internal/domain/ports/repository"
	"gym-membership-platform/internal/infra/metrics"
	red "gym-membership-platform/internal/infra/redis"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

const verifyLockTTL = 30 * time.Second

// GatewayLink is the outcome of a successful gateway link creation.
type GatewayLink struct {
	PaymentID  string
	PaymentURL string
}

// VerifyResult is the sanitized outcome of a gateway verification.
type VerifyResult struct {
	Status        model.PaymentStatus
	Amount        int64
	Currency      string
	FailureReason string
}

type PaymentUseCase interface {
	// CreateCashPayment opens a pending staff-mediated cash transaction.
	// receivedBy identifies the staff member expected to collect, but is not
	// recorded until confirmation: the creator is not necessarily the confirmer.
	CreateCashPayment(ctx context.Context, itemID string, itemType model.ItemType, payerID string, receivedBy *string, notes, gymID string) (*model.PaymentTransaction, error)
	// ConfirmCashPayment completes a pending cash transaction and activates
	// the purchased membership, atomically.
	ConfirmCashPayment(ctx context.Context, paymentID, confirmerID string) (*model.PaymentTransaction, error)
	// CreateGatewayPaymentLink opens a pending transaction and returns the
	// provider redirect URL. The pending row is deleted if the provider call fails.
	CreateGatewayPaymentLink(ctx context.Context, itemID string, itemType model.ItemType, payerID string) (*GatewayLink, error)
	// VerifyGatewayPayment reconciles a provider callback into a terminal
	// status. Replayed callbacks for a completed transaction short-circuit.
	VerifyGatewayPayment(ctx context.Context, cb adapter.CallbackPayload) (*VerifyResult, error)
	// ExpireStalePayments demotes pending transactions whose reservation
	// window has elapsed. Invoked by the background expirer.
	ExpireStalePayments(ctx context.Context) (int64, error)
}

type paymentUC struct {
	items    *ItemRegistry
	payments repository.PaymentRepository
	members  repository.MemberRepository
	gyms     repository.GymRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	locker   red.Locker
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	items *ItemRegistry,
	payments repository.PaymentRepository,
	members repository.MemberRepository,
	gyms repository.GymRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	locker red.Locker,
	logger *zerolog.Logger,
) *paymentUC {
	ucLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		items:    items,
		payments: payments,
		members:  members,
		gyms:     gyms,
		gateway:  gateway,
		tm:       tm,
		locker:   locker,
		log:      &ucLog,
	}
}

// preparePurchase runs the shared resolution/guard/calculation steps of both
// flows: resolve item and payer, enforce the single-active-membership rule,
// and compute the invoicing and subscription-period fields.
func (u *paymentUC) preparePurchase(ctx context.Context, itemID string, itemType model.ItemType, payerID, gymID string) (*model.PurchasableItem, *model.Gym, model.Invoice, *model.SubscriptionPeriod, error) {
	item, err := u.items.Resolve(ctx, nil, itemType, itemID)
	if err != nil {
		return nil, nil, model.Invoice{}, nil, err
	}
	member, err := u.members.FindByID(ctx, nil, payerID)
	if err != nil {
		return nil, nil, model.Invoice{}, nil, err
	}
	if item.Subscription && member.ActiveMembership.PlanID != nil {
		return nil, nil, model.Invoice{}, nil, domain.ErrActiveMembershipExists
	}
	if gymID == "" {
		gymID = item.GymID
	}
	gym, err := u.gyms.FindByID(ctx, nil, gymID)
	if err != nil {
		return nil, nil, model.Invoice{}, nil, err
	}

	inv := model.ComputeInvoice(item.Pricing)
	var period *model.SubscriptionPeriod
	if item.Subscription {
		p := model.ComputeSubscriptionPeriod(item.Pricing, gym.Location(), time.Now())
		period = &p
	}
	return item, gym, inv, period, nil
}

// createTransaction reserves the invoice sequence and persists the pending
// transaction inside one unit of work.
func (u *paymentUC) createTransaction(ctx context.Context, item *model.PurchasableItem, gym *model.Gym, method, payerID, notes string, inv model.Invoice, period *model.SubscriptionPeriod) (*model.PaymentTransaction, error) {
	var created *model.PaymentTransaction
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		year := now.In(gym.Location()).Year()
		seq, err := u.payments.NextInvoiceSequence(ctx, tx, year)
		if err != nil {
			return err
		}
		p, err := model.NewPaymentTransaction(item, method, payerID, inv, period, year, seq, notes, now)
		if err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending), method)
	return created, nil
}

func (u *paymentUC) CreateCashPayment(ctx context.Context, itemID string, itemType model.ItemType, payerID string, receivedBy *string, notes, gymID string) (*model.PaymentTransaction, error) {
	item, gym, inv, period, err := u.preparePurchase(ctx, itemID, itemType, payerID, gymID)
	if err != nil {
		return nil, err
	}
	ms, ok := item.MethodSetting(model.MethodCash)
	if !ok || !ms.Enabled || ms.Instructions == "" {
		return nil, domain.ErrPaymentMethodNotConfigured
	}
	p, err := u.createTransaction(ctx, item, gym, model.MethodCash, payerID, notes, inv, period)
	if err != nil {
		return nil, err
	}
	u.log.Info().
		Str("payment_id", p.ID).
		Str("member_id", payerID).
		Str("invoice_no", p.Invoice.InvoiceNumber).
		Int64("amount", p.Amount).
		Msg("cash payment created")
	return p, nil
}

func (u *paymentUC) ConfirmCashPayment(ctx context.Context, paymentID, confirmerID string) (*model.PaymentTransaction, error) {
	if paymentID == "" || confirmerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	var confirmed *model.PaymentTransaction
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		member, err := u.members.FindByID(ctx, tx, p.PaymentBy)
		if err != nil {
			return err
		}
		// Re-validate the single-active-membership rule at confirmation time:
		// two pending transactions can exist for the same member, but only
		// the first to confirm may activate.
		if p.Subscription != nil && member.ActiveMembership.IsSet() && *member.ActiveMembership.PaymentID != p.ID {
			return domain.ErrActiveMembershipExists
		}
		if err := p.Complete(&confirmerID, time.Now()); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		if p.Subscription != nil {
			if err := u.members.SetActiveMembership(ctx, tx, p.PaymentBy, &p.ItemID, &p.ID); err != nil {
				return err
			}
		}
		confirmed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusCompleted), model.MethodCash)
	metrics.AddPaymentRevenue(confirmed.Currency, confirmed.Amount)
	u.log.Info().
		Str("payment_id", confirmed.ID).
		Str("received_by", confirmerID).
		Msg("cash payment confirmed")
	return confirmed, nil
}

func (u *paymentUC) CreateGatewayPaymentLink(ctx context.Context, itemID string, itemType model.ItemType, payerID string) (*GatewayLink, error) {
	item, gym, inv, period, err := u.preparePurchase(ctx, itemID, itemType, payerID, "")
	if err != nil {
		return nil, err
	}
	ms, ok := item.MethodSetting(u.gateway.Name())
	if !ok || !ms.Enabled || len(ms.Credentials) == 0 {
		return nil, domain.ErrPaymentMethodNotConfigured
	}

	p, err := u.createTransaction(ctx, item, gym, u.gateway.Name(), payerID, "", inv, period)
	if err != nil {
		return nil, err
	}

	session, err := u.gateway.CreateSession(ctx, adapter.CheckoutRequest{
		PaymentID:   p.ID,
		Amount:      p.Amount,
		TaxAmount:   p.Invoice.TaxAmount,
		Currency:    p.Currency,
		Description: item.Name,
		Credentials: ms.Credentials,
		CustomerID:  payerID,
	})
	if err != nil {
		// Compensating delete: no orphaned pending rows from failed link
		// generation. The caller may retry the whole operation.
		if delErr := u.payments.Delete(ctx, nil, p.ID); delErr != nil {
			u.log.Error().Err(delErr).Str("payment_id", p.ID).Msg("compensating delete failed")
		}
		metrics.IncGatewayError(u.gateway.Name())
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayRequestFailed, err)
	}

	u.log.Info().
		Str("payment_id", p.ID).
		Str("provider", u.gateway.Name()).
		Msg("gateway payment link created")
	return &GatewayLink{PaymentID: p.ID, PaymentURL: session.RedirectURL}, nil
}

func (u *paymentUC) VerifyGatewayPayment(ctx context.Context, cb adapter.CallbackPayload) (*VerifyResult, error) {
	if cb.PaymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Gateways may deliver the same callback concurrently (redirect racing a
	// webhook); serialize verification per payment on top of the conditional
	// DB update.
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "payment:verify:"+cb.PaymentID, verifyLockTTL)
		if err != nil {
			return nil, err
		}
		defer func() { _ = u.locker.Unlock(ctx, "payment:verify:"+cb.PaymentID, token) }()
	}

	target := u.gateway.MapStatus(cb.Status)

	var result *VerifyResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, cb.PaymentID)
		if err != nil {
			return err
		}
		if p.Status == model.PaymentStatusCompleted {
			// Idempotent replay protection: report the terminal state, never
			// re-apply activation.
			result = &VerifyResult{Status: p.Status, Amount: p.Amount, Currency: p.Currency}
			return domain.ErrAlreadyCompleted
		}

		now := time.Now()
		p.SetMetadata(map[string]string{
			"card_type":      cb.CardType,
			"operation_id":   cb.OperationID,
			"gateway_status": cb.Status,
			"amount_paid":    cb.AmountPaid,
			"failure_reason": cb.FailureReason,
		})

		if target == model.PaymentStatusCompleted {
			if err := p.Complete(nil, now); err != nil {
				return err
			}
			if err := u.payments.Save(ctx, tx, p); err != nil {
				return err
			}
			if p.Subscription != nil {
				if err := u.members.SetActiveMembership(ctx, tx, p.PaymentBy, &p.ItemID, &p.ID); err != nil {
					return err
				}
			}
			result = &VerifyResult{Status: p.Status, Amount: p.Amount, Currency: p.Currency}
			return nil
		}

		if err := p.Fail(now); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		// Defensive reset of the payer's pointer in case of prior partial state.
		if err := u.members.SetActiveMembership(ctx, tx, p.PaymentBy, nil, nil); err != nil {
			return err
		}
		result = &VerifyResult{Status: p.Status, Amount: p.Amount, Currency: p.Currency, FailureReason: cb.FailureReason}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) && result != nil {
			return result, domain.ErrAlreadyCompleted
		}
		return nil, err
	}

	metrics.IncPayment(string(result.Status), u.gateway.Name())
	if result.Status == model.PaymentStatusCompleted {
		metrics.AddPaymentRevenue(result.Currency, result.Amount)
	}
	u.log.Info().
		Str("payment_id", cb.PaymentID).
		Str("status", string(result.Status)).
		Msg("gateway payment verified")
	return result, nil
}

func (u *paymentUC) ExpireStalePayments(ctx context.Context) (int64, error) {
	n, err := u.payments.ExpireStalePending(ctx, nil, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddPaymentsExpired(n)
	}
	return n, nil
}
