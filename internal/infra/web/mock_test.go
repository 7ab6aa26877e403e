//go:build !integration

package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/adapter"
	"gym-membership-platform/internal/domain/ports/repository"
	"gym-membership-platform/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockPaymentUC struct {
	CreateCashPaymentFunc        func(ctx context.Context, itemID string, itemType model.ItemType, payerID string, receivedBy *string, notes, gymID string) (*model.PaymentTransaction, error)
	ConfirmCashPaymentFunc       func(ctx context.Context, paymentID, confirmerID string) (*model.PaymentTransaction, error)
	CreateGatewayPaymentLinkFunc func(ctx context.Context, itemID string, itemType model.ItemType, payerID string) (*usecase.GatewayLink, error)
	VerifyGatewayPaymentFunc     func(ctx context.Context, cb adapter.CallbackPayload) (*usecase.VerifyResult, error)
	ExpireStalePaymentsFunc      func(ctx context.Context) (int64, error)
}

var _ usecase.PaymentUseCase = (*mockPaymentUC)(nil)

func (m *mockPaymentUC) CreateCashPayment(ctx context.Context, itemID string, itemType model.ItemType, payerID string, receivedBy *string, notes, gymID string) (*model.PaymentTransaction, error) {
	if m.CreateCashPaymentFunc != nil {
		return m.CreateCashPaymentFunc(ctx, itemID, itemType, payerID, receivedBy, notes, gymID)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) ConfirmCashPayment(ctx context.Context, paymentID, confirmerID string) (*model.PaymentTransaction, error) {
	if m.ConfirmCashPaymentFunc != nil {
		return m.ConfirmCashPaymentFunc(ctx, paymentID, confirmerID)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) CreateGatewayPaymentLink(ctx context.Context, itemID string, itemType model.ItemType, payerID string) (*usecase.GatewayLink, error) {
	if m.CreateGatewayPaymentLinkFunc != nil {
		return m.CreateGatewayPaymentLinkFunc(ctx, itemID, itemType, payerID)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) VerifyGatewayPayment(ctx context.Context, cb adapter.CallbackPayload) (*usecase.VerifyResult, error) {
	if m.VerifyGatewayPaymentFunc != nil {
		return m.VerifyGatewayPaymentFunc(ctx, cb)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) ExpireStalePayments(ctx context.Context) (int64, error) {
	if m.ExpireStalePaymentsFunc != nil {
		return m.ExpireStalePaymentsFunc(ctx)
	}
	return 0, nil
}

type mockMembershipUC struct {
	SweepExpiredSubscriptionsFunc func(ctx context.Context, gymID string) (int, error)
}

var _ usecase.MembershipUseCase = (*mockMembershipUC)(nil)

func (m *mockMembershipUC) SweepExpiredSubscriptions(ctx context.Context, gymID string) (int, error) {
	if m.SweepExpiredSubscriptionsFunc != nil {
		return m.SweepExpiredSubscriptionsFunc(ctx, gymID)
	}
	return 0, nil
}

type mockGymRepo struct {
	SaveFunc    func(ctx context.Context, tx repository.Tx, g *model.Gym) error
	ListAllFunc func(ctx context.Context, tx repository.Tx) ([]*model.Gym, error)
	saved       []*model.Gym
}

var _ repository.GymRepository = (*mockGymRepo)(nil)

func (m *mockGymRepo) Save(ctx context.Context, tx repository.Tx, g *model.Gym) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, g)
	}
	m.saved = append(m.saved, g)
	return nil
}

func (m *mockGymRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Gym, error) {
	for _, g := range m.saved {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockGymRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Gym, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	return m.saved, nil
}

func pendingPayment(id string) *model.PaymentTransaction {
	now := time.Now()
	expires := now.Add(model.ReservationWindow)
	return &model.PaymentTransaction{
		ID:        id,
		GymID:     "gym-1",
		ItemID:    "plan-1",
		ItemType:  model.ItemTypeMembershipPlan,
		Amount:    11000,
		Currency:  "BDT",
		Method:    model.MethodCash,
		Status:    model.PaymentStatusPending,
		PaymentBy: "member-1",
		Invoice: model.InvoiceSnapshot{
			InvoiceNumber: "INV-2026-0001",
			ReceiptNumber: "RCP-2026-0001",
			TaxAmount:     1000,
			TaxRate:       0.10,
		},
		ExpiresAt: &expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
