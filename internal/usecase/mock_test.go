//go:build !integration

package usecase_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/adapter"
	"gym-membership-platform/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func clonePayment(p *model.PaymentTransaction) *model.PaymentTransaction {
	cp := *p
	if p.ReceivedBy != nil {
		v := *p.ReceivedBy
		cp.ReceivedBy = &v
	}
	if p.ExpiresAt != nil {
		v := *p.ExpiresAt
		cp.ExpiresAt = &v
	}
	if p.Subscription != nil {
		sub := *p.Subscription
		cp.Subscription = &sub
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	cp.Invoice.LineItems = append([]model.LineItem(nil), p.Invoice.LineItems...)
	return &cp
}

// ---- Payments ----

type MockPaymentRepo struct {
	mu       sync.RWMutex
	store    map[string]*model.PaymentTransaction
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.PaymentTransaction)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = clonePayment(p)
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePayment(p), nil
}

func (m *MockPaymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockPaymentRepo) NextInvoiceSequence(ctx context.Context, tx repository.Tx, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := "INV-" + strconv.Itoa(year) + "-"
	max := 0
	for _, p := range m.store {
		if strings.HasPrefix(p.Invoice.InvoiceNumber, prefix) {
			if n, err := strconv.Atoi(strings.TrimPrefix(p.Invoice.InvoiceNumber, prefix)); err == nil && n > max {
				max = n
			}
		}
	}
	return max + 1, nil
}

func (m *MockPaymentRepo) ListLapsedActiveSubscriptions(ctx context.Context, tx repository.Tx, gymID string, now time.Time, limit int) ([]*model.PaymentTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PaymentTransaction
	for _, p := range m.store {
		if p.GymID != gymID || p.Subscription == nil {
			continue
		}
		if p.Subscription.Status == model.SubscriptionStatusActive && p.Subscription.EndDate.Before(now) {
			out = append(out, clonePayment(p))
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) ExpireStalePending(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			p.Status = model.PaymentStatusExpired
			p.ExpiresAt = nil
			p.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MockPaymentRepo) snapshot() map[string]*model.PaymentTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]*model.PaymentTransaction, len(m.store))
	for k, v := range m.store {
		cp[k] = clonePayment(v)
	}
	return cp
}

func (m *MockPaymentRepo) restore(snap map[string]*model.PaymentTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = snap
}

// ---- Members ----

type MockMemberRepo struct {
	mu                      sync.RWMutex
	store                   map[string]*model.Member
	SetActiveMembershipFunc func(ctx context.Context, tx repository.Tx, memberID string, planID, paymentID *string) error
}

func NewMockMemberRepo() *MockMemberRepo {
	return &MockMemberRepo{store: make(map[string]*model.Member)}
}

func (m *MockMemberRepo) Save(ctx context.Context, tx repository.Tx, mem *model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}

func (m *MockMemberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *MockMemberRepo) SetActiveMembership(ctx context.Context, tx repository.Tx, memberID string, planID, paymentID *string) error {
	if m.SetActiveMembershipFunc != nil {
		if err := m.SetActiveMembershipFunc(ctx, tx, memberID, planID, paymentID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.store[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	mem.ActiveMembership = model.ActiveMembership{PlanID: planID, PaymentID: paymentID}
	return nil
}

func (m *MockMemberRepo) snapshot() map[string]*model.Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]*model.Member, len(m.store))
	for k, v := range m.store {
		mem := *v
		cp[k] = &mem
	}
	return cp
}

func (m *MockMemberRepo) restore(snap map[string]*model.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = snap
}

// ---- Plans ----

type MockPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.MembershipPlan
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.MembershipPlan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.MembershipPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- Gyms ----

type MockGymRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Gym
}

func NewMockGymRepo() *MockGymRepo {
	return &MockGymRepo{store: make(map[string]*model.Gym)}
}

func (m *MockGymRepo) Save(ctx context.Context, tx repository.Tx, g *model.Gym) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.store[g.ID] = &cp
	return nil
}

func (m *MockGymRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Gym, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGymRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Gym, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Gym
	for _, g := range m.store {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

// ---- TransactionManager ----

// MockTxManager snapshots the in-memory stores before running the callback
// and restores them when it fails, mimicking a DB rollback.
type MockTxManager struct {
	payments *MockPaymentRepo
	members  *MockMemberRepo
}

func NewMockTxManager(payments *MockPaymentRepo, members *MockMemberRepo) *MockTxManager {
	return &MockTxManager{payments: payments, members: members}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	paySnap := m.payments.snapshot()
	memSnap := m.members.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.payments.restore(paySnap)
		m.members.restore(memSnap)
		return err
	}
	return nil
}

// ---- Gateway ----

type MockPaymentGateway struct {
	CreateSessionFunc func(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error)
	LastRequest       *adapter.CheckoutRequest
}

func (g *MockPaymentGateway) Name() string { return "sslcommerz" }

func (g *MockPaymentGateway) CreateSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	g.LastRequest = &req
	if g.CreateSessionFunc != nil {
		return g.CreateSessionFunc(ctx, req)
	}
	return &adapter.CheckoutSession{SessionKey: "sess-1", RedirectURL: "https://gateway.example/pay/sess-1"}, nil
}

func (g *MockPaymentGateway) MapStatus(status string) model.PaymentStatus {
	switch strings.ToUpper(status) {
	case "VALID", "VALIDATED":
		return model.PaymentStatusCompleted
	default:
		return model.PaymentStatusFailed
	}
}

// ---- Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = key
	return key, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
