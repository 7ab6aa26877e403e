package model

import (
	"time"

	"gym-membership-platform/internal/domain"
)

type BillingInterval string

const (
	IntervalMinute BillingInterval = "minute"
	IntervalDay    BillingInterval = "day"
	IntervalWeek   BillingInterval = "week"
	IntervalMonth  BillingInterval = "month"
	IntervalYear   BillingInterval = "year"
)

func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalMinute, IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

type Tax struct {
	Enabled bool
	Rate    float64 // 0..1
}

// Pricing describes what a purchasable item costs. Amount is an integer in
// minor currency units; no money value in this package is ever a float.
type Pricing struct {
	Amount        int64
	Currency      string
	Interval      BillingInterval
	IntervalCount int
	Tax           Tax
}

type TrialSetting struct {
	Enabled bool
	Days    int
}

// MethodSetting configures one payment method on a plan. Cash methods carry
// human-readable Instructions; gateway methods carry provider Credentials.
type MethodSetting struct {
	Enabled      bool              `json:"enabled"`
	Instructions string            `json:"instructions,omitempty"`
	Credentials  map[string]string `json:"credentials,omitempty"`
}

const MethodCash = "cash"

// MembershipPlan is the purchasable item sold by a gym. Identity is immutable
// once created; pricing and method settings change only via explicit update.
type MembershipPlan struct {
	ID             string
	GymID          string
	Name           string
	Description    string
	Pricing        Pricing
	Trial          TrialSetting
	PaymentMethods map[string]MethodSetting
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p *MembershipPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewMembershipPlan validates and constructs a plan. At least one payment
// method must be enabled; cash requires instructions, gateways credentials.
func NewMembershipPlan(id, gymID, name string, pricing Pricing, trial TrialSetting, methods map[string]MethodSetting) (*MembershipPlan, error) {
	if id == "" || gymID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if pricing.Amount <= 0 || pricing.Currency == "" || !pricing.Interval.Valid() || pricing.IntervalCount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if pricing.Tax.Enabled && (pricing.Tax.Rate < 0 || pricing.Tax.Rate > 1) {
		return nil, domain.ErrInvalidArgument
	}
	anyEnabled := false
	for name, ms := range methods {
		if !ms.Enabled {
			continue
		}
		anyEnabled = true
		if name == MethodCash && ms.Instructions == "" {
			return nil, domain.ErrInvalidArgument
		}
		if name != MethodCash && len(ms.Credentials) == 0 {
			return nil, domain.ErrInvalidArgument
		}
	}
	if !anyEnabled {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &MembershipPlan{
		ID:             id,
		GymID:          gymID,
		Name:           name,
		Pricing:        pricing,
		Trial:          trial,
		PaymentMethods: methods,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Purchasable projects the plan into the generic purchasable-item view the
// payment core operates on. Membership plans are subscription-bearing.
func (p *MembershipPlan) Purchasable() *PurchasableItem {
	return &PurchasableItem{
		ID:             p.ID,
		Type:           ItemTypeMembershipPlan,
		GymID:          p.GymID,
		Name:           p.Name,
		Pricing:        p.Pricing,
		Trial:          p.Trial,
		PaymentMethods: p.PaymentMethods,
		Subscription:   true,
	}
}

// ItemType discriminates which backing collection a purchased-item reference
// resolves against. Adding a new purchasable type means registering one more
// loader, not subclassing.
type ItemType string

const ItemTypeMembershipPlan ItemType = "MembershipPlan"

// PurchasableItem is the type-erased view of anything that can be bought.
type PurchasableItem struct {
	ID             string
	Type           ItemType
	GymID          string
	Name           string
	Pricing        Pricing
	Trial          TrialSetting
	PaymentMethods map[string]MethodSetting
	Subscription   bool
}

// MethodSetting returns the configuration for a payment method, with a flag
// for whether it exists at all.
func (it *PurchasableItem) MethodSetting(method string) (MethodSetting, bool) {
	ms, ok := it.PaymentMethods[method]
	return ms, ok
}
