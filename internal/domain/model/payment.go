package model

import (
	"time"

	"gym-membership-platform/internal/domain"

	"github.com/oklog/ulid/v2"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"   // created; awaiting confirmation or verification
	PaymentStatusCompleted         PaymentStatus = "completed" // terminal; activation applied
	PaymentStatusFailed            PaymentStatus = "failed"    // terminal; gateway declined
	PaymentStatusExpired           PaymentStatus = "expired"   // reservation window elapsed without confirmation
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// ReservationWindow is how long a pending transaction holds its slot before
// it becomes eligible for expiration.
const ReservationWindow = 10 * time.Minute

// InvoiceSnapshot is the immutable invoicing data captured at creation.
// Numbers are assigned exactly once and never reassigned.
type InvoiceSnapshot struct {
	InvoiceNumber string
	ReceiptNumber string
	TaxAmount     int64
	TaxRate       float64
	LineItems     []LineItem
}

// SubscriptionDetail is present if and only if the purchased item is
// subscription-bearing.
type SubscriptionDetail struct {
	StartDate   time.Time
	EndDate     time.Time
	RenewalDate time.Time
	Status      SubscriptionStatus
	CancelledAt *time.Time
}

// PaymentTransaction is the aggregate root of the payment core: one purchase
// attempt, its money and invoicing snapshot, and (for subscription items) the
// validity window the purchase grants.
type PaymentTransaction struct {
	ID       string // ULID, sortable by creation time
	GymID    string
	ItemID   string
	ItemType ItemType

	Amount   int64
	Currency string
	Method   string // "cash" or a gateway processor name
	Status   PaymentStatus

	PaymentBy  string  // the member the purchase is for
	ReceivedBy *string // staff who confirmed cash; nil for gateway/self-service

	Invoice      InvoiceSnapshot
	Subscription *SubscriptionDetail

	// Metadata holds write-once gateway response fields (card type, operation
	// id, gateway status text, failure reason). Empty until verification.
	Metadata map[string]string

	Notes     string
	ExpiresAt *time.Time // nil once the transaction reaches a terminal state
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *PaymentTransaction) IsZero() bool { return p == nil || p.ID == "" }

// IsTerminal reports whether the status admits no further transition by a
// payment flow.
func (p *PaymentTransaction) IsTerminal() bool {
	return p.Status != PaymentStatusPending
}

// NewPaymentTransaction builds the pending transaction a payment flow
// persists. The invoice/receipt sequence number must already be reserved by
// the caller (inside the creating transaction).
func NewPaymentTransaction(item *PurchasableItem, method, paymentBy string, inv Invoice, period *SubscriptionPeriod, invoiceYear, invoiceSeq int, notes string, now time.Time) (*PaymentTransaction, error) {
	if item == nil || method == "" || paymentBy == "" || invoiceSeq <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	expires := now.Add(ReservationWindow)
	p := &PaymentTransaction{
		ID:        ulid.Make().String(),
		GymID:     item.GymID,
		ItemID:    item.ID,
		ItemType:  item.Type,
		Amount:    inv.TotalAmount,
		Currency:  item.Pricing.Currency,
		Method:    method,
		Status:    PaymentStatusPending,
		PaymentBy: paymentBy,
		Invoice: InvoiceSnapshot{
			InvoiceNumber: FormatInvoiceNumber(invoiceYear, invoiceSeq),
			ReceiptNumber: FormatReceiptNumber(invoiceYear, invoiceSeq),
			TaxAmount:     inv.TaxAmount,
			TaxRate:       item.Pricing.Tax.Rate,
			LineItems: []LineItem{{
				Description: item.Name,
				Quantity:    inv.Quantity,
				UnitPrice:   inv.UnitPrice,
				Amount:      inv.Subtotal,
				Taxable:     item.Pricing.Tax.Enabled,
			}},
		},
		Notes:     notes,
		ExpiresAt: &expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if item.Subscription {
		if period == nil {
			return nil, domain.ErrInvalidArgument
		}
		p.Subscription = &SubscriptionDetail{
			StartDate:   period.StartDate,
			EndDate:     period.EndDate,
			RenewalDate: period.RenewalDate,
			Status:      SubscriptionStatusPending,
		}
	}
	return p, nil
}

// Complete moves a pending transaction to completed: invariant is
// pending -> completed only, re-completion is rejected rather than reapplied.
func (p *PaymentTransaction) Complete(receivedBy *string, now time.Time) error {
	if p.Status == PaymentStatusCompleted {
		return domain.ErrAlreadyCompleted
	}
	if p.Status != PaymentStatusPending {
		return domain.ErrInvalidArgument
	}
	p.Status = PaymentStatusCompleted
	p.ReceivedBy = receivedBy
	p.ExpiresAt = nil
	if p.Subscription != nil {
		p.Subscription.Status = SubscriptionStatusActive
	}
	p.UpdatedAt = now
	return nil
}

// Fail moves a pending transaction to failed. The subscription sub-document
// stays pending rather than moving to a failed state, so the purchase can be
// retried.
func (p *PaymentTransaction) Fail(now time.Time) error {
	if p.Status == PaymentStatusCompleted {
		return domain.ErrAlreadyCompleted
	}
	if p.Status != PaymentStatusPending {
		return domain.ErrInvalidArgument
	}
	p.Status = PaymentStatusFailed
	p.ExpiresAt = nil
	p.UpdatedAt = now
	return nil
}

// SetMetadata records gateway response fields. Write-once: it refuses to
// overwrite previously stored metadata.
func (p *PaymentTransaction) SetMetadata(md map[string]string) {
	if len(p.Metadata) > 0 || len(md) == 0 {
		return
	}
	p.Metadata = md
}
