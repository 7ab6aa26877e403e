package adapter

import (
	"context"

	"gym-membership-platform/internal/domain/model"
)

// CheckoutRequest is the provider-agnostic input for creating a hosted
// checkout session. Amount and TaxAmount are integer minor units; the gateway
// implementation converts to the provider's decimal representation.
type CheckoutRequest struct {
	PaymentID   string
	Amount      int64
	TaxAmount   int64
	Currency    string
	Description string
	Credentials map[string]string
	CustomerID  string
}

// CheckoutSession is what the provider hands back on a successful session
// creation: an opaque session key and the URL to redirect the payer to.
type CheckoutSession struct {
	SessionKey  string
	RedirectURL string
}

// CallbackPayload carries the fields of a provider redirect/webhook after the
// payer finishes (or abandons) checkout.
type CallbackPayload struct {
	PaymentID     string // our transaction id, echoed back by the provider
	Status        string // provider status code, e.g. VALID / FAILED / CANCELLED
	AmountPaid    string // decimal major-unit string as sent by the provider
	CardType      string
	OperationID   string // provider-side transaction reference
	FailureReason string
}

// PaymentGateway is the hex port for hosted-checkout payment providers.
type PaymentGateway interface {
	Name() string

	// CreateSession creates a checkout session synchronously. A non-success
	// provider response surfaces as an error; the caller compensates.
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// MapStatus maps a provider callback status code onto the transaction
	// state machine's terminal statuses.
	MapStatus(status string) model.PaymentStatus
}
