package repository

import (
	"context"
	"time"

	"gym-membership-platform/internal/domain/model"
)

// PaymentRepository persists payment transactions. Methods take a Tx so
// callers can scope writes to the unit of work that owns them.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PaymentTransaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentTransaction, error)
	// Delete removes a transaction outright. Used only as the compensating
	// action when gateway link generation fails after the row was created.
	Delete(ctx context.Context, tx Tx, id string) error

	// NextInvoiceSequence reserves the next per-year invoice/receipt sequence
	// number. Must be called inside a transaction; the implementation
	// serializes concurrent callers for the same year.
	NextInvoiceSequence(ctx context.Context, tx Tx, year int) (int, error)

	// ListLapsedActiveSubscriptions returns completed subscription-bearing
	// transactions for a gym whose subscription end date has passed and whose
	// subscription status is still active.
	ListLapsedActiveSubscriptions(ctx context.Context, tx Tx, gymID string, now time.Time, limit int) ([]*model.PaymentTransaction, error)

	// ExpireStalePending marks pending transactions whose reservation window
	// has elapsed as expired, returning how many rows were affected.
	ExpireStalePending(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
