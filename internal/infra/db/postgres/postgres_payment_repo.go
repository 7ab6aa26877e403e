package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, gym_id, item_id, item_type, amount, currency, method, status, payment_by, received_by, invoice_no, receipt_no, tax_amount, tax_rate, line_items, is_subscription, sub_start, sub_end, sub_renewal, sub_status, sub_cancelled_at, metadata, notes, expires_at, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentTransaction) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26
) ON CONFLICT (id) DO UPDATE SET
  status=$8, received_by=$10, sub_status=$20, sub_cancelled_at=$21, metadata=$22, notes=$23, expires_at=$24, updated_at=$26;`

	lineItems, err := json.Marshal(p.Invoice.LineItems)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	var (
		isSub                                bool
		subStart, subEnd, subRenewal, subCxl *time.Time
		subStatus                            *string
	)
	if p.Subscription != nil {
		isSub = true
		subStart, subEnd, subRenewal = &p.Subscription.StartDate, &p.Subscription.EndDate, &p.Subscription.RenewalDate
		s := string(p.Subscription.Status)
		subStatus = &s
		subCxl = p.Subscription.CancelledAt
	}

	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.GymID, p.ItemID, string(p.ItemType), p.Amount, p.Currency, p.Method, string(p.Status),
		p.PaymentBy, p.ReceivedBy, p.Invoice.InvoiceNumber, p.Invoice.ReceiptNumber, p.Invoice.TaxAmount,
		p.Invoice.TaxRate, lineItems, isSub, subStart, subEnd, subRenewal, subStatus, subCxl, metadata,
		p.Notes, p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentTransaction, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM payments WHERE id=$1;`, id)
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

// NextInvoiceSequence scans the existing rows for the year's prefix rather
// than keeping a separate counter table; an advisory xact lock keyed on the
// year serializes concurrent creations so no two transactions share a number.
func (r *paymentRepo) NextInvoiceSequence(ctx context.Context, tx repository.Tx, year int) (int, error) {
	if _, ok := tx.(pgx.Tx); !ok {
		return 0, domain.ErrInvalidExecContext
	}
	if _, err := execSQL(ctx, r.pool, tx, `SELECT pg_advisory_xact_lock($1);`, invoiceLockKey(year)); err != nil {
		return 0, domain.ErrOperationFailed
	}

	const q = `SELECT COALESCE(MAX(SUBSTRING(invoice_no FROM 10)::int), 0) FROM payments WHERE invoice_no LIKE $1;`
	row, err := pickRow(ctx, r.pool, tx, q, fmt.Sprintf("INV-%d-%%", year))
	if err != nil {
		return 0, err
	}
	var max int
	if err := row.Scan(&max); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return max + 1, nil
}

func invoiceLockKey(year int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "invoice-seq-%d", year)
	return int64(h.Sum64() & ((1 << 63) - 1))
}

func (r *paymentRepo) ListLapsedActiveSubscriptions(ctx context.Context, tx repository.Tx, gymID string, now time.Time, limit int) ([]*model.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments
WHERE gym_id=$1 AND is_subscription AND sub_status='active' AND sub_end < $2
ORDER BY sub_end ASC LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, gymID, now, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentTransaction
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) ExpireStalePending(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `UPDATE payments
SET status='expired', expires_at=NULL, updated_at=NOW()
WHERE status='pending' AND expires_at IS NOT NULL AND expires_at < $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func scanPayment(row pgx.Row) (*model.PaymentTransaction, error) {
	var (
		p                                    model.PaymentTransaction
		itemType, status                     string
		lineItems, metadata                  []byte
		isSub                                bool
		subStart, subEnd, subRenewal, subCxl *time.Time
		subStatus                            *string
	)
	err := row.Scan(
		&p.ID, &p.GymID, &p.ItemID, &itemType, &p.Amount, &p.Currency, &p.Method, &status,
		&p.PaymentBy, &p.ReceivedBy, &p.Invoice.InvoiceNumber, &p.Invoice.ReceiptNumber, &p.Invoice.TaxAmount,
		&p.Invoice.TaxRate, &lineItems, &isSub, &subStart, &subEnd, &subRenewal, &subStatus, &subCxl, &metadata,
		&p.Notes, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.ItemType = model.ItemType(itemType)
	p.Status = model.PaymentStatus(status)
	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &p.Invoice.LineItems); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if isSub && subStart != nil && subEnd != nil && subRenewal != nil {
		sd := &model.SubscriptionDetail{
			StartDate:   *subStart,
			EndDate:     *subEnd,
			RenewalDate: *subRenewal,
			CancelledAt: subCxl,
		}
		if subStatus != nil {
			sd.Status = model.SubscriptionStatus(*subStatus)
		}
		p.Subscription = sd
	}
	return &p, nil
}
