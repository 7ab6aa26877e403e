package model

import (
	"fmt"
	"math"
)

// Invoice is the money breakdown computed for a purchase. All values are
// integers in minor currency units; conversion to decimal major units happens
// only at the formatting boundary (display, gateway request body).
type Invoice struct {
	Quantity    int
	UnitPrice   int64
	Subtotal    int64
	TaxAmount   int64
	TotalAmount int64
}

// LineItem is one row of the invoicing snapshot persisted on a payment.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   int64   `json:"unit_price"`
	Amount      int64   `json:"amount"`
	Taxable     bool    `json:"taxable"`
}

// ComputeInvoice derives quantity, subtotal, tax and total from an item's
// pricing. Pure function; quantity is always 1 for membership purchases.
func ComputeInvoice(p Pricing) Invoice {
	inv := Invoice{
		Quantity:  1,
		UnitPrice: p.Amount,
	}
	inv.Subtotal = inv.UnitPrice * int64(inv.Quantity)
	if p.Tax.Enabled {
		inv.TaxAmount = int64(math.Round(float64(inv.Subtotal) * p.Tax.Rate))
	}
	inv.TotalAmount = inv.Subtotal + inv.TaxAmount
	return inv
}

// FormatInvoiceNumber renders the bit-exact invoice number contract:
// INV-YYYY-NNNN with a zero-padded 4-digit sequence scoped per year.
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// FormatReceiptNumber renders RCP-YYYY-NNNN, same sequence discipline.
func FormatReceiptNumber(year, seq int) string {
	return fmt.Sprintf("RCP-%d-%04d", year, seq)
}

// FormatMajorUnits converts an integer minor-unit amount into the decimal
// major-unit string gateways expect, e.g. 11000 -> "110.00". Exact; no floats.
func FormatMajorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
