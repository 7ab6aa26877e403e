//go:build !integration

package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gym-membership-platform/internal/domain"
	"gym-membership-platform/internal/domain/model"
)

func monthlyPricing(amount int64, taxRate float64) model.Pricing {
	p := model.Pricing{
		Amount:        amount,
		Currency:      "BDT",
		Interval:      model.IntervalMonth,
		IntervalCount: 1,
	}
	if taxRate > 0 {
		p.Tax = model.Tax{Enabled: true, Rate: taxRate}
	}
	return p
}

func TestComputeInvoice(t *testing.T) {
	t.Run("tax disabled yields zero tax", func(t *testing.T) {
		inv := model.ComputeInvoice(monthlyPricing(10000, 0))
		if inv.TaxAmount != 0 {
			t.Errorf("tax = %d, want 0", inv.TaxAmount)
		}
		if inv.TotalAmount != 10000 || inv.Subtotal != 10000 {
			t.Errorf("total/subtotal = %d/%d, want 10000/10000", inv.TotalAmount, inv.Subtotal)
		}
	})

	t.Run("tax is rounded half away from zero", func(t *testing.T) {
		// 3333 * 0.075 = 249.975 -> 250
		inv := model.ComputeInvoice(monthlyPricing(3333, 0.075))
		if inv.TaxAmount != 250 {
			t.Errorf("tax = %d, want 250", inv.TaxAmount)
		}
		if inv.TotalAmount != 3583 {
			t.Errorf("total = %d, want 3583", inv.TotalAmount)
		}
	})

	t.Run("integer arithmetic stays exact over many amounts", func(t *testing.T) {
		for amount := int64(1); amount <= 1000; amount++ {
			inv := model.ComputeInvoice(monthlyPricing(amount, 0.10))
			if inv.Subtotal != amount {
				t.Fatalf("amount %d: subtotal = %d", amount, inv.Subtotal)
			}
			if inv.TotalAmount != inv.Subtotal+inv.TaxAmount {
				t.Fatalf("amount %d: total %d != subtotal %d + tax %d",
					amount, inv.TotalAmount, inv.Subtotal, inv.TaxAmount)
			}
		}
	})
}

func TestFormatNumbers(t *testing.T) {
	if got := model.FormatInvoiceNumber(2026, 7); got != "INV-2026-0007" {
		t.Errorf("FormatInvoiceNumber = %q", got)
	}
	if got := model.FormatReceiptNumber(2026, 12345); got != "RCP-2026-12345" {
		t.Errorf("FormatReceiptNumber = %q, sequence must widen past 4 digits", got)
	}
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		100:   "1.00",
		11000: "110.00",
		-250:  "-2.50",
	}
	for amount, want := range cases {
		if got := model.FormatMajorUnits(amount); got != want {
			t.Errorf("FormatMajorUnits(%d) = %q, want %q", amount, got, want)
		}
	}
}

func TestComputeSubscriptionPeriod(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		interval model.BillingInterval
		count    int
		wantEnd  time.Time
	}{
		{"minute", model.IntervalMinute, 45, now.In(loc).Add(45 * time.Minute)},
		{"day", model.IntervalDay, 10, now.In(loc).AddDate(0, 0, 10)},
		{"week", model.IntervalWeek, 2, now.In(loc).AddDate(0, 0, 14)},
		{"month", model.IntervalMonth, 1, now.In(loc).AddDate(0, 1, 0)},
		{"year", model.IntervalYear, 1, now.In(loc).AddDate(1, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := model.Pricing{Interval: tc.interval, IntervalCount: tc.count}
			got := model.ComputeSubscriptionPeriod(p, loc, now)
			if !got.StartDate.Equal(now) {
				t.Errorf("start = %v, want %v", got.StartDate, now)
			}
			if !got.EndDate.Equal(tc.wantEnd) {
				t.Errorf("end = %v, want %v", got.EndDate, tc.wantEnd)
			}
			if !got.RenewalDate.Equal(got.EndDate) {
				t.Error("renewal date must equal end date")
			}
		})
	}

	t.Run("month addition is calendar aware", func(t *testing.T) {
		start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
		got := model.ComputeSubscriptionPeriod(model.Pricing{Interval: model.IntervalMonth, IntervalCount: 1}, time.UTC, start)
		want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		if !got.EndDate.Equal(want) {
			t.Errorf("Feb + 1 month = %v, want %v (28 days, not a fixed 30)", got.EndDate, want)
		}
	})

	t.Run("year addition respects leap years", func(t *testing.T) {
		start := time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC)
		got := model.ComputeSubscriptionPeriod(model.Pricing{Interval: model.IntervalYear, IntervalCount: 1}, time.UTC, start)
		want := time.Date(2029, time.March, 1, 0, 0, 0, 0, time.UTC)
		if !got.EndDate.Equal(want) {
			t.Errorf("Feb 29 + 1 year = %v, want normalized %v", got.EndDate, want)
		}
	})

	t.Run("nil location falls back to UTC", func(t *testing.T) {
		got := model.ComputeSubscriptionPeriod(model.Pricing{Interval: model.IntervalDay, IntervalCount: 1}, nil, now)
		if got.StartDate.Location() != time.UTC {
			t.Errorf("start location = %v, want UTC", got.StartDate.Location())
		}
	})
}

func testItem() *model.PurchasableItem {
	return &model.PurchasableItem{
		ID:           "plan-1",
		Type:         model.ItemTypeMembershipPlan,
		GymID:        "gym-1",
		Name:         "Monthly Gold",
		Pricing:      monthlyPricing(10000, 0.10),
		Subscription: true,
	}
}

func TestPaymentTransactionLifecycle(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	inv := model.ComputeInvoice(monthlyPricing(10000, 0.10))
	period := model.ComputeSubscriptionPeriod(monthlyPricing(10000, 0.10), time.UTC, now)

	newPending := func(t *testing.T) *model.PaymentTransaction {
		t.Helper()
		p, err := model.NewPaymentTransaction(testItem(), model.MethodCash, "member-1", inv, &period, 2026, 1, "", now)
		if err != nil {
			t.Fatalf("NewPaymentTransaction: %v", err)
		}
		return p
	}

	t.Run("new transaction is pending with a reservation window", func(t *testing.T) {
		p := newPending(t)
		if p.Status != model.PaymentStatusPending {
			t.Errorf("status = %q", p.Status)
		}
		if p.ExpiresAt == nil || !p.ExpiresAt.Equal(now.Add(model.ReservationWindow)) {
			t.Errorf("expires_at = %v", p.ExpiresAt)
		}
		if p.Subscription == nil || p.Subscription.Status != model.SubscriptionStatusPending {
			t.Errorf("subscription = %+v", p.Subscription)
		}
		if p.Invoice.InvoiceNumber != "INV-2026-0001" {
			t.Errorf("invoice number = %q", p.Invoice.InvoiceNumber)
		}
	})

	t.Run("subscription item requires a period", func(t *testing.T) {
		_, err := model.NewPaymentTransaction(testItem(), model.MethodCash, "member-1", inv, nil, 2026, 1, "", now)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("complete is pending to completed only", func(t *testing.T) {
		p := newPending(t)
		staff := "staff-1"
		if err := p.Complete(&staff, now.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}
		if p.Status != model.PaymentStatusCompleted || p.ExpiresAt != nil {
			t.Errorf("after complete: status=%q expires=%v", p.Status, p.ExpiresAt)
		}
		if p.Subscription.Status != model.SubscriptionStatusActive {
			t.Errorf("subscription status = %q", p.Subscription.Status)
		}
		if err := p.Complete(&staff, now); !errors.Is(err, domain.ErrAlreadyCompleted) {
			t.Errorf("re-complete err = %v, want ErrAlreadyCompleted", err)
		}
		if err := p.Fail(now); !errors.Is(err, domain.ErrAlreadyCompleted) {
			t.Errorf("fail after complete err = %v, want ErrAlreadyCompleted", err)
		}
	})

	t.Run("fail keeps the subscription pending", func(t *testing.T) {
		p := newPending(t)
		if err := p.Fail(now.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}
		if p.Status != model.PaymentStatusFailed || p.ExpiresAt != nil {
			t.Errorf("after fail: status=%q expires=%v", p.Status, p.ExpiresAt)
		}
		if p.Subscription.Status != model.SubscriptionStatusPending {
			t.Errorf("subscription status = %q, want pending", p.Subscription.Status)
		}
		if err := p.Complete(nil, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("complete after fail err = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("metadata is write-once", func(t *testing.T) {
		p := newPending(t)
		p.SetMetadata(map[string]string{"card_type": "VISA"})
		p.SetMetadata(map[string]string{"card_type": "MASTER"})
		if p.Metadata["card_type"] != "VISA" {
			t.Errorf("metadata = %v, first write must win", p.Metadata)
		}
	})

	t.Run("ids are unique and time sortable", func(t *testing.T) {
		a := newPending(t)
		b := newPending(t)
		if a.ID == b.ID {
			t.Error("duplicate transaction IDs")
		}
		if len(a.ID) != 26 {
			t.Errorf("id length = %d, want 26 (ULID)", len(a.ID))
		}
	})
}

func TestNewMembershipPlan(t *testing.T) {
	validMethods := map[string]model.MethodSetting{
		model.MethodCash: {Enabled: true, Instructions: "front desk"},
	}

	t.Run("valid plan", func(t *testing.T) {
		plan, err := model.NewMembershipPlan("plan-1", "gym-1", "Monthly", monthlyPricing(10000, 0.10), model.TrialSetting{}, validMethods)
		if err != nil {
			t.Fatal(err)
		}
		it := plan.Purchasable()
		if !it.Subscription || it.Type != model.ItemTypeMembershipPlan {
			t.Errorf("purchasable projection = %+v", it)
		}
	})

	cases := []struct {
		name    string
		mutate  func() (model.Pricing, map[string]model.MethodSetting)
		wantErr error
	}{
		{
			"no enabled method",
			func() (model.Pricing, map[string]model.MethodSetting) {
				return monthlyPricing(10000, 0), map[string]model.MethodSetting{model.MethodCash: {Enabled: false}}
			},
			domain.ErrInvalidArgument,
		},
		{
			"cash without instructions",
			func() (model.Pricing, map[string]model.MethodSetting) {
				return monthlyPricing(10000, 0), map[string]model.MethodSetting{model.MethodCash: {Enabled: true}}
			},
			domain.ErrInvalidArgument,
		},
		{
			"gateway without credentials",
			func() (model.Pricing, map[string]model.MethodSetting) {
				return monthlyPricing(10000, 0), map[string]model.MethodSetting{"sslcommerz": {Enabled: true}}
			},
			domain.ErrInvalidArgument,
		},
		{
			"non-positive amount",
			func() (model.Pricing, map[string]model.MethodSetting) {
				return monthlyPricing(0, 0), validMethods
			},
			domain.ErrInvalidArgument,
		},
		{
			"tax rate above one",
			func() (model.Pricing, map[string]model.MethodSetting) {
				return monthlyPricing(10000, 1.5), validMethods
			},
			domain.ErrInvalidArgument,
		},
		{
			"unknown interval",
			func() (model.Pricing, map[string]model.MethodSetting) {
				p := monthlyPricing(10000, 0)
				p.Interval = model.BillingInterval("fortnight")
				return p, validMethods
			},
			domain.ErrInvalidArgument,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pricing, methods := tc.mutate()
			_, err := model.NewMembershipPlan("plan-1", "gym-1", "Monthly", pricing, model.TrialSetting{}, methods)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGymLocation(t *testing.T) {
	g, err := model.NewGym("gym-1", "Iron Temple", "Asia/Dhaka")
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Location().String(); got != "Asia/Dhaka" {
		t.Errorf("location = %q", got)
	}

	if _, err := model.NewGym("gym-2", "Bad TZ", "Mars/Olympus"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("invalid timezone err = %v, want ErrInvalidArgument", err)
	}

	unknown := &model.Gym{ID: "gym-3", Name: "Legacy", Timezone: ""}
	if unknown.Location() != time.UTC {
		t.Error("empty timezone must fall back to UTC")
	}
}

func TestInvoiceNumberYearScoping(t *testing.T) {
	// Sequences restart per year; the same sequence in different years must
	// still render distinct numbers.
	a := model.FormatInvoiceNumber(2025, 1)
	b := model.FormatInvoiceNumber(2026, 1)
	if a == b {
		t.Errorf("numbers collide across years: %q", a)
	}
	for _, n := range []string{a, b} {
		if len(n) != len("INV-YYYY-NNNN") {
			t.Errorf("unexpected number shape %q", n)
		}
	}
	if got := fmt.Sprintf("%s / %s", a, b); got != "INV-2025-0001 / INV-2026-0001" {
		t.Errorf("got %q", got)
	}
}
