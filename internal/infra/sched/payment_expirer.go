package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gym-membership-platform/internal/usecase"
)

// PaymentExpirer periodically demotes pending transactions whose reservation
// window has elapsed. This covers payers who abandoned checkout and cash
// transactions nobody confirmed.
type PaymentExpirer struct {
	interval time.Duration
	payUC    usecase.PaymentUseCase
	log      *zerolog.Logger
}

func NewPaymentExpirer(interval time.Duration, payUC usecase.PaymentUseCase, logger *zerolog.Logger) *PaymentExpirer {
	if interval <= 0 {
		interval = time.Minute
	}
	expLog := logger.With().Str("component", "PaymentExpirer").Logger()
	return &PaymentExpirer{interval: interval, payUC: payUC, log: &expLog}
}

func (w *PaymentExpirer) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment expirer")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment expirer")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.payUC.ExpireStalePayments(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("payment expirer error")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("stale pending payments expired")
			}
		}
	}
}
