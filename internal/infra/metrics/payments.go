package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentsExpiredTotal,
		gatewayErrorsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transactions by status and method.",
		},
		[]string{"status", "method"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of completed payments in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	paymentsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_expired_total",
			Help: "Pending transactions demoted to expired after their reservation window elapsed.",
		},
	)

	gatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_errors_total",
			Help: "Failed gateway session creations, labeled by provider.",
		},
		[]string{"provider"},
	)
)

func IncPayment(status, method string) {
	paymentsTotal.WithLabelValues(norm(status), norm(method)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func AddPaymentsExpired(count int64) {
	paymentsExpiredTotal.Add(float64(count))
}

func IncGatewayError(provider string) {
	gatewayErrorsTotal.WithLabelValues(norm(provider)).Inc()
}
