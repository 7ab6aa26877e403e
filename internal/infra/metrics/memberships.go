package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(membershipsExpiredTotal)
}

var membershipsExpiredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "memberships_expired_total",
		Help: "Active memberships demoted to expired by the sweeper.",
	},
)

func IncMembershipsExpired(count int) {
	membershipsExpiredTotal.Add(float64(count))
}
