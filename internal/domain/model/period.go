package model

import "time"

// SubscriptionPeriod is the computed validity window for a subscription
// purchase. RenewalDate equals EndDate.
type SubscriptionPeriod struct {
	StartDate   time.Time
	EndDate     time.Time
	RenewalDate time.Time
}

// ComputeSubscriptionPeriod derives the subscription window from a plan's
// billing interval, evaluated in the tenant's timezone. Month and year
// addition is calendar-aware (respects month lengths and leap years), not a
// fixed-seconds approximation.
func ComputeSubscriptionPeriod(p Pricing, loc *time.Location, now time.Time) SubscriptionPeriod {
	if loc == nil {
		loc = time.UTC
	}
	start := now.In(loc)
	n := p.IntervalCount

	var end time.Time
	switch p.Interval {
	case IntervalMinute:
		end = start.Add(time.Duration(n) * time.Minute)
	case IntervalDay:
		end = start.AddDate(0, 0, n)
	case IntervalWeek:
		end = start.AddDate(0, 0, 7*n)
	case IntervalMonth:
		end = start.AddDate(0, n, 0)
	case IntervalYear:
		end = start.AddDate(n, 0, 0)
	default:
		end = start
	}

	return SubscriptionPeriod{StartDate: start, EndDate: end, RenewalDate: end}
}
