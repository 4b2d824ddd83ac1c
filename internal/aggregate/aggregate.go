// Package aggregate computes the dashboard metrics from a ledger snapshot.
// Everything here is pure and recomputed fresh on every read; at this scale
// there is no incremental aggregate state to invalidate.
package aggregate

import (
	"github.com/dvloznov/vibeledger/internal/domain"
)

// forecastDays scales the running total into the naive month projection.
// The baseline behavior is total × 30, not a measured daily rate; see
// DESIGN.md before "fixing" this.
const forecastDays = 30

// Summarize computes the dashboard metrics over the full ledger snapshot.
// It is idempotent: identical input yields identical Metrics.
func Summarize(records []domain.TransactionRecord) domain.Metrics {
	m := domain.Metrics{
		CategoryBreakdown: make(map[domain.Category]float64),
		OwnerBreakdown:    make(map[string]float64),
	}

	sharedCount := 0
	for _, r := range records {
		m.TotalSpent += r.Amount
		m.CategoryBreakdown[r.Category] += r.Amount
		if r.Owner != "" {
			m.OwnerBreakdown[r.Owner] += r.Amount
		}
		if r.Type == domain.TypeShared {
			sharedCount++
		}
		if r.IsSubscription {
			m.Subscriptions = append(m.Subscriptions, r)
		}
	}

	// Guard the empty ledger; a fresh session must not divide by zero.
	if len(records) > 0 {
		m.SharedPulsePercent = float64(sharedCount) / float64(len(records)) * 100
	}

	m.MonthForecast = m.TotalSpent * forecastDays

	return m
}
