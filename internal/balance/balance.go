// Package balance computes the remaining daily-budget balance from the
// ledger and the settings record.
package balance

import (
	"time"

	"perdiem/internal/model"

	"github.com/shopspring/decimal"
)

// DaysElapsed returns the inclusive calendar-day span between the start day
// and now: the start day itself counts as day one. A now before the start
// day yields zero or a negative count; no clamping is applied.
func DaysElapsed(now, startDate time.Time) int64 {
	return calendarDayDiff(now, startDate) + 1
}

// calendarDayDiff counts whole calendar days from b's day to a's day.
// Both days are re-anchored in UTC so a DST transition between them cannot
// skew the division.
func calendarDayDiff(a, b time.Time) int64 {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int64(au.Sub(bu) / (24 * time.Hour))
}

// Compute returns the remaining balance at now: the allowance accrued since
// the start date plus the starting amount, minus everything spent. Addition
// over the entries is commutative, so their order is irrelevant.
//
// Callers must hold a Ready settings record; there is no meaningful result
// for a store that has not finished initializing.
func Compute(entries []model.SpendEntry, s model.Settings, now time.Time) decimal.Decimal {
	days := decimal.NewFromInt(DaysElapsed(now, s.StartDate))
	accrued := s.StartAmount.Add(s.DailyBudget.Mul(days))

	spent := decimal.Zero
	for _, e := range entries {
		spent = spent.Add(e.Amount)
	}
	return accrued.Sub(spent)
}

// SpentOn sums the entries created on the given calendar day.
func SpentOn(entries []model.SpendEntry, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if model.SameDay(e.Timestamp, day) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// DailyTotals returns per-day spend totals for the days-long window ending
// at now, oldest first. Used for the spend sparkline.
func DailyTotals(entries []model.SpendEntry, now time.Time, days int) []decimal.Decimal {
	out := make([]decimal.Decimal, days)
	for i := range out {
		out[i] = SpentOn(entries, now.AddDate(0, 0, i-days+1))
	}
	return out
}
