package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsKey is the fixed key of the settings singleton row.
const SettingsKey = "settings"

// DefaultDailyBudget seeds a fresh install.
var DefaultDailyBudget = decimal.NewFromInt(40)

// Settings is the singleton budget configuration. StartDate is always
// day-truncated in storage.
type Settings struct {
	AnonymousID string
	DailyBudget decimal.Decimal
	StartAmount decimal.Decimal
	StartDate   time.Time
}

// Day truncates t to midnight in its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Normalize backfills a missing install token and re-truncates the start
// date. It reports whether anything changed and the record needs to be
// written back.
func (s *Settings) Normalize(gen func() string) bool {
	changed := false
	if s.AnonymousID == "" {
		s.AnonymousID = gen()
		changed = true
	}
	if day := Day(s.StartDate); !day.Equal(s.StartDate) {
		s.StartDate = day
		changed = true
	}
	return changed
}

// DefaultSettings builds the first-run record: zero starting balance and a
// 40-per-day allowance beginning today.
func DefaultSettings(today time.Time, gen func() string) Settings {
	return Settings{
		AnonymousID: gen(),
		DailyBudget: DefaultDailyBudget,
		StartAmount: decimal.Zero,
		StartDate:   Day(today),
	}
}
