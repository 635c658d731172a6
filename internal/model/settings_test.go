package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDayTruncation(t *testing.T) {
	in := time.Date(2026, 8, 24, 18, 33, 12, 999, time.Local)
	got := Day(in)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("Day = %v, want %v", got, want)
	}
	// Already-truncated values are a fixed point.
	if !Day(got).Equal(got) {
		t.Fatalf("Day not idempotent: %v", Day(got))
	}
}

func TestNormalizeBackfillsToken(t *testing.T) {
	s := Settings{
		DailyBudget: decimal.NewFromInt(40),
		StartDate:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local),
	}
	if !s.Normalize(func() string { return "tok-1" }) {
		t.Fatal("Normalize reported no change for empty token")
	}
	if s.AnonymousID != "tok-1" {
		t.Fatalf("token = %q, want tok-1", s.AnonymousID)
	}

	// A present token is never regenerated.
	if s.Normalize(func() string { return "tok-2" }) {
		t.Fatal("Normalize changed an already-normalized record")
	}
	if s.AnonymousID != "tok-1" {
		t.Fatalf("token regenerated: %q", s.AnonymousID)
	}
}

func TestNormalizeTruncatesStartDate(t *testing.T) {
	s := Settings{
		AnonymousID: "tok",
		StartDate:   time.Date(2026, 8, 20, 9, 30, 0, 0, time.Local),
	}
	if !s.Normalize(func() string { return "unused" }) {
		t.Fatal("Normalize reported no change for dated start")
	}
	if want := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local); !s.StartDate.Equal(want) {
		t.Fatalf("start date = %v, want %v", s.StartDate, want)
	}
}

func TestDefaultSettings(t *testing.T) {
	today := time.Date(2026, 8, 24, 16, 20, 0, 0, time.Local)
	s := DefaultSettings(today, func() string { return "fresh" })

	if s.AnonymousID != "fresh" {
		t.Fatalf("token = %q", s.AnonymousID)
	}
	if !s.DailyBudget.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("daily budget = %v, want 40", s.DailyBudget)
	}
	if !s.StartAmount.IsZero() {
		t.Fatalf("start amount = %v, want 0", s.StartAmount)
	}
	if !s.StartDate.Equal(Day(today)) {
		t.Fatalf("start date = %v, want %v", s.StartDate, Day(today))
	}
}

func TestSettingsStateTags(t *testing.T) {
	if _, ok := LoadingSettings().Ready(); ok {
		t.Fatal("loading state reported ready")
	}
	if _, ok := UnavailableSettings(nil).Ready(); ok {
		t.Fatal("unavailable state reported ready")
	}
	s := Settings{AnonymousID: "tok"}
	got, ok := ReadySettings(s).Ready()
	if !ok || got.AnonymousID != "tok" {
		t.Fatalf("ready state = (%+v, %v)", got, ok)
	}
}
