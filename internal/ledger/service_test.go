package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"perdiem/internal/balance"
	"perdiem/internal/clock"
	"perdiem/internal/model"
	"perdiem/internal/store"

	"github.com/shopspring/decimal"
)

func tokenGen(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func testOpen(t *testing.T, path string, now time.Time, gen func() string) *Service {
	t.Helper()
	svc, err := Open(context.Background(), Options{
		DBPath: path,
		Clock:  clock.Fixed{T: now},
		Gen:    gen,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return svc
}

func TestOpenSeedsDefaults(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 4, 5, 0, time.Local)
	svc := testOpen(t, filepath.Join(t.TempDir(), "perdiem.db"), now, tokenGen("tok"))
	defer func() { _ = svc.Close() }()

	s, ok := svc.Settings()
	if !ok {
		t.Fatal("settings not ready after Open")
	}
	if s.AnonymousID != "tok-1" {
		t.Fatalf("token = %q, want tok-1", s.AnonymousID)
	}
	if !s.DailyBudget.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("daily budget = %v, want 40", s.DailyBudget)
	}
	if !s.StartAmount.IsZero() {
		t.Fatalf("start amount = %v, want 0", s.StartAmount)
	}
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local)
	if !s.StartDate.Equal(want) {
		t.Fatalf("start date = %v, want %v", s.StartDate, want)
	}
}

func TestOpenTwiceKeepsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perdiem.db")
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)

	svc := testOpen(t, path, now, tokenGen("first"))
	first, _ := svc.Settings()
	_ = svc.Close()

	// A second session must load, not reseed: the token survives and no
	// second singleton appears.
	svc = testOpen(t, path, now.Add(24*time.Hour), tokenGen("second"))
	defer func() { _ = svc.Close() }()

	second, ok := svc.Settings()
	if !ok {
		t.Fatal("settings not ready after reopen")
	}
	if second.AnonymousID != first.AnonymousID {
		t.Fatalf("token changed across opens: %q -> %q", first.AnonymousID, second.AnonymousID)
	}
}

func TestOpenNormalizesExistingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perdiem.db")
	ctx := context.Background()

	// Simulate an older database: settings present, token missing, start
	// date carrying a time component.
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	rawStart := time.Date(2026, 8, 20, 13, 45, 12, 0, time.Local)
	tx, err := st.Begin(ctx, store.ScopeSettings, store.ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.PutSettings(model.SettingsKey, model.Settings{
		AnonymousID: "",
		DailyBudget: decimal.NewFromInt(25),
		StartAmount: decimal.NewFromInt(10),
		StartDate:   rawStart,
	}); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = st.Close()

	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local)
	svc := testOpen(t, path, now, tokenGen("backfill"))
	defer func() { _ = svc.Close() }()

	s, ok := svc.Settings()
	if !ok {
		t.Fatal("settings not ready")
	}
	if s.AnonymousID != "backfill-1" {
		t.Fatalf("token = %q, want backfilled backfill-1", s.AnonymousID)
	}
	if !s.StartDate.Equal(model.Day(rawStart)) {
		t.Fatalf("start date = %v, want %v", s.StartDate, model.Day(rawStart))
	}
	if !s.DailyBudget.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("daily budget lost in upgrade: %v", s.DailyBudget)
	}

	// Normalization is persisted, and the balance for the same calendar
	// day is unchanged by the truncation.
	raw := s
	raw.StartDate = rawStart
	if a, b := balance.Compute(nil, raw, now), balance.Compute(nil, s, now); !a.Equal(b) {
		t.Fatalf("normalization changed the balance: %v vs %v", a, b)
	}

	st2, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer func() { _ = st2.Close() }()
	tx2, err := st2.Begin(ctx, store.ScopeSettings, store.ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx2.Rollback()
	persisted, err := tx2.GetSettings(model.SettingsKey)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if persisted.AnonymousID != "backfill-1" {
		t.Fatalf("backfilled token not persisted: %q", persisted.AnonymousID)
	}
}

func TestAddRemoveEntry(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.Local)
	svc := testOpen(t, filepath.Join(t.TempDir(), "perdiem.db"), now, tokenGen("tok"))
	defer func() { _ = svc.Close() }()
	ctx := context.Background()

	id, err := svc.AddEntry(ctx, decimal.NewFromInt(12), "lunch")
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	entries, err := svc.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id || entries[0].Note != "lunch" {
		t.Fatalf("entries = %+v, want the added row", entries)
	}
	if !entries[0].Timestamp.Equal(now) {
		t.Fatalf("entry timestamp = %v, want the injected clock's %v", entries[0].Timestamp, now)
	}

	found, err := svc.RemoveEntry(ctx, id)
	if err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if !found {
		t.Fatal("RemoveEntry did not find the entry")
	}

	found, err = svc.RemoveEntry(ctx, id)
	if err != nil {
		t.Fatalf("second RemoveEntry: %v", err)
	}
	if found {
		t.Fatal("second RemoveEntry reported a row")
	}
}

func TestBalanceThroughService(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.Local)
	svc := testOpen(t, filepath.Join(t.TempDir(), "perdiem.db"), now, tokenGen("tok"))
	defer func() { _ = svc.Close() }()
	ctx := context.Background()

	if _, err := svc.AddEntry(ctx, decimal.NewFromInt(15), ""); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	bal, ok, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !ok {
		t.Fatal("Balance not ready")
	}
	// Seeded defaults: 0 + 40*1 - 15.
	if !bal.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("balance = %v, want 25", bal)
	}
}
