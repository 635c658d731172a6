package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"perdiem/internal/model"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "perdiem.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustAmount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("amount %q: %v", s, err)
	}
	return v
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "perdiem.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}

	ctx := context.Background()
	tx, err := s1.Begin(ctx, ScopeEntries, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: mustAmount(t, "5")})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = s1.Close()

	// A second open against the same backing must not recreate or clear
	// the collections.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer func() { _ = s2.Close() }()

	tx2, err := s2.Begin(ctx, ScopeEntries, ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx2.Rollback()
	entries, err := tx2.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("entries after reopen = %+v, want the one inserted row", entries)
	}
}

func TestInsertAssignsFreshIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, ScopeEntries, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id1, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: mustAmount(t, "1.50")})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	id2, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: mustAmount(t, "2.25")})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("ids not unique: %d == %d", id1, id2)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Delete the higher id, insert again: the id must not be reused.
	tx, err = s.Begin(ctx, ScopeEntries, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.DeleteEntry(id2); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	id3, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: mustAmount(t, "3")})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if id3 <= id2 {
		t.Fatalf("id %d reused after deleting %d", id3, id2)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, ScopeEntries, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	id, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: mustAmount(t, "9.99"), Note: "coffee"})
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}

	found, err := tx.DeleteEntry(id)
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if !found {
		t.Fatal("first delete did not find the entry")
	}

	found, err = tx.DeleteEntry(id)
	if err != nil {
		t.Fatalf("second DeleteEntry: %v", err)
	}
	if found {
		t.Fatal("second delete reported a row")
	}

	entries, err := tx.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after delete = %d, want 0", len(entries))
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestAmountsRoundTripExactly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := mustAmount(t, "12.34")
	tx, err := s.Begin(ctx, ScopeEntries, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: want}); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	entries, err := tx.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(entries) != 1 || !entries[0].Amount.Equal(want) {
		t.Fatalf("amount round-trip = %v, want %v", entries[0].Amount, want)
	}
}

func TestAddSettingsConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := model.Settings{
		AnonymousID: "tok-1",
		DailyBudget: mustAmount(t, "40"),
		StartAmount: mustAmount(t, "0"),
		StartDate:   model.Day(time.Now()),
	}

	tx, err := s.Begin(ctx, ScopeSettings, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.AddSettings(model.SettingsKey, first); err != nil {
		t.Fatalf("AddSettings: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	second := first
	second.AnonymousID = "tok-2"
	tx, err = s.Begin(ctx, ScopeSettings, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()

	if err := tx.AddSettings(model.SettingsKey, second); !errors.Is(err, ErrKeyAlreadyExists) {
		t.Fatalf("second AddSettings error = %v, want ErrKeyAlreadyExists", err)
	}

	got, err := tx.GetSettings(model.SettingsKey)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.AnonymousID != "tok-1" {
		t.Fatalf("token after failed add = %q, want tok-1", got.AnonymousID)
	}

	// Put is an upsert and does replace.
	if err := tx.PutSettings(model.SettingsKey, second); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	got, err = tx.GetSettings(model.SettingsKey)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.AnonymousID != "tok-2" {
		t.Fatalf("token after put = %q, want tok-2", got.AnonymousID)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestGetSettingsAbsent(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.Begin(context.Background(), ScopeSettings, ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.GetSettings(model.SettingsKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSettings error = %v, want ErrNotFound", err)
	}
}

func TestScopeAndModeEnforced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, ScopeSettings, ReadWrite)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.Rollback()
	if _, err := tx.Entries(); !errors.Is(err, ErrScope) {
		t.Fatalf("entries op in settings scope error = %v, want ErrScope", err)
	}

	ro, err := s.Begin(ctx, ScopeEntries, ReadOnly)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer ro.Rollback()
	if _, err := ro.InsertEntry(model.SpendEntry{Timestamp: time.Now(), Amount: decimal.Zero}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("write in read-only tx error = %v, want ErrReadOnly", err)
	}
}

func TestOpenBadPath(t *testing.T) {
	// A file where the data directory should be makes creation fail.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := Open(filepath.Join(blocker, "nested", "perdiem.db")); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("Open error = %v, want ErrStorageUnavailable", err)
	}
}
