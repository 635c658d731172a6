// Package store provides the SQLite-backed ledger and settings storage.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"perdiem/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register sqlite driver
)

// Scope selects which collection a transaction may touch.
type Scope int

const (
	ScopeEntries Scope = iota
	ScopeSettings
)

// Mode selects whether a transaction may write.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Store owns the durable entry and settings collections. A single handle is
// opened at startup and passed explicitly to every component that needs it.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath. Calling it against an
// existing database is a no-op for the schema; both collections are created
// only when absent. Failures map to ErrStorageUnavailable.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating data dir: %v", ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening db: %v", ErrStorageUnavailable, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrStorageUnavailable, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a scoped transaction. Operations outside the declared scope, or
// writes in a read-only transaction, fail before touching the backend.
type Tx struct {
	tx    *sql.Tx
	scope Scope
	mode  Mode
	done  bool
}

// Begin starts a transaction over one collection. Every transaction must be
// released on every exit path; the deferred-Rollback idiom is safe because
// Rollback after Commit is a no-op.
func (s *Store) Begin(ctx context.Context, scope Scope, mode Mode) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrTxFailure, err)
	}
	return &Tx{tx: tx, scope: scope, mode: mode}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTxFailure, err)
	}
	return nil
}

// Rollback aborts the transaction unless it already committed.
func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}

func (t *Tx) check(scope Scope, write bool) error {
	if t.scope != scope {
		return ErrScope
	}
	if write && t.mode != ReadWrite {
		return ErrReadOnly
	}
	return nil
}

// InsertEntry stores a new entry and returns the id assigned by the store.
func (t *Tx) InsertEntry(e model.SpendEntry) (int64, error) {
	if err := t.check(ScopeEntries, true); err != nil {
		return 0, err
	}
	res, err := t.tx.Exec(
		`INSERT INTO entries (created_at, amount, note) VALUES (?, ?, ?)`,
		e.Timestamp.Format(time.RFC3339Nano), e.Amount.String(), e.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert entry: %v", ErrTxFailure, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert entry id: %v", ErrTxFailure, err)
	}
	return id, nil
}

// Entries returns every entry. No ordering is guaranteed; callers sort for
// display if they care.
func (t *Tx) Entries() ([]model.SpendEntry, error) {
	if err := t.check(ScopeEntries, false); err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(`SELECT id, created_at, amount, note FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("%w: query entries: %v", ErrTxFailure, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.SpendEntry
	for rows.Next() {
		var e model.SpendEntry
		var created, amount string
		if err := rows.Scan(&e.ID, &created, &amount, &e.Note); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", ErrTxFailure, err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("%w: entry %d timestamp: %v", ErrTxFailure, e.ID, err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: entry %d amount: %v", ErrTxFailure, e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read entries: %v", ErrTxFailure, err)
	}
	return out, nil
}

// DeleteEntry removes an entry by id. Deleting an id that does not exist is
// a no-op, not an error; found reports whether a row was removed.
func (t *Tx) DeleteEntry(id int64) (found bool, err error) {
	if err := t.check(ScopeEntries, true); err != nil {
		return false, err
	}
	res, err := t.tx.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete entry: %v", ErrTxFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete entry: %v", ErrTxFailure, err)
	}
	return n > 0, nil
}

// GetSettings reads the singleton under key. Absence is ErrNotFound.
func (t *Tx) GetSettings(key string) (model.Settings, error) {
	if err := t.check(ScopeSettings, false); err != nil {
		return model.Settings{}, err
	}
	var s model.Settings
	var daily, start, date string
	err := t.tx.QueryRow(
		`SELECT anonymous_id, daily_budget, start_amount, start_date FROM settings WHERE key = ?`, key,
	).Scan(&s.AnonymousID, &daily, &start, &date)
	if err == sql.ErrNoRows {
		return model.Settings{}, ErrNotFound
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: get settings: %v", ErrTxFailure, err)
	}
	if s.DailyBudget, err = decimal.NewFromString(daily); err != nil {
		return model.Settings{}, fmt.Errorf("%w: settings daily_budget: %v", ErrTxFailure, err)
	}
	if s.StartAmount, err = decimal.NewFromString(start); err != nil {
		return model.Settings{}, fmt.Errorf("%w: settings start_amount: %v", ErrTxFailure, err)
	}
	if s.StartDate, err = time.Parse(time.RFC3339, date); err != nil {
		return model.Settings{}, fmt.Errorf("%w: settings start_date: %v", ErrTxFailure, err)
	}
	return s, nil
}

// PutSettings upserts the record under key.
func (t *Tx) PutSettings(key string, s model.Settings) error {
	if err := t.check(ScopeSettings, true); err != nil {
		return err
	}
	_, err := t.tx.Exec(`INSERT INTO settings (key, anonymous_id, daily_budget, start_amount, start_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			anonymous_id = excluded.anonymous_id,
			daily_budget = excluded.daily_budget,
			start_amount = excluded.start_amount,
			start_date   = excluded.start_date`,
		key, s.AnonymousID, s.DailyBudget.String(), s.StartAmount.String(),
		s.StartDate.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: put settings: %v", ErrTxFailure, err)
	}
	return nil
}

// AddSettings inserts the record, failing with ErrKeyAlreadyExists when the
// key is present. Used only during initialization so two racing first runs
// cannot clobber each other's install token.
func (t *Tx) AddSettings(key string, s model.Settings) error {
	if err := t.check(ScopeSettings, true); err != nil {
		return err
	}
	res, err := t.tx.Exec(`INSERT INTO settings (key, anonymous_id, daily_budget, start_amount, start_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		key, s.AnonymousID, s.DailyBudget.String(), s.StartAmount.String(),
		s.StartDate.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: add settings: %v", ErrTxFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: add settings: %v", ErrTxFailure, err)
	}
	if n == 0 {
		return ErrKeyAlreadyExists
	}
	return nil
}

// Persisted reports whether the database is running in its durable
// journaling mode (WAL). A false result is a degraded-durability state to
// display, not an error.
func (s *Store) Persisted(ctx context.Context) (bool, error) {
	var mode string
	if err := s.db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode); err != nil {
		return false, fmt.Errorf("%w: journal_mode: %v", ErrTxFailure, err)
	}
	return strings.EqualFold(mode, "wal"), nil
}

// RequestPersistence asks the backend for the durable journaling mode and
// reports whether it was granted. Denial is not an error.
func (s *Store) RequestPersistence(ctx context.Context) bool {
	var mode string
	if err := s.db.QueryRowContext(ctx, `PRAGMA journal_mode=wal`).Scan(&mode); err != nil {
		return false
	}
	return strings.EqualFold(mode, "wal")
}
