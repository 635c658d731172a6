// Package ledger owns the store handle and runs the startup protocol.
package ledger

import (
	"context"
	"errors"
	"sync"

	"perdiem/internal/balance"
	"perdiem/internal/clock"
	"perdiem/internal/ident"
	"perdiem/internal/model"
	"perdiem/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service is the session-scoped handle over the durable ledger. It is
// created by Open and passed explicitly to everything that reads or writes;
// there is no package-level store.
type Service struct {
	store *store.Store
	log   *logrus.Logger
	clock clock.Clock
	gen   ident.Generator

	mu    sync.RWMutex
	state model.SettingsState
}

// Options configures Open. Zero-value fields fall back to the host clock,
// the uuid token generator, and a default logger.
type Options struct {
	DBPath string
	Log    *logrus.Logger
	Clock  clock.Clock
	Gen    ident.Generator
}

// Open opens or creates the database and runs the initialization protocol:
// seed defaults when the settings singleton is absent, normalize it when
// present (backfill a missing install token, truncate the start date).
// Running it twice against the same database is idempotent; the install
// token is generated exactly once.
//
// Two processes initializing the same database race on the first seed. The
// losing AddSettings re-reads whatever the winner stored; either seed's
// token may land, and both sessions end up agreeing on it.
func Open(ctx context.Context, opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Gen == nil {
		opts.Gen = ident.New
	}
	if opts.Log == nil {
		opts.Log = logrus.New()
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store: st,
		log:   opts.Log,
		clock: opts.Clock,
		gen:   opts.Gen,
		state: model.LoadingSettings(),
	}

	settings, err := svc.loadOrSeedSettings(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	svc.state = model.ReadySettings(settings)

	opts.Log.WithFields(logrus.Fields{
		"db":         opts.DBPath,
		"start_date": settings.StartDate.Format("2006-01-02"),
	}).Debug("ledger ready")

	return svc, nil
}

func (s *Service) loadOrSeedSettings(ctx context.Context) (model.Settings, error) {
	tx, err := s.store.Begin(ctx, store.ScopeSettings, store.ReadWrite)
	if err != nil {
		return model.Settings{}, err
	}
	defer tx.Rollback()

	existing, err := tx.GetSettings(model.SettingsKey)
	switch {
	case err == nil:
		if existing.Normalize(s.gen) {
			if err := tx.PutSettings(model.SettingsKey, existing); err != nil {
				return model.Settings{}, err
			}
		}
		return existing, tx.Commit()

	case errors.Is(err, store.ErrNotFound):
		defaults := model.DefaultSettings(s.clock.Now(), s.gen)
		addErr := tx.AddSettings(model.SettingsKey, defaults)
		if errors.Is(addErr, store.ErrKeyAlreadyExists) {
			// Lost the first-run race; take the winner's record.
			won, err := tx.GetSettings(model.SettingsKey)
			if err != nil {
				return model.Settings{}, err
			}
			if won.Normalize(s.gen) {
				if err := tx.PutSettings(model.SettingsKey, won); err != nil {
					return model.Settings{}, err
				}
			}
			return won, tx.Commit()
		}
		if addErr != nil {
			return model.Settings{}, addErr
		}
		s.log.Info("seeded first-run settings")
		return defaults, tx.Commit()

	default:
		return model.Settings{}, err
	}
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Store exposes the owned handle for components that run their own
// transactions (the draft controller, the daemon).
func (s *Service) Store() *store.Store {
	return s.store
}

// Clock returns the injected clock.
func (s *Service) Clock() clock.Clock {
	return s.clock
}

// State returns the tagged settings state.
func (s *Service) State() model.SettingsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Settings returns the Ready record; ok is false otherwise.
func (s *Service) Settings() (model.Settings, bool) {
	return s.State().Ready()
}

// SetSettings replaces the in-memory record after a successful commit.
// The draft controller is the only caller.
func (s *Service) SetSettings(v model.Settings) {
	s.mu.Lock()
	s.state = model.ReadySettings(v)
	s.mu.Unlock()
}

// RefreshSettings re-reads the singleton from the store, picking up writes
// made by other processes. Used by the daemon between polls.
func (s *Service) RefreshSettings(ctx context.Context) (model.Settings, error) {
	tx, err := s.store.Begin(ctx, store.ScopeSettings, store.ReadOnly)
	if err != nil {
		return model.Settings{}, err
	}
	defer tx.Rollback()

	v, err := tx.GetSettings(model.SettingsKey)
	if err != nil {
		return model.Settings{}, err
	}
	s.SetSettings(v)
	return v, nil
}

// Entries loads the full ledger through a read-only transaction.
func (s *Service) Entries(ctx context.Context) ([]model.SpendEntry, error) {
	tx, err := s.store.Begin(ctx, store.ScopeEntries, store.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return tx.Entries()
}

// AddEntry appends a spend at the current instant and returns the assigned
// id. Amount sign is not checked here; the edit surfaces reject
// non-positive amounts before they reach the store.
func (s *Service) AddEntry(ctx context.Context, amount decimal.Decimal, note string) (int64, error) {
	tx, err := s.store.Begin(ctx, store.ScopeEntries, store.ReadWrite)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := tx.InsertEntry(model.SpendEntry{
		Timestamp: s.clock.Now(),
		Amount:    amount,
		Note:      note,
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"id": id, "amount": amount.String()}).Debug("entry added")
	return id, nil
}

// RemoveEntry deletes by id. Unknown ids are a no-op; found reports whether
// anything was removed.
func (s *Service) RemoveEntry(ctx context.Context, id int64) (found bool, err error) {
	tx, err := s.store.Begin(ctx, store.ScopeEntries, store.ReadWrite)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	found, err = tx.DeleteEntry(id)
	if err != nil {
		return false, err
	}
	return found, tx.Commit()
}

// Balance recomputes the remaining balance from the current entries and
// settings. ok is false until the settings record is Ready.
func (s *Service) Balance(ctx context.Context) (decimal.Decimal, bool, error) {
	settings, ready := s.Settings()
	if !ready {
		return decimal.Zero, false, nil
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	return balance.Compute(entries, settings, s.clock.Now()), true, nil
}
