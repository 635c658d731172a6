// Package draft manages in-progress settings edits and their debounced
// commit to the store.
package draft

import (
	"context"
	"strings"
	"sync"
	"time"

	"perdiem/internal/model"
	"perdiem/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Draft mirrors Settings with the numeric fields held as raw text, so a
// half-typed "12." can sit in the form without being rejected. Only its
// normalized projection ever reaches the store. The start date stays a
// real day value: it is edited through a structured control, never free
// text.
type Draft struct {
	AnonymousID string
	DailyBudget string
	StartAmount string
	StartDate   time.Time
}

// FromSettings formats a committed record as a clean draft.
func FromSettings(s model.Settings) Draft {
	return Draft{
		AnonymousID: s.AnonymousID,
		DailyBudget: s.DailyBudget.StringFixed(2),
		StartAmount: s.StartAmount.StringFixed(2),
		StartDate:   s.StartDate,
	}
}

// Normalize coerces the draft to a storable record. Text that does not
// parse as a number becomes zero; a commit never blocks on bad input.
func (d Draft) Normalize() model.Settings {
	return model.Settings{
		AnonymousID: d.AnonymousID,
		DailyBudget: coerce(d.DailyBudget),
		StartAmount: coerce(d.StartAmount),
		StartDate:   model.Day(d.StartDate),
	}
}

func coerce(text string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero
	}
	return v
}

type state int

const (
	stateClean state = iota
	stateDirty
	stateCommitting
)

const (
	// DefaultQuiescence is the edit-quiet delay before a dirty draft
	// commits.
	DefaultQuiescence = 2 * time.Second
	// DefaultSavingWindow keeps the saving indicator visible after a
	// commit launches. Display-only; also the earliest point a queued
	// re-edit may re-arm its timer.
	DefaultSavingWindow = 500 * time.Millisecond

	commitTimeout = 5 * time.Second
)

// Config wires a Controller.
type Config struct {
	Store        *store.Store
	Log          *logrus.Logger
	Quiescence   time.Duration
	SavingWindow time.Duration

	// OnCommitted runs after each successful commit with the stored
	// record. Callers use it to refresh their in-memory settings.
	OnCommitted func(model.Settings)
}

// Controller is the sole writer of settings after initialization. It holds
// the dirty textual draft, commits its normalized projection after the
// quiescence period, and serializes commits: an edit landing while a commit
// is in flight waits for that commit (plus the saving window) before arming
// its own timer, so writes cannot reach the store out of order.
type Controller struct {
	store        *store.Store
	log          *logrus.Logger
	quiescence   time.Duration
	savingWindow time.Duration
	onCommitted  func(model.Settings)

	mu     sync.Mutex
	st     state
	draft  Draft
	timer  *time.Timer
	queued bool
}

// New returns a Clean controller mirroring the given committed record.
func New(cfg Config, current model.Settings) *Controller {
	if cfg.Quiescence <= 0 {
		cfg.Quiescence = DefaultQuiescence
	}
	if cfg.SavingWindow <= 0 {
		cfg.SavingWindow = DefaultSavingWindow
	}
	if cfg.Log == nil {
		cfg.Log = logrus.New()
	}
	return &Controller{
		store:        cfg.Store,
		log:          cfg.Log,
		quiescence:   cfg.Quiescence,
		savingWindow: cfg.SavingWindow,
		onCommitted:  cfg.OnCommitted,
		st:           stateClean,
		draft:        FromSettings(current),
	}
}

// Snapshot returns the current draft for display.
func (c *Controller) Snapshot() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Saving reports whether a commit is in flight.
func (c *Controller) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st == stateCommitting
}

// Dirty reports whether uncommitted edits exist.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st != stateClean
}

// Edit applies fn to the draft. In Clean or Dirty the quiescence timer is
// (re)armed, cancelling any pending not-yet-fired commit outright. During
// an in-flight commit the edit is only recorded; the timer re-arms once the
// commit finishes.
func (c *Controller) Edit(fn func(*Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
	if c.st == stateCommitting {
		c.queued = true
		return
	}
	c.st = stateDirty
	c.arm()
}

// arm restarts the quiescence timer. Caller holds mu.
func (c *Controller) arm() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiescence, c.fire)
}

// fire runs when the quiescence timer expires without interruption.
func (c *Controller) fire() {
	c.mu.Lock()
	if c.st != stateDirty {
		c.mu.Unlock()
		return
	}
	c.st = stateCommitting
	next := c.draft.Normalize()
	c.mu.Unlock()

	err := c.commit(next)

	// Keep the indicator visible even for instant commits, and give a
	// queued re-edit a defined point to resume from.
	time.Sleep(c.savingWindow)

	c.finish(next, err)
}

// Flush commits a dirty draft immediately, skipping the quiescence wait and
// the saving window. Used on shutdown and by the one-shot CLI path. A
// commit already in flight is left to finish on its own.
func (c *Controller) Flush() error {
	c.mu.Lock()
	if c.st != stateDirty {
		c.mu.Unlock()
		return nil
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.st = stateCommitting
	next := c.draft.Normalize()
	c.mu.Unlock()

	err := c.commit(next)
	c.finish(next, err)
	return err
}

// Stop cancels any pending timer without committing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Controller) commit(next model.Settings) error {
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()

	tx, err := c.store.Begin(ctx, store.ScopeSettings, store.ReadWrite)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.PutSettings(model.SettingsKey, next); err != nil {
		return err
	}
	return tx.Commit()
}

// finish leaves Committing: back to Clean, or to Dirty when edits queued up
// behind the commit, or back to Dirty with a re-armed timer on failure so
// the edits are not lost.
func (c *Controller) finish(next model.Settings, err error) {
	c.mu.Lock()
	if err != nil {
		c.log.WithError(err).Warn("settings commit failed")
		c.st = stateDirty
		c.queued = false
		c.arm()
		c.mu.Unlock()
		return
	}

	var cb func(model.Settings)
	if c.queued {
		c.queued = false
		c.st = stateDirty
		c.arm()
	} else {
		c.st = stateClean
		c.draft = FromSettings(next)
	}
	cb = c.onCommitted
	c.mu.Unlock()

	if cb != nil {
		cb(next)
	}
}
