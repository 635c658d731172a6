// Package tui provides the interactive terminal app: balance header, entry
// list, and live settings editing backed by the draft controller.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"perdiem/internal/balance"
	"perdiem/internal/cli"
	"perdiem/internal/draft"
	"perdiem/internal/ledger"
	"perdiem/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const (
	focusEntries = iota
	focusSettings
)

const (
	fieldDailyBudget = iota
	fieldStartAmount
	fieldStartDate
	fieldCount // sentinel
)

type tickMsg time.Time

type refreshedMsg struct {
	entries []model.SpendEntry
	bal     decimal.Decimal
	ok      bool
	err     error
}

// App is the bubbletea model.
type App struct {
	svc      *ledger.Service
	ctrl     *draft.Controller
	currency string

	focus  int
	cursor int

	adding   bool
	addStage int // 0 = amount, 1 = note
	amountIn textinput.Model
	noteIn   textinput.Model

	field   int
	editing bool
	fieldIn textinput.Model

	entries []model.SpendEntry
	bal     decimal.Decimal
	balOK   bool
	width   int
	errText string
}

// New builds the app over an opened ledger and its draft controller.
func New(svc *ledger.Service, ctrl *draft.Controller, currency string) App {
	return App{
		svc:      svc,
		ctrl:     ctrl,
		currency: currency,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.refreshCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) refreshCmd() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		entries, err := svc.Entries(ctx)
		if err != nil {
			return refreshedMsg{err: err}
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		})

		bal, ok, err := svc.Balance(ctx)
		if err != nil {
			return refreshedMsg{err: err}
		}
		return refreshedMsg{entries: entries, bal: bal, ok: ok}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case tickMsg:
		return a, tea.Batch(a.refreshCmd(), tick())

	case refreshedMsg:
		if msg.err != nil {
			// Keep the last good view; failed writes never update it.
			a.errText = msg.err.Error()
			return a, nil
		}
		a.errText = ""
		a.entries = msg.entries
		a.bal = msg.bal
		a.balOK = msg.ok
		if a.cursor >= len(a.entries) {
			a.cursor = len(a.entries) - 1
		}
		if a.cursor < 0 {
			a.cursor = 0
		}
		return a, nil

	case tea.KeyMsg:
		if a.adding {
			return a.updateAdd(msg)
		}
		if a.editing {
			return a.updateFieldEdit(msg)
		}
		return a.updateBrowse(msg)
	}

	return a, nil
}

func (a App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// Commit whatever is still sitting in the draft before leaving.
		_ = a.ctrl.Flush()
		return a, tea.Quit

	case "tab":
		if a.focus == focusEntries {
			a.focus = focusSettings
		} else {
			a.focus = focusEntries
		}
		return a, nil

	case "j", "down":
		if a.focus == focusEntries {
			if a.cursor < len(a.entries)-1 {
				a.cursor++
			}
		} else if a.field < fieldCount-1 {
			a.field++
		}
		return a, nil

	case "k", "up":
		if a.focus == focusEntries {
			if a.cursor > 0 {
				a.cursor--
			}
		} else if a.field > 0 {
			a.field--
		}
		return a, nil

	case "a":
		if a.focus == focusEntries {
			return a.startAdd()
		}

	case "d":
		if a.focus == focusEntries && len(a.entries) > 0 {
			id := a.entries[a.cursor].ID
			svc := a.svc
			return a, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_, _ = svc.RemoveEntry(ctx, id)
				return a.refreshCmd()()
			}
		}

	case "enter":
		if a.focus == focusSettings {
			return a.startFieldEdit()
		}
	}

	return a, nil
}

func (a App) startAdd() (tea.Model, tea.Cmd) {
	amount := textinput.New()
	amount.Placeholder = "12.50"
	amount.CharLimit = 16
	amount.Width = 16
	amount.Focus()

	note := textinput.New()
	note.Placeholder = "lunch (optional)"
	note.CharLimit = 120
	note.Width = 32

	a.adding = true
	a.addStage = 0
	a.amountIn = amount
	a.noteIn = note
	return a, textinput.Blink
}

func (a App) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.adding = false
		return a, nil

	case "enter":
		if a.addStage == 0 {
			a.addStage = 1
			a.noteIn.Focus()
			a.amountIn.Blur()
			return a, textinput.Blink
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(a.amountIn.Value()))
		if err != nil || !amount.IsPositive() {
			// The edit surface blocks bad amounts; the store would take
			// them.
			a.errText = "amount must be a positive number"
			a.adding = false
			return a, nil
		}
		note := strings.TrimSpace(a.noteIn.Value())
		a.adding = false

		svc := a.svc
		refresh := a.refreshCmd()
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_, _ = svc.AddEntry(ctx, amount, note)
			return refresh()
		}
	}

	var cmd tea.Cmd
	if a.addStage == 0 {
		a.amountIn, cmd = a.amountIn.Update(msg)
	} else {
		a.noteIn, cmd = a.noteIn.Update(msg)
	}
	return a, cmd
}

func (a App) startFieldEdit() (tea.Model, tea.Cmd) {
	d := a.ctrl.Snapshot()

	ti := textinput.New()
	ti.CharLimit = 24
	ti.Width = 24

	switch a.field {
	case fieldDailyBudget:
		ti.Placeholder = "40.00"
		ti.SetValue(d.DailyBudget)
	case fieldStartAmount:
		ti.Placeholder = "0.00"
		ti.SetValue(d.StartAmount)
	case fieldStartDate:
		ti.Placeholder = "2026-01-01"
		ti.SetValue(d.StartDate.Format("2006-01-02"))
	}

	ti.Focus()
	a.editing = true
	a.fieldIn = ti
	return a, textinput.Blink
}

func (a App) updateFieldEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		a.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.fieldIn, cmd = a.fieldIn.Update(msg)

	// Every keystroke lands in the draft; the controller debounces the
	// actual write.
	val := a.fieldIn.Value()
	switch a.field {
	case fieldDailyBudget:
		a.ctrl.Edit(func(d *draft.Draft) { d.DailyBudget = val })
	case fieldStartAmount:
		a.ctrl.Edit(func(d *draft.Draft) { d.StartAmount = val })
	case fieldStartDate:
		// The date is a structured value; only a fully valid day is
		// applied to the draft.
		if day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(val), time.Local); err == nil {
			a.ctrl.Edit(func(d *draft.Draft) { d.StartDate = day })
		}
	}

	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(cli.ColorText)
	muted := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	accent := lipgloss.NewStyle().Foreground(cli.ColorAccent)
	green := lipgloss.NewStyle().Foreground(cli.ColorGreen)
	red := lipgloss.NewStyle().Foreground(cli.ColorRed)

	b.WriteString("\n")
	if a.balOK {
		balStr := cli.FormatAmount(a.bal, a.currency)
		style := green
		if a.bal.IsNegative() {
			style = red
		}
		b.WriteString("  " + title.Render("Balance ") + style.Render(balStr))
	} else {
		b.WriteString("  " + muted.Render("Loading…"))
	}

	now := a.svc.Clock().Now()
	spent := balance.SpentOn(a.entries, now)
	b.WriteString(muted.Render(fmt.Sprintf("   spent today %s", cli.FormatAmount(spent, a.currency))))

	if a.ctrl.Saving() {
		b.WriteString(accent.Render("   saving…"))
	} else if a.ctrl.Dirty() {
		b.WriteString(muted.Render("   edited"))
	}
	b.WriteString("\n\n")

	b.WriteString(a.viewEntries(title, muted, accent))
	b.WriteString("\n")
	b.WriteString(a.viewSettings(title, muted, accent))

	if a.errText != "" {
		b.WriteString("\n  " + red.Render(a.errText) + "\n")
	}

	b.WriteString("\n  " + muted.Render("tab switch · a add · d delete · enter edit · q quit") + "\n")
	return b.String()
}

func (a App) viewEntries(title, muted, accent lipgloss.Style) string {
	var b strings.Builder

	header := "  Entries"
	if a.focus == focusEntries {
		header = accent.Render("▸ Entries")
	} else {
		header = title.Render(header)
	}
	b.WriteString(header + "\n")

	if a.adding {
		label := "amount"
		in := a.amountIn.View()
		if a.addStage == 1 {
			label = "note"
			in = a.noteIn.View()
		}
		b.WriteString(fmt.Sprintf("    new %s: %s\n", label, in))
	}

	if len(a.entries) == 0 {
		b.WriteString(muted.Render("    no spends recorded yet") + "\n")
		return b.String()
	}

	shown := a.entries
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for i, e := range shown {
		prefix := "   "
		if a.focus == focusEntries && i == a.cursor {
			prefix = accent.Render(" ▸ ")
		}
		line := fmt.Sprintf("%s#%-4d %s %s  %s",
			prefix, e.ID,
			cli.FormatDate(e.Timestamp), cli.FormatClock(e.Timestamp),
			cli.FormatAmount(e.Amount, a.currency),
		)
		if e.Note != "" {
			line += muted.Render("  " + e.Note)
		}
		b.WriteString(line + "\n")
	}
	if len(a.entries) > len(shown) {
		b.WriteString(muted.Render(fmt.Sprintf("    … %d more", len(a.entries)-len(shown))) + "\n")
	}
	return b.String()
}

func (a App) viewSettings(title, muted, accent lipgloss.Style) string {
	var b strings.Builder

	header := "  Settings"
	if a.focus == focusSettings {
		header = accent.Render("▸ Settings")
	} else {
		header = title.Render(header)
	}
	b.WriteString(header + "\n")

	d := a.ctrl.Snapshot()
	rows := []struct {
		label string
		value string
	}{
		{"Daily budget", d.DailyBudget},
		{"Start amount", d.StartAmount},
		{"Start date", d.StartDate.Format("2006-01-02")},
	}

	for i, row := range rows {
		prefix := "   "
		if a.focus == focusSettings && i == a.field {
			prefix = accent.Render(" ▸ ")
		}
		value := row.value
		if a.editing && a.focus == focusSettings && i == a.field {
			value = a.fieldIn.View()
		}
		b.WriteString(fmt.Sprintf("%s%-13s %s\n", prefix, row.label, value))
	}

	b.WriteString(muted.Render(fmt.Sprintf("    install token %s", cli.TruncateToken(d.AnonymousID))) + "\n")
	return b.String()
}
