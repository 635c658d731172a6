package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perdiem/internal/cli"
	"perdiem/internal/draft"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, cfg, log, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	settings, ok := svc.Settings()
	if !ok {
		return fmt.Errorf("settings not loaded")
	}

	daily := settings.DailyBudget.StringFixed(2)
	start := settings.StartAmount.StringFixed(2)
	date := settings.StartDate.Format("2006-01-02")

	validAmount := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil // blank coerces to zero at commit
		}
		if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
			return fmt.Errorf("not a number")
		}
		return nil
	}
	validDate := func(s string) error {
		if _, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local); err != nil {
			return fmt.Errorf("want YYYY-MM-DD")
		}
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Daily allowance").
				Description("Budget accrued per calendar day.").
				Value(&daily).
				Validate(validAmount),
			huh.NewInput().
				Title("Starting balance").
				Description("Balance baseline on the start date.").
				Value(&start).
				Validate(validAmount),
			huh.NewInput().
				Title("Start date").
				Description("Day accrual begins (YYYY-MM-DD).").
				Value(&date).
				Validate(validDate),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	startDate, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), time.Local)
	if err != nil {
		return fmt.Errorf("invalid start date %q", date)
	}

	ctrl := newController(svc, cfg, log)
	ctrl.Edit(func(d *draft.Draft) {
		d.DailyBudget = daily
		d.StartAmount = start
		d.StartDate = startDate
	})
	if err := ctrl.Flush(); err != nil {
		return err
	}

	committed, _ := svc.Settings()
	fmt.Println()
	fmt.Printf("  Saved: %s per day from %s\n",
		cli.FormatAmount(committed.DailyBudget, cfg.General.Currency),
		cli.FormatDate(committed.StartDate),
	)
	fmt.Println("  Run `perdiem setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
