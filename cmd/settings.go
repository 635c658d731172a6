package cmd

import (
	"context"
	"fmt"
	"time"

	"perdiem/internal/cli"
	"perdiem/internal/draft"

	"github.com/spf13/cobra"
)

var (
	flagSetDaily string
	flagSetStart string
	flagSetDate  string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change budget settings",
	RunE:  runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&flagSetDaily, "daily", "", "Daily allowance")
	settingsCmd.Flags().StringVar(&flagSetStart, "start-amount", "", "Balance baseline at the start date")
	settingsCmd.Flags().StringVar(&flagSetDate, "start-date", "", "Day accrual begins (YYYY-MM-DD)")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, cfg, log, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	changed := flagSetDaily != "" || flagSetStart != "" || flagSetDate != ""
	if changed {
		var startDate time.Time
		if flagSetDate != "" {
			startDate, err = time.ParseInLocation("2006-01-02", flagSetDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid start date %q (want YYYY-MM-DD)", flagSetDate)
			}
		}

		// One-shot edits go through the same controller as the TUI, just
		// flushed immediately instead of debounced.
		ctrl := newController(svc, cfg, log)
		ctrl.Edit(func(d *draft.Draft) {
			if flagSetDaily != "" {
				d.DailyBudget = flagSetDaily
			}
			if flagSetStart != "" {
				d.StartAmount = flagSetStart
			}
			if flagSetDate != "" {
				d.StartDate = startDate
			}
		})
		if err := ctrl.Flush(); err != nil {
			return err
		}
	}

	settings, ok := svc.Settings()
	if !ok {
		return fmt.Errorf("settings not loaded")
	}

	cur := cfg.General.Currency
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Settings",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Daily budget", cli.FormatAmount(settings.DailyBudget, cur)},
			{"Start amount", cli.FormatAmount(settings.StartAmount, cur)},
			{"Start date", cli.FormatDate(settings.StartDate)},
			{"Install token", cli.TruncateToken(settings.AnonymousID)},
		},
	}))
	if changed && !flagQuiet {
		fmt.Println("  Saved.")
	}
	fmt.Println()
	return nil
}
