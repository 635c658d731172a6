package cmd

import (
	"context"
	"fmt"
	"time"

	"perdiem/internal/balance"
	"perdiem/internal/cli"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the remaining balance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, cfg, _, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	settings, ready := svc.Settings()
	if !ready {
		return fmt.Errorf("settings not loaded")
	}

	entries, err := svc.Entries(ctx)
	if err != nil {
		return err
	}

	now := svc.Clock().Now()
	bal := balance.Compute(entries, settings, now)
	spentToday := balance.SpentOn(entries, now)
	days := balance.DaysElapsed(now, settings.StartDate)
	cur := cfg.General.Currency

	fmt.Println()
	fmt.Println(cli.RenderTitle("PERDIEM"))
	fmt.Println()
	fmt.Printf("  Balance: %s\n\n", cli.FormatAmount(bal, cur))

	// Today's allowance usage.
	if settings.DailyBudget.IsPositive() {
		used, _ := spentToday.Div(settings.DailyBudget).Float64()
		fmt.Printf("  Today    %s  %s of %s\n",
			cli.RenderMiniBar(used, 20),
			cli.FormatAmount(spentToday, cur),
			cli.FormatAmount(settings.DailyBudget, cur),
		)
	} else {
		fmt.Printf("  Today    spent %s\n", cli.FormatAmount(spentToday, cur))
	}

	// Spend shape over the last two weeks.
	totals := balance.DailyTotals(entries, now, 14)
	values := make([]float64, len(totals))
	for i, t := range totals {
		values[i], _ = t.Float64()
	}
	fmt.Printf("  14 days  %s\n\n", cli.RenderSparkline(values))

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Daily budget", cli.FormatAmount(settings.DailyBudget, cur)},
			{"Start amount", cli.FormatAmount(settings.StartAmount, cur)},
			{"Start date", cli.FormatDate(settings.StartDate)},
			{"Days accrued", cli.FormatNumber(days)},
			{"Entries", cli.FormatNumber(int64(len(entries)))},
		},
	}))

	// Durability is a boundary query; a denial is shown, not retried.
	persisted, err := svc.Store().Persisted(ctx)
	if err == nil && !persisted {
		if svc.Store().RequestPersistence(ctx) {
			persisted = true
		}
	}
	if !flagQuiet {
		if persisted {
			fmt.Println("  Durability: protected (WAL)")
		} else {
			fmt.Println("  Durability: best-effort")
		}
	}
	fmt.Println()

	return nil
}
