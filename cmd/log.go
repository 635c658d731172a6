package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"perdiem/internal/cli"
	"perdiem/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var flagLogDays int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List spend entries",
	RunE:  runLog,
}

func init() {
	logCmd.Flags().IntVarP(&flagLogDays, "days", "n", 0, "Only show the last N days (0 = all)")
	rootCmd.AddCommand(logCmd)
}

func runLog(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, cfg, _, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	entries, err := svc.Entries(ctx)
	if err != nil {
		return err
	}

	if flagLogDays > 0 {
		since := model.Day(svc.Clock().Now()).AddDate(0, 0, -(flagLogDays - 1))
		filtered := entries[:0]
		for _, e := range entries {
			if !e.Timestamp.Before(since) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if len(entries) == 0 {
		fmt.Println("\n  No entries.")
		return nil
	}

	// Newest first. Display order only; the balance does not depend on it.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	cur := cfg.General.Currency
	total := decimal.Zero
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		total = total.Add(e.Amount)
		rows = append(rows, []string{
			fmt.Sprintf("#%d", e.ID),
			cli.FormatDate(e.Timestamp),
			cli.FormatDayOfWeek(int(e.Timestamp.Weekday())),
			cli.FormatClock(e.Timestamp),
			cli.FormatAmount(e.Amount, cur),
			e.Note,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Date", "Day", "Time", "Amount", "Note"},
		Rows:    rows,
	}))
	fmt.Printf("  %s entries, %s total\n\n",
		cli.FormatNumber(int64(len(entries))),
		cli.FormatAmount(total, cur),
	)
	return nil
}
