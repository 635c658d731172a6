package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perdiem/internal/cli"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <amount> [note...]",
	Short: "Record a spend",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	// The store itself takes any value; rejecting here keeps the check at
	// the edit surface where it belongs.
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	note := strings.Join(args[1:], " ")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, cfg, _, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	id, err := svc.AddEntry(ctx, amount, note)
	if err != nil {
		return err
	}

	if !flagQuiet {
		fmt.Printf("  Added #%d  %s\n", id, cli.FormatAmount(amount, cfg.General.Currency))
		if bal, ok, err := svc.Balance(ctx); err == nil && ok {
			fmt.Printf("  Balance   %s\n", cli.FormatAmount(bal, cfg.General.Currency))
		}
	}
	return nil
}
