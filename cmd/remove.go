package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Delete a spend entry by id",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc, _, _, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	found, err := svc.RemoveEntry(ctx, id)
	if err != nil {
		return err
	}

	if !flagQuiet {
		if found {
			fmt.Printf("  Removed #%d\n", id)
		} else {
			// Deleting an unknown id is a no-op, not a failure.
			fmt.Printf("  No entry #%d (nothing to remove)\n", id)
		}
	}
	return nil
}
