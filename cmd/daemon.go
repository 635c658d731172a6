package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perdiem/internal/daemon"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr     string
	flagDaemonInterval time.Duration
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a localhost balance monitor with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&flagDaemonAddr, "addr", "127.0.0.1:8791", "HTTP listen address")
	daemonCmd.Flags().DurationVar(&flagDaemonInterval, "interval", 15*time.Second, "Polling interval")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, _, log, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	svcd := daemon.New(daemon.Config{
		Addr:     flagDaemonAddr,
		Interval: flagDaemonInterval,
		Log:      log,
	}, svc)

	if !flagQuiet {
		fmt.Printf("  perdiem daemon listening on http://%s\n", flagDaemonAddr)
		fmt.Printf("  Polling every %s\n", flagDaemonInterval)
	}

	if err := svcd.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
