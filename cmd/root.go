package cmd

import (
	"context"
	"os"

	"perdiem/internal/config"
	"perdiem/internal/draft"
	"perdiem/internal/ledger"
	"perdiem/internal/logger"
	"perdiem/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagDBPath   string
	flagLogLevel string
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "perdiem",
	Short: "Daily allowance spend tracker",
	Long:  "Track spending against a daily allowance: a local ledger, a balance that accrues every day, nothing leaves your machine.",
	RunE:  runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDBPath, "db", "d", "", "Database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
}

// openLedger is the shared startup path used by all commands: load
// preferences, build the logger, open the database, and run the
// initialization protocol.
func openLedger(ctx context.Context) (*ledger.Service, config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, nil, err
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}

	level := cfg.General.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	log := logger.New(level)

	svc, err := ledger.Open(ctx, ledger.Options{
		DBPath: cfg.DBPath(),
		Log:    log,
	})
	if err != nil {
		return nil, cfg, log, err
	}
	return svc, cfg, log, nil
}

// newController builds the draft controller over an opened ledger, keeping
// the in-memory settings in sync with every commit.
func newController(svc *ledger.Service, cfg config.Config, log *logrus.Logger) *draft.Controller {
	current, _ := svc.Settings()
	return draft.New(draft.Config{
		Store:        svc.Store(),
		Log:          log,
		Quiescence:   cfg.Quiescence(),
		SavingWindow: cfg.SavingFlash(),
		OnCommitted:  func(s model.Settings) { svc.SetSettings(s) },
	}, current)
}
