package main

import (
	"context"
	"fmt"
	"os"

	"farmer_assist/pkg/app"
	"farmer_assist/pkg/core/logging"
	"farmer_assist/pkg/core/settings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	cfg        settings.Config
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "farmctl",
		Short: "farmctl - farmer assistance tools",
		Long: `farmctl runs the assistant's flows from the terminal: market prices,
price summaries, scheme questions and plant diagnosis, plus database setup.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			var err error
			cfg, err = settings.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err = logging.New(level, true)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/app.yaml", "Path to app config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		pricesCmd(),
		marketCmd(),
		schemesCmd(),
		diagnoseCmd(),
		migrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp builds the service graph without seeding the exchange board.
func newApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger, app.Options{SkipSeed: true})
}
