package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quiz-portal-client/internal/config"
	"quiz-portal-client/internal/telemetry"
)

// options are shared by every subcommand; cfg is loaded before any RunE.
type options struct {
	configPath string
	port       string
	token      string
	cfg        config.Config
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	// a missing .env is fine
	_ = godotenv.Load()

	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	opts := &options{}
	cmd := &cobra.Command{
		Use:          "quizctl",
		Short:        "Take timed quizzes from the student portal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			slog.SetDefault(telemetry.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.port, "port", envPort, "port to listen on (bridge, serve)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PORTAL_TOKEN"), "portal access token")

	cmd.AddCommand(
		newLoginCmd(opts),
		newDashboardCmd(opts),
		newTakeCmd(opts),
		newReviewCmd(opts),
		newLeaderboardCmd(opts),
		newBridgeCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// listenPort picks the --port flag, then the configured port, then fallback.
func (o *options) listenPort(configured, fallback string) string {
	switch {
	case o.port != "":
		return o.port
	case configured != "":
		return configured
	}
	return fallback
}
