package cli

import (
	"fmt"
	"os"

	"github.com/mlexercises/datakit/internal/branding"
	"github.com/mlexercises/datakit/internal/config"
	"github.com/mlexercises/datakit/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var logLevel string

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` prepares image classification datasets: it writes stratified
k-fold train/test manifests from a folder-per-class layout, applies image
filters in parallel, and inspects manifests and HDF5 containers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		settings := config.Current()
		if logLevel != "" {
			settings.LogLevel = logLevel
		}

		l, err := logging.New(logging.Config{
			Level:  settings.LogLevel,
			Format: settings.LogFormat,
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("configuring logger: %w", err)
		}
		logger = l.Named(branding.CLIName())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
