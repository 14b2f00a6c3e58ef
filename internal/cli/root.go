package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/stepbench/internal/config"
)

var (
	cfgFile string
	verbose bool

	// cfg is loaded once per invocation by PersistentPreRunE.
	cfg *config.Config
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0-dev"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stepbench",
	Short: "Benchmark Step Functions workflows from their execution history",
	Long: `stepbench runs a Step Functions workflow repeatedly, reads the execution
history each run writes to CloudWatch Logs, and reports per-function
startup and execution latency.

Runnables live in runnable/<name>.yaml under the project directory.

Benchmark one runnable:
  stepbench run --task resize

Benchmark everything matching a pattern:
  stepbench run --all --match 'image-*'`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
		if err != nil {
			setupLogging(config.Default().Logging, os.Stderr)
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}
		cfg = loaded

		setupLogging(cfg.Logging, os.Stderr)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./stepbench.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// setupLogging configures the global zerolog logger from the logging
// config; --verbose forces debug level.
func setupLogging(lc config.LoggingConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || lc.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("stepbench version %s", version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// Skip config loading so version works anywhere.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
