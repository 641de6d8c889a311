// Command seafood serves and inspects the SeafoodAI dashboard datasets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
)

var version = "dev"

var (
	flagConfig   string
	flagLogLevel string
	flagPretty   bool
)

var rootCmd = &cobra.Command{
	Use:           "seafood",
	Short:         "SeafoodAI dashboard data server",
	Long:          "seafood fetches the SeafoodAI dashboard datasets, caches them with a TTL and serves filtered, paginated views.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(level),
			Pretty: flagPretty || cfg.LogPretty,
			Output: os.Stderr,
		})
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "seafood %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty", false, "human-readable log output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// configPath returns the config file in use.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultConfigPath()
}
