package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/equitas/internal/common"
)

var (
	// Command-line flags
	configFiles []string // later files override earlier ones
	logLevel    string
	badgerPath  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:               "equitas",
	Short:             "Financial analysis and scoring of listed companies",
	Long:              `Equitas computes financial ratios, ranks them against peers, aggregates market sentiment and scores a company on a 0-10 scale with bull and bear evidence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&badgerPath, "db", "", "Badger database directory (overrides config)")

	rootCmd.AddCommand(analyzeCmd, peersCmd, watchCmd, cacheCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup runs the startup sequence:
// 1. load config (defaults -> file1 -> file2 -> ... -> env)
// 2. apply CLI overrides
// 3. validate
// 4. initialize logger
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("equitas.toml"); err == nil {
			configFiles = append(configFiles, "equitas.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	common.ApplyFlagOverrides(config, logLevel, badgerPath)

	if err := common.ValidateConfig(config); err != nil {
		return err
	}

	logger = common.InitLogger(config)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("exchange", config.EODHD.Exchange).
		Bool("cache_enabled", config.Cache.Enabled).
		Msg("Resolved configuration (sanitized)")
	return nil
}
