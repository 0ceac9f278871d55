package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/milexcast/internal/config"
	"github.com/KaramelBytes/milexcast/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
	logger = logging.New("warn")
)

var rootCmd = &cobra.Command{
	Use:   "milexcast",
	Short: "milexcast: forecast a country's military expenditure from historical data",
	Long: `milexcast trains linear, polynomial and random forest regressors on a country's
historical military expenditure, scores them on a held-out split of years and
reports predicted versus actual spending.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.milexcast/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
	level := "warn"
	if cfg != nil {
		level = cfg.LogLevel
	}
	if debug {
		level = log.DebugLevel.String()
	}
	logger = logging.New(level)
	if cfgErr != nil {
		// Non-fatal here; commands that need config report it.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", cfgErr)
	}
}

// loadedConfig returns the effective configuration or the load error.
func loadedConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, cfgErr
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
