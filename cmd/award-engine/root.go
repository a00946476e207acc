// cmd/award-engine/root.go
package main

import (
	"award-engine/internal/common/config"
	"award-engine/internal/common/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "award-engine"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "award-engine evaluates bids on open jobs and awards the best one",
		SilenceUsage:  true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// newLogger builds the logger from the config, letting the persistent
// flags override level and format.
func newLogger(cfg config.LoggingConfig) logger.Logger {
	level, format := cfg.Level, cfg.Format
	if viper.GetBool("debug") {
		level = "debug"
	}
	if viper.GetBool("json") {
		format = "json"
	}
	return logger.NewFromConfig(level, format, cfg.Output)
}
