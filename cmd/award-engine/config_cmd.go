// cmd/award-engine/config_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the engine configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		e := cfg.Engine
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "configuration is valid")
		fmt.Fprintf(out, "  min bids:          %d\n", e.MinBids)
		fmt.Fprintf(out, "  evaluation window: %s\n", e.EvaluationWindow())
		fmt.Fprintf(out, "  min winning score: %g\n", e.MinWinningScore)
		fmt.Fprintf(out, "  weights:           capability=%g reputation=%g track_record=%g location=%g\n",
			e.Weights.Capability, e.Weights.Reputation, e.Weights.TrackRecord, e.Weights.Location)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
