// cmd/award-engine/evaluate.go
package main

import (
	"award-engine/internal/models"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <jobID>",
	Short: "Evaluate the pending bids of one job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg.Logging)

		eng, err := buildEngine(cmd.Context(), cfg, log, engineOptions{audit: true})
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := eng.orchestrator.Evaluate(cmd.Context(), args[0], models.TriggerManual)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
