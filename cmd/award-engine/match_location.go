// cmd/award-engine/match_location.go
package main

import (
	"award-engine/internal/award/location"

	"github.com/spf13/cobra"
)

type matchOutput struct {
	location.Match
	A location.Address `json:"a"`
	B location.Address `json:"b"`
}

var matchLocationCmd = &cobra.Command{
	Use:   "match-location <a> <b>",
	Short: "Show how two comma-separated locations compare",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, b := location.Parse(args[0]), location.Parse(args[1])
		return printJSON(cmd.OutOrStdout(), matchOutput{Match: location.Compare(a, b), A: a, B: b})
	},
}

func init() {
	rootCmd.AddCommand(matchLocationCmd)
}
