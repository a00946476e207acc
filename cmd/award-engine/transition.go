// cmd/award-engine/transition.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"award-engine/internal/award/transition"
	"award-engine/internal/models"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("transition aborted")

var transitionCmd = &cobra.Command{
	Use:   "transition <jobID> <status>",
	Short: "Move a job to another lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransition,
}

func init() {
	rootCmd.AddCommand(transitionCmd)

	transitionCmd.Flags().StringP("actor", "a", "cli", "actor recorded in the status history")
	transitionCmd.Flags().StringP("notes", "n", "", "notes recorded in the status history")
	transitionCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runTransition(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	to, err := parseStatus(args[1])
	if err != nil {
		return err
	}
	actor, _ := cmd.Flags().GetString("actor")
	notes, _ := cmd.Flags().GetString("notes")
	yes, _ := cmd.Flags().GetBool("yes")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Logging)

	eng, err := buildEngine(cmd.Context(), cfg, log, engineOptions{})
	if err != nil {
		return err
	}
	defer eng.Close()

	job, err := eng.store.GetJob(cmd.Context(), jobID)
	if err != nil {
		return err
	}
	if err := checkTransition(job, to); err != nil {
		return err
	}

	if !yes {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Move job %s from %s to %s?", jobID, job.Status, to),
			Items: []string{PromptYes, PromptNo},
		}
		_, answer, err := prompt.Run()
		if err != nil {
			return err
		}
		if answer != PromptYes {
			return errAborted
		}
	}

	updated, err := eng.transitions.Transition(cmd.Context(), jobID, to, actor, notes)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), updated)
}

// checkTransition rejects the move before prompting. AWARDED is left to the
// evaluate command so the winning bid is accepted in the same commit.
func checkTransition(job *models.Job, to models.JobStatus) error {
	if !transition.CanTransition(job.Status, to) {
		return fmt.Errorf("job %s cannot move from %s to %s (allowed: %s)",
			job.ID, job.Status, to, joinStatuses(manualTargets(job.Status)))
	}
	if to == models.JobStatusAwarded {
		return fmt.Errorf("job %s is awarded by evaluation; run: award-engine evaluate %s", job.ID, job.ID)
	}
	return nil
}

func manualTargets(from models.JobStatus) []models.JobStatus {
	var out []models.JobStatus
	for _, s := range transition.AllowedTargets(from) {
		if s != models.JobStatusAwarded {
			out = append(out, s)
		}
	}
	return out
}

func parseStatus(raw string) (models.JobStatus, error) {
	s := models.JobStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown job status %q", raw)
	}
	return s, nil
}

func joinStatuses(statuses []models.JobStatus) string {
	if len(statuses) == 0 {
		return "none"
	}
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
