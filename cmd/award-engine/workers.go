// cmd/award-engine/workers.go
package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"award-engine/internal/common/config"
	"award-engine/internal/common/validation"
	evaluatejobbids "award-engine/internal/workers/award/evaluate-job-bids"
	transitionjobstatus "award-engine/internal/workers/award/transition-job-status"
	"award-engine/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultRegistryPath = "configs/activity-registry.json"

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Describe the workflow task types served by the engine",
}

var workersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the activity registry of the served task types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := servedRegistry(nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), reg)
	},
}

var workersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the activity registry file for process modelers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := servedRegistry(cfg)
		if err != nil {
			return err
		}
		if err := registry.Save(reg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d activities to %s\n", len(reg.Activities), path)
		return nil
	},
}

var workersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a registry file against the served task types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		file, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := file.Validate(); err != nil {
			return err
		}
		served, err := servedRegistry(nil)
		if err != nil {
			return err
		}

		missing, unknown := file.Drift(served)
		if len(missing) > 0 || len(unknown) > 0 {
			return fmt.Errorf("registry drift: missing [%s], unknown [%s]",
				strings.Join(missing, ", "), strings.Join(unknown, ", "))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(file.Activities))
		return nil
	},
}

func init() {
	workersExportCmd.Flags().String("path", defaultRegistryPath, "path to registry file")
	workersCheckCmd.Flags().String("path", defaultRegistryPath, "path to registry file")

	workersCmd.AddCommand(workersListCmd, workersExportCmd, workersCheckCmd)
	rootCmd.AddCommand(workersCmd)
}

// servedRegistry describes the workers started by serve. Timeouts and
// retries come from cfg when given.
func servedRegistry(cfg *config.Config) (*registry.ActivityRegistry, error) {
	workerCfg := func(name string) config.WorkerConfig {
		if cfg == nil {
			return config.GetWorkerConfig(&config.Config{}, name)
		}
		return config.GetWorkerConfig(cfg, name)
	}

	specs := []struct {
		taskType, displayName, description, schema string
		errorCodes                                 []string
		output                                     map[string]interface{}
	}{
		{
			taskType:    evaluatejobbids.TaskType,
			displayName: "Evaluate Job Bids",
			description: "Scores the pending bids of an open job and awards the best one",
			schema:      validation.SchemaEvaluateJobInput,
			errorCodes:  []string{"JOB_NOT_FOUND", "EVALUATION_ABORTED", "EVALUATION_FAILED", "INVALID_INPUT"},
			output:      outputSchema("jobId", "outcome", "winningBidId", "winningScore", "bidCount", "reason"),
		},
		{
			taskType:    transitionjobstatus.TaskType,
			displayName: "Transition Job Status",
			description: "Moves a job along its lifecycle and records the history",
			schema:      validation.SchemaTransitionInput,
			errorCodes:  []string{"JOB_NOT_FOUND", "ILLEGAL_TRANSITION", "EVALUATION_ABORTED", "INVALID_INPUT"},
			output:      outputSchema("jobId", "status", "assignedContractorId", "allowedNext"),
		},
	}

	reg := &registry.ActivityRegistry{
		Version:     version,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range specs {
		src, ok := validation.Source(s.schema)
		if !ok {
			return nil, fmt.Errorf("unknown schema: %s", s.schema)
		}
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(src), &input); err != nil {
			return nil, fmt.Errorf("decode schema %s: %w", s.schema, err)
		}

		wcfg := workerCfg(s.taskType)
		reg.Activities = append(reg.Activities, registry.Activity{
			ID:           s.taskType,
			DisplayName:  s.displayName,
			Description:  s.description,
			Category:     "award",
			TaskType:     s.taskType,
			InputSchema:  input,
			OutputSchema: s.output,
			ErrorCodes:   s.errorCodes,
			Timeout:      config.GetDuration(wcfg.Timeout).String(),
			Retries:      wcfg.MaxRetries,
			Tags:         []string{"award"},
		})
	}
	return reg, nil
}

func outputSchema(fields ...string) map[string]interface{} {
	props := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		props[f] = map[string]interface{}{}
	}
	return map[string]interface{}{"type": "object", "properties": props}
}
