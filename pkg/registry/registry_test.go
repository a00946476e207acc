// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{ID: "evaluate-job-bids", DisplayName: "Evaluate Job Bids", Category: "award", TaskType: "evaluate-job-bids"},
			{ID: "transition-job-status", DisplayName: "Transition Job Status", Category: "award", TaskType: "transition-job-status"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	require.NoError(t, Save(sample(), path))

	got, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ActivityRegistry)
		wantErr string
	}{
		{"valid", func(*ActivityRegistry) {}, ""},
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }, "no activities"},
		{"duplicate id", func(r *ActivityRegistry) { r.Activities[1].ID = "evaluate-job-bids" }, "duplicate activity ID"},
		{"duplicate task type", func(r *ActivityRegistry) { r.Activities[1].TaskType = "evaluate-job-bids" }, "duplicate task type"},
		{"missing display name", func(r *ActivityRegistry) { r.Activities[0].DisplayName = "" }, "DisplayName"},
		{"missing category", func(r *ActivityRegistry) { r.Activities[0].Category = "" }, "Category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sample()
			tt.mutate(reg)
			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDrift(t *testing.T) {
	file := sample()
	file.Activities = append(file.Activities[:1], Activity{ID: "legacy", TaskType: "legacy-task"})

	missing, unknown := file.Drift(sample())
	assert.Equal(t, []string{"transition-job-status"}, missing)
	assert.Equal(t, []string{"legacy-task"}, unknown)

	missing, unknown = sample().Drift(sample())
	assert.Empty(t, missing)
	assert.Empty(t, unknown)
}
