// Package store persists runs and stage checkpoints so interrupted
// pipelines resume instead of restarting. SQLite is the default backend;
// Postgres serves shared deployments.
package store

import (
	"context"
	"encoding/json"

	"github.com/sells-group/scholar-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store is the persistence interface for the pipeline. Checkpoints hold
// the full corpus as it left a stage, one row per record, ordered by
// index; LoadCheckpoint returns nil records when no checkpoint exists.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, label string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunReport(ctx context.Context, runID string, report json.RawMessage) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Checkpoints
	SaveCheckpoint(ctx context.Context, runID string, stage model.Stage, records []model.Record) error
	SaveCheckpointRecord(ctx context.Context, runID string, stage model.Stage, index int, rec model.Record) error
	LoadCheckpoint(ctx context.Context, runID string, stage model.Stage) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LatestCheckpoint scans stages newest-first and returns the most
// advanced checkpointed corpus for a run, or "" when none exists.
func LatestCheckpoint(ctx context.Context, s Store, runID string) (model.Stage, []model.Record, error) {
	stages := model.Stages()
	for i := len(stages) - 1; i >= 0; i-- {
		records, err := s.LoadCheckpoint(ctx, runID, stages[i])
		if err != nil {
			return "", nil, err
		}
		if records != nil {
			return stages[i], records, nil
		}
	}
	return "", nil, nil
}
