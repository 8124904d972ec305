package model

import (
	"encoding/json"
	"time"
)

// RunStatus tracks a pipeline run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Stage names a pipeline stage whose output corpus is checkpointed.
type Stage string

const (
	StageNormalized   Stage = "normalized"
	StageDeduplicated Stage = "deduplicated"
	StageTagged       Stage = "tagged"
	StageClassified   Stage = "classified"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageNormalized, StageDeduplicated, StageTagged, StageClassified}
}

// Run is one pipeline execution. Label records what was processed (the
// input directory); Report holds the final RunReport JSON once complete.
type Run struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Status    RunStatus       `json:"status"`
	Report    json.RawMessage `json:"report,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
