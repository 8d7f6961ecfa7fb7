package models

import "time"

// TrainingStatus is a point-in-time snapshot of the training pipeline.
// Snapshots are immutable; the service swaps whole values under its lock.
type TrainingStatus struct {
	Running    bool      `json:"running"`
	Progress   int       `json:"progress"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error,omitempty"`
	Students   int       `json:"students"`
	Samples    int       `json:"samples"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// TrainingStages, in pipeline order.
const (
	StageIdle       = "idle"
	StageExtracting = "extracting"
	StageFitting    = "fitting"
	StageSaving     = "saving"
	StageDone       = "done"
	StageFailed     = "failed"
)
