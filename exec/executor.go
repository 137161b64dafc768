// Package exec contains the execution backends a compiled pipeline can be
// handed to: Vertex AI for remote runs and Docker for local development.
package exec

import (
	"context"
)

type (
	// Submission is a request to run one compiled pipeline.
	Submission struct {
		// DisplayName disambiguates concurrent runs of the same
		// pipeline.
		DisplayName string
		// Template references the compiled manifest: a gs:// URI for
		// remote backends, a local file path for the Docker runner.
		Template string
		// PipelineRoot is the storage root for intermediate artifacts.
		PipelineRoot string
		// ServiceAccount is the identity the job executes under.
		ServiceAccount string
	}

	// Job is the handle returned by a successful submission. The backend
	// owns the job lifecycle from then on.
	Job struct {
		ID          string
		DisplayName string
		State       JobState
	}

	JobState string

	// Executor submits compiled pipelines to an execution backend.
	// Submit returns once the job resource exists; Wait blocks until the
	// job reaches a terminal state.
	Executor interface {
		Submit(ctx context.Context, sub Submission) (*Job, error)
		Wait(ctx context.Context, job *Job) error
		Close() error
	}
)

const (
	QueuedState    JobState = "queued"
	RunningState   JobState = "running"
	SucceededState JobState = "succeeded"
	FailedState    JobState = "failed"
	CancelledState JobState = "cancelled"
	UnknownState   JobState = "unknown"
)

// Terminal reports whether no further state transitions are expected.
func (s JobState) Terminal() bool {
	switch s {
	case SucceededState, FailedState, CancelledState:
		return true
	default:
		return false
	}
}
