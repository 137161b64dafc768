package exec

import (
	"context"
	"fmt"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/cenkalti/backoff/v4"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// pipelineAPI is the slice of the Vertex AI pipeline service this backend
// consumes.
type pipelineAPI interface {
	CreatePipelineJob(ctx context.Context, req *aiplatformpb.CreatePipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error)
	GetPipelineJob(ctx context.Context, req *aiplatformpb.GetPipelineJobRequest, opts ...gax.CallOption) (*aiplatformpb.PipelineJob, error)
	Close() error
}

// VertexConfig locates the Vertex AI pipeline service.
type VertexConfig struct {
	Project string
	Region  string
	// PollInterval is the initial interval between job state polls in
	// Wait. Defaults to 10s.
	PollInterval time.Duration
}

const defaultPollInterval = 10 * time.Second

type vertex struct {
	api          pipelineAPI
	project      string
	region       string
	pollInterval time.Duration
}

// NewVertexExecutor connects to the regional Vertex AI endpoint.
func NewVertexExecutor(ctx context.Context, cfg VertexConfig) (Executor, error) {
	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.Region)

	api, err := aiplatform.NewPipelineClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("unable to create pipeline client for %s: %w", endpoint, err)
	}

	return newVertex(api, cfg), nil
}

func newVertex(api pipelineAPI, cfg VertexConfig) *vertex {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &vertex{
		api:          api,
		project:      cfg.Project,
		region:       cfg.Region,
		pollInterval: interval,
	}
}

// Submit creates the remote pipeline job and returns as soon as the job
// resource exists. The service owns the lifecycle from there.
func (v *vertex) Submit(ctx context.Context, sub Submission) (*Job, error) {
	req := &aiplatformpb.CreatePipelineJobRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s", v.project, v.region),
		PipelineJob: &aiplatformpb.PipelineJob{
			DisplayName:    sub.DisplayName,
			TemplateUri:    sub.Template,
			ServiceAccount: sub.ServiceAccount,
			RuntimeConfig: &aiplatformpb.PipelineJob_RuntimeConfig{
				GcsOutputDirectory: sub.PipelineRoot,
			},
		},
	}

	created, err := v.api.CreatePipelineJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unable to create pipeline job %q: %w", sub.DisplayName, err)
	}

	return &Job{
		ID:          created.GetName(),
		DisplayName: created.GetDisplayName(),
		State:       jobState(created.GetState()),
	}, nil
}

// Wait polls the job under exponential backoff until it reaches a terminal
// state. Failure and cancellation surface as errors.
func (v *vertex) Wait(ctx context.Context, job *Job) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = v.pollInterval
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	poll := func() error {
		current, err := v.api.GetPipelineJob(ctx, &aiplatformpb.GetPipelineJobRequest{Name: job.ID})
		if err != nil {
			return backoff.Permanent(fmt.Errorf("unable to get pipeline job %s: %w", job.ID, err))
		}

		job.State = jobState(current.GetState())

		switch job.State {
		case SucceededState:
			return nil
		case FailedState, CancelledState:
			return backoff.Permanent(fmt.Errorf("pipeline job %s finished in state %s", job.ID, job.State))
		default:
			log.Debug().Str("job_id", job.ID).Str("state", string(job.State)).Msg("pipeline job still running")
			return fmt.Errorf("pipeline job %s still in state %s", job.ID, job.State)
		}
	}

	return backoff.Retry(poll, backoff.WithContext(bo, ctx))
}

func (v *vertex) Close() error {
	return v.api.Close()
}

func jobState(s aiplatformpb.PipelineState) JobState {
	switch s {
	case aiplatformpb.PipelineState_PIPELINE_STATE_QUEUED,
		aiplatformpb.PipelineState_PIPELINE_STATE_PENDING:
		return QueuedState
	case aiplatformpb.PipelineState_PIPELINE_STATE_RUNNING,
		aiplatformpb.PipelineState_PIPELINE_STATE_PAUSED:
		return RunningState
	case aiplatformpb.PipelineState_PIPELINE_STATE_SUCCEEDED:
		return SucceededState
	case aiplatformpb.PipelineState_PIPELINE_STATE_FAILED:
		return FailedState
	case aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLING,
		aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLED:
		return CancelledState
	default:
		return UnknownState
	}
}

var _ Executor = (*vertex)(nil)
