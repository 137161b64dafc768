package exec

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipelineAPI struct {
	createReq *aiplatformpb.CreatePipelineJobRequest
	createErr error

	states   []aiplatformpb.PipelineState
	getCalls int
	getErr   error

	closed bool
}

func (f *fakePipelineAPI) CreatePipelineJob(_ context.Context, req *aiplatformpb.CreatePipelineJobRequest, _ ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	f.createReq = req

	if f.createErr != nil {
		return nil, f.createErr
	}

	return &aiplatformpb.PipelineJob{
		Name:        req.GetParent() + "/pipelineJobs/42",
		DisplayName: req.GetPipelineJob().GetDisplayName(),
		State:       aiplatformpb.PipelineState_PIPELINE_STATE_PENDING,
	}, nil
}

func (f *fakePipelineAPI) GetPipelineJob(_ context.Context, req *aiplatformpb.GetPipelineJobRequest, _ ...gax.CallOption) (*aiplatformpb.PipelineJob, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	idx := f.getCalls
	if idx >= len(f.states) {
		idx = len(f.states) - 1
	}
	f.getCalls++

	return &aiplatformpb.PipelineJob{
		Name:  req.GetName(),
		State: f.states[idx],
	}, nil
}

func (f *fakePipelineAPI) Close() error {
	f.closed = true
	return nil
}

func testVertex(api *fakePipelineAPI) *vertex {
	return newVertex(api, VertexConfig{
		Project:      "platepals-project",
		Region:       "us-central1",
		PollInterval: time.Millisecond,
	})
}

func testSubmission() Submission {
	return Submission{
		DisplayName:    "platepals-app-pipeline-x7kq02mz",
		Template:       "gs://platepals-bucket/pipeline_templates/pipeline.yaml",
		PipelineRoot:   "gs://platepals-bucket/pipeline_root/root",
		ServiceAccount: "runner@platepals-project.iam.gserviceaccount.com",
	}
}

func TestVertexSubmit(t *testing.T) {
	api := &fakePipelineAPI{}

	job, err := testVertex(api).Submit(context.Background(), testSubmission())
	require.NoError(t, err)

	require.NotNil(t, api.createReq)
	assert.Equal(t, "projects/platepals-project/locations/us-central1", api.createReq.GetParent())

	created := api.createReq.GetPipelineJob()
	assert.Equal(t, "platepals-app-pipeline-x7kq02mz", created.GetDisplayName())
	assert.Equal(t, "gs://platepals-bucket/pipeline_templates/pipeline.yaml", created.GetTemplateUri())
	assert.Equal(t, "runner@platepals-project.iam.gserviceaccount.com", created.GetServiceAccount())
	assert.Equal(t, "gs://platepals-bucket/pipeline_root/root", created.GetRuntimeConfig().GetGcsOutputDirectory())

	assert.Equal(t, "projects/platepals-project/locations/us-central1/pipelineJobs/42", job.ID)
	assert.Equal(t, QueuedState, job.State)
}

func TestVertexSubmitError(t *testing.T) {
	api := &fakePipelineAPI{createErr: errors.New("quota exceeded")}

	_, err := testVertex(api).Submit(context.Background(), testSubmission())
	require.ErrorContains(t, err, "quota exceeded")
}

func TestVertexWaitUntilSucceeded(t *testing.T) {
	api := &fakePipelineAPI{states: []aiplatformpb.PipelineState{
		aiplatformpb.PipelineState_PIPELINE_STATE_QUEUED,
		aiplatformpb.PipelineState_PIPELINE_STATE_RUNNING,
		aiplatformpb.PipelineState_PIPELINE_STATE_SUCCEEDED,
	}}

	job := &Job{ID: "projects/p/locations/l/pipelineJobs/42", State: QueuedState}

	require.NoError(t, testVertex(api).Wait(context.Background(), job))
	assert.Equal(t, SucceededState, job.State)
	assert.Equal(t, 3, api.getCalls)
}

func TestVertexWaitFailure(t *testing.T) {
	api := &fakePipelineAPI{states: []aiplatformpb.PipelineState{
		aiplatformpb.PipelineState_PIPELINE_STATE_RUNNING,
		aiplatformpb.PipelineState_PIPELINE_STATE_FAILED,
	}}

	job := &Job{ID: "projects/p/locations/l/pipelineJobs/42", State: RunningState}

	err := testVertex(api).Wait(context.Background(), job)
	require.ErrorContains(t, err, "finished in state failed")
	assert.Equal(t, FailedState, job.State)
}

func TestVertexWaitCancelled(t *testing.T) {
	api := &fakePipelineAPI{states: []aiplatformpb.PipelineState{
		aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLED,
	}}

	job := &Job{ID: "projects/p/locations/l/pipelineJobs/42", State: RunningState}

	err := testVertex(api).Wait(context.Background(), job)
	require.ErrorContains(t, err, "finished in state cancelled")
}

func TestVertexWaitGetError(t *testing.T) {
	api := &fakePipelineAPI{getErr: errors.New("permission denied")}

	job := &Job{ID: "projects/p/locations/l/pipelineJobs/42", State: QueuedState}

	err := testVertex(api).Wait(context.Background(), job)
	require.ErrorContains(t, err, "permission denied")
}

func TestVertexClose(t *testing.T) {
	api := &fakePipelineAPI{}

	require.NoError(t, testVertex(api).Close())
	assert.True(t, api.closed)
}

func TestJobStateMapping(t *testing.T) {
	tcs := map[aiplatformpb.PipelineState]JobState{
		aiplatformpb.PipelineState_PIPELINE_STATE_QUEUED:      QueuedState,
		aiplatformpb.PipelineState_PIPELINE_STATE_PENDING:     QueuedState,
		aiplatformpb.PipelineState_PIPELINE_STATE_RUNNING:     RunningState,
		aiplatformpb.PipelineState_PIPELINE_STATE_PAUSED:      RunningState,
		aiplatformpb.PipelineState_PIPELINE_STATE_SUCCEEDED:   SucceededState,
		aiplatformpb.PipelineState_PIPELINE_STATE_FAILED:      FailedState,
		aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLING:  CancelledState,
		aiplatformpb.PipelineState_PIPELINE_STATE_CANCELLED:   CancelledState,
		aiplatformpb.PipelineState_PIPELINE_STATE_UNSPECIFIED: UnknownState,
	}

	for in, want := range tcs {
		assert.Equal(t, want, jobState(in))
	}
}
