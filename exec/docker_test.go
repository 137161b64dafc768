package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziq497/PlatePals-NutritionChatbot/sdk"
)

func containerManifest(t *testing.T) *sdk.Manifest {
	t.Helper()

	return &sdk.Manifest{
		Root: sdk.Root{DAG: sdk.DAGSpec{Tasks: map[string]sdk.TaskSpec{
			"prepare": {
				ComponentRef: sdk.ComponentRef{Name: "comp-prepare"},
			},
			"process": {
				ComponentRef:   sdk.ComponentRef{Name: "comp-process"},
				DependentTasks: []string{"prepare"},
			},
		}}},
		Components: sdk.ComponentMap{
			"comp-prepare": {ExecutorLabel: "exec-prepare"},
			"comp-process": {ExecutorLabel: "exec-process"},
		},
		DeploymentSpec: sdk.DeploymentSpec{Executors: map[string]sdk.ExecutorSpec{
			"exec-prepare": {Container: &sdk.ContainerExecutor{
				Image: "example.com/prepare",
				Args:  []string{"cli.py"},
			}},
			"exec-process": {Container: &sdk.ContainerExecutor{
				Image: "example.com/process",
				Args:  []string{"cli.py", "--bucket b"},
			}},
		}},
	}
}

func TestExecutionPlanOrder(t *testing.T) {
	plan, err := executionPlan(containerManifest(t))
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, "prepare", plan[0].Name)
	assert.Equal(t, "process", plan[1].Name)
	assert.Equal(t, "example.com/process", plan[1].Image)
	assert.Equal(t, []string{"cli.py", "--bucket b"}, plan[1].Args)
}

func TestExecutionPlanRejectsComponentStages(t *testing.T) {
	m := containerManifest(t)
	m.DeploymentSpec.Executors["exec-process"] = sdk.ExecutorSpec{
		Prebuilt: &sdk.PrebuiltExecutor{Component: "model_training"},
	}

	_, err := executionPlan(m)
	require.ErrorContains(t, err, "not runnable locally")
}

func TestExecutionPlanMissingComponent(t *testing.T) {
	m := containerManifest(t)
	delete(m.Components, "comp-process")

	_, err := executionPlan(m)
	require.ErrorContains(t, err, `no component "comp-process"`)
}

func TestExecutionPlanMissingExecutor(t *testing.T) {
	m := containerManifest(t)
	delete(m.DeploymentSpec.Executors, "exec-prepare")

	_, err := executionPlan(m)
	require.ErrorContains(t, err, `no executor "exec-prepare"`)
}

func TestExecutionPlanRejectsUnknownDependency(t *testing.T) {
	m := containerManifest(t)
	task := m.Root.DAG.Tasks["process"]
	task.DependentTasks = []string{"absent"}
	m.Root.DAG.Tasks["process"] = task

	_, err := executionPlan(m)
	require.Error(t, err)
}
