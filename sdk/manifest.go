package sdk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the declarative form of a compiled pipeline, the document the
// orchestration service consumes.
type Manifest struct {
	PipelineInfo   PipelineInfo   `yaml:"pipelineInfo"`
	Root           Root           `yaml:"root"`
	Components     ComponentMap   `yaml:"components"`
	DeploymentSpec DeploymentSpec `yaml:"deploymentSpec"`
	SchemaVersion  string         `yaml:"schemaVersion"`
	SDKVersion     string         `yaml:"sdkVersion"`
}

// PipelineInfo names the pipeline.
type PipelineInfo struct {
	Name string `yaml:"name"`
}

// Root holds the task graph of the pipeline.
type Root struct {
	DAG DAGSpec `yaml:"dag"`
}

// DAGSpec maps task names to their specs.
type DAGSpec struct {
	Tasks map[string]TaskSpec `yaml:"tasks"`
}

// TaskSpec is one node of the compiled task graph.
type TaskSpec struct {
	TaskInfo       TaskInfo       `yaml:"taskInfo"`
	ComponentRef   ComponentRef   `yaml:"componentRef"`
	DependentTasks []string       `yaml:"dependentTasks,omitempty"`
	Inputs         *TaskInputs    `yaml:"inputs,omitempty"`
	CachingOptions CachingOptions `yaml:"cachingOptions"`
}

// TaskInfo carries the human-readable task name.
type TaskInfo struct {
	Name string `yaml:"name"`
}

// ComponentRef points a task at its component entry.
type ComponentRef struct {
	Name string `yaml:"name"`
}

// TaskInputs carries the constant parameters bound to a task.
type TaskInputs struct {
	Parameters []ParameterSpec `yaml:"parameters,omitempty"`
}

// ParameterSpec is one constant input parameter.
type ParameterSpec struct {
	Name     string `yaml:"name"`
	Constant any    `yaml:"constant"`
}

// CachingOptions controls result reuse for a task. The launcher always
// submits with caching disabled.
type CachingOptions struct {
	EnableCache bool `yaml:"enableCache"`
}

// ComponentMap maps component names to their executor labels.
type ComponentMap map[string]ComponentSpec

// ComponentSpec links a component to its executor.
type ComponentSpec struct {
	ExecutorLabel string `yaml:"executorLabel"`
}

// DeploymentSpec describes how each executor runs.
type DeploymentSpec struct {
	Executors map[string]ExecutorSpec `yaml:"executors"`
}

// ExecutorSpec is either a container executor or a pre-built component
// executor, never both.
type ExecutorSpec struct {
	Container *ContainerExecutor `yaml:"container,omitempty"`
	Prebuilt  *PrebuiltExecutor  `yaml:"prebuiltComponent,omitempty"`
}

// ContainerExecutor runs a container image.
type ContainerExecutor struct {
	Image   string   `yaml:"image"`
	Command []string `yaml:"command"`
	Args    []string `yaml:"args"`
}

// PrebuiltExecutor runs a component from the staged trainer package.
type PrebuiltExecutor struct {
	Component string `yaml:"component"`
}

// LoadManifest reads a compiled manifest back from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unable to parse manifest %s: %w", path, err)
	}

	return &m, nil
}
