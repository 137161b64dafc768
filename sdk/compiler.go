package sdk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	schemaVersion = "2.1.0"
	sdkVersion    = "platepals-workflow-sdk-0.1.0"
)

// Compiler serializes a pipeline graph to its manifest file.
type Compiler struct{}

// Compile writes the manifest for p to packagePath. Caching is disabled on
// every task so each submitted run executes from scratch.
func (c Compiler) Compile(p *Pipeline, packagePath string) error {
	m, err := c.manifest(p)
	if err != nil {
		return fmt.Errorf("unable to build manifest for pipeline %q: %w", p.Name(), err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("unable to serialize manifest for pipeline %q: %w", p.Name(), err)
	}

	if err := os.WriteFile(packagePath, data, 0o644); err != nil {
		return fmt.Errorf("unable to write manifest %s: %w", packagePath, err)
	}

	return nil
}

func (c Compiler) manifest(p *Pipeline) (*Manifest, error) {
	tasks := make(map[string]TaskSpec, len(p.Stages()))
	components := make(ComponentMap, len(p.Stages()))
	executors := make(map[string]ExecutorSpec, len(p.Stages()))

	deps := make(map[string][]string)
	for _, e := range p.Edges() {
		deps[e.To] = append(deps[e.To], e.From)
	}

	for _, stage := range p.Stages() {
		componentName := "comp-" + stage.Name
		executorLabel := "exec-" + stage.Name

		displayName := stage.DisplayName
		if displayName == "" {
			displayName = stage.Name
		}

		task := TaskSpec{
			TaskInfo:       TaskInfo{Name: displayName},
			ComponentRef:   ComponentRef{Name: componentName},
			DependentTasks: deps[stage.Name],
			CachingOptions: CachingOptions{EnableCache: false},
		}

		if len(stage.Parameters) > 0 {
			inputs := &TaskInputs{Parameters: make([]ParameterSpec, 0, len(stage.Parameters))}
			for _, param := range stage.Parameters {
				inputs.Parameters = append(inputs.Parameters, ParameterSpec{
					Name:     param.Name,
					Constant: param.Value,
				})
			}

			task.Inputs = inputs
		}

		tasks[stage.Name] = task
		components[componentName] = ComponentSpec{ExecutorLabel: executorLabel}

		switch stage.Kind {
		case ContainerStage:
			executors[executorLabel] = ExecutorSpec{Container: &ContainerExecutor{
				Image:   stage.Image,
				Command: stage.Command,
				Args:    stage.Args,
			}}
		case ComponentStage:
			executors[executorLabel] = ExecutorSpec{Prebuilt: &PrebuiltExecutor{
				Component: stage.Component,
			}}
		default:
			return nil, fmt.Errorf("stage %q: unknown stage kind %q", stage.Name, stage.Kind)
		}
	}

	return &Manifest{
		PipelineInfo:   PipelineInfo{Name: p.Name()},
		Root:           Root{DAG: DAGSpec{Tasks: tasks}},
		Components:     components,
		DeploymentSpec: DeploymentSpec{Executors: executors},
		SchemaVersion:  schemaVersion,
		SDKVersion:     sdkVersion,
	}, nil
}
