// Package sdk is the pipeline-authoring surface of the workflow launcher.
//
// A pipeline is assembled through a mutable Builder: stages are registered as
// nodes, ordering constraints are declared with After, and Build returns an
// immutable Pipeline that the Compiler can turn into a manifest. The builder
// rejects cycles the moment an edge would introduce one.
package sdk

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// StageKind discriminates between the two stage variants.
type StageKind string

const (
	// ContainerStage points at an external container image.
	ContainerStage StageKind = "container"
	// ComponentStage references a pre-built component shipped with the
	// trainer package.
	ComponentStage StageKind = "component"
)

// Stage is a single executable unit within a pipeline graph.
type Stage struct {
	Kind        StageKind
	Name        string
	DisplayName string

	// Container stages only.
	Image   string
	Command []string
	Args    []string

	// Component stages only.
	Component  string
	Parameters []Parameter
}

// Parameter is a named input for a component stage. Declaration order is
// preserved all the way into the manifest.
type Parameter struct {
	Name  string
	Value any
}

// Param builds a component stage parameter.
func Param(name string, value any) Parameter {
	return Parameter{Name: name, Value: value}
}

// NewContainerStage creates a stage backed by a container image.
func NewContainerStage(name, image string, command, args []string) *Stage {
	return &Stage{
		Kind:    ContainerStage,
		Name:    name,
		Image:   image,
		Command: command,
		Args:    args,
	}
}

// NewComponentStage creates a stage backed by a pre-built component.
func NewComponentStage(name, component string, params ...Parameter) *Stage {
	return &Stage{
		Kind:       ComponentStage,
		Name:       name,
		Component:  component,
		Parameters: params,
	}
}

func (s *Stage) validate() error {
	if s.Name == "" {
		return fmt.Errorf("stage name is required")
	}

	switch s.Kind {
	case ContainerStage:
		if s.Image == "" {
			return fmt.Errorf("stage %q: container stage requires an image", s.Name)
		}
	case ComponentStage:
		if s.Component == "" {
			return fmt.Errorf("stage %q: component stage requires a component reference", s.Name)
		}
	default:
		return fmt.Errorf("stage %q: unknown stage kind %q", s.Name, s.Kind)
	}

	return nil
}

func stageHash(s *Stage) string {
	return s.Name
}

// Builder accumulates stages and ordering edges for a single pipeline. The
// first error sticks and is returned from Build.
type Builder struct {
	name  string
	g     graph.Graph[string, *Stage]
	order []string
	edges []Edge
	err   error
}

// NewBuilder creates a builder for a pipeline with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
		g:    graph.New(stageHash, graph.Directed(), graph.PreventCycles()),
	}
}

// Task is a handle to a stage registered on a builder, used to declare
// ordering against other tasks.
type Task struct {
	b     *Builder
	stage *Stage
}

// AddStage registers a stage as a node of the pipeline graph.
func (b *Builder) AddStage(s *Stage) *Task {
	t := &Task{b: b, stage: s}
	if b.err != nil {
		return t
	}

	if err := s.validate(); err != nil {
		b.err = err
		return t
	}

	if err := b.g.AddVertex(s); err != nil {
		b.err = fmt.Errorf("unable to add stage %q: %w", s.Name, err)
		return t
	}

	b.order = append(b.order, s.Name)

	return t
}

// SetDisplayName sets the human-readable name shown by the orchestrator.
func (t *Task) SetDisplayName(name string) *Task {
	t.stage.DisplayName = name
	return t
}

// After declares that this task must not start before each of the given
// tasks has completed.
func (t *Task) After(deps ...*Task) *Task {
	for _, dep := range deps {
		if t.b.err != nil {
			return t
		}

		if err := t.b.g.AddEdge(dep.stage.Name, t.stage.Name); err != nil {
			t.b.err = fmt.Errorf("unable to add edge from %q to %q: %w", dep.stage.Name, t.stage.Name, err)
			return t
		}

		t.b.edges = append(t.b.edges, Edge{From: dep.stage.Name, To: t.stage.Name})
	}

	return t
}

// Build validates the graph and returns the immutable pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}

	if len(b.order) == 0 {
		return nil, fmt.Errorf("pipeline %q must contain at least one stage", b.name)
	}

	topo, err := graph.TopologicalSort(b.g)
	if err != nil {
		return nil, fmt.Errorf("unable to order pipeline %q: %w", b.name, err)
	}

	stages := make([]*Stage, 0, len(b.order))
	for _, name := range b.order {
		stage, err := b.g.Vertex(name)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve stage %q: %w", name, err)
		}

		stages = append(stages, stage)
	}

	return &Pipeline{
		name:   b.name,
		stages: stages,
		edges:  b.edges,
		topo:   topo,
	}, nil
}

// Edge is a "must complete before" constraint between two stages.
type Edge struct {
	From string
	To   string
}

// Pipeline is an immutable, acyclic collection of stages plus ordering
// edges, ready to be compiled to a manifest.
type Pipeline struct {
	name   string
	stages []*Stage
	edges  []Edge
	topo   []string
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Stages returns the stages in registration order.
func (p *Pipeline) Stages() []*Stage {
	return p.stages
}

// Edges returns the declared ordering constraints.
func (p *Pipeline) Edges() []Edge {
	return p.edges
}

// TopologicalOrder returns stage names in an order compatible with every
// declared edge.
func (p *Pipeline) TopologicalOrder() []string {
	return p.topo
}

// Stage returns the stage with the given name, or nil.
func (p *Pipeline) Stage(name string) *Stage {
	for _, s := range p.stages {
		if s.Name == name {
			return s
		}
	}

	return nil
}
