package exec

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/dominikbraun/graph"
	"github.com/rs/zerolog/log"

	"github.com/ziq497/PlatePals-NutritionChatbot/sdk"
)

// DockerConfig locates the Docker daemon used for local runs.
type DockerConfig struct {
	FromEnv bool
	Host    string
}

type docker struct {
	dc *client.Client
}

// NewDockerExecutor creates the local execution backend. It runs container
// stages of a compiled manifest sequentially against the local Docker
// daemon; component stages are not locally runnable.
func NewDockerExecutor(cfg DockerConfig) (Executor, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}

	if cfg.FromEnv {
		opts = append(opts, client.FromEnv)
	} else if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	dc, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create docker client: %w", err)
	}

	return &docker{dc: dc}, nil
}

// localTask is one runnable step of a local execution plan.
type localTask struct {
	Name    string
	Image   string
	Command []string
	Args    []string
}

// executionPlan orders the manifest's tasks by their declared dependencies
// and resolves each to its container executor.
func executionPlan(m *sdk.Manifest) ([]localTask, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	for name := range m.Root.DAG.Tasks {
		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("unable to add task %q: %w", name, err)
		}
	}

	for name, task := range m.Root.DAG.Tasks {
		for _, dep := range task.DependentTasks {
			if err := g.AddEdge(dep, name); err != nil {
				return nil, fmt.Errorf("unable to add dependency %q -> %q: %w", dep, name, err)
			}
		}
	}

	order, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, fmt.Errorf("unable to order tasks: %w", err)
	}

	plan := make([]localTask, 0, len(order))

	for _, name := range order {
		task := m.Root.DAG.Tasks[name]

		comp, ok := m.Components[task.ComponentRef.Name]
		if !ok {
			return nil, fmt.Errorf("manifest has no component %q", task.ComponentRef.Name)
		}

		spec, ok := m.DeploymentSpec.Executors[comp.ExecutorLabel]
		if !ok {
			return nil, fmt.Errorf("manifest has no executor %q", comp.ExecutorLabel)
		}

		if spec.Container == nil {
			return nil, fmt.Errorf("task %q is not runnable locally: only container stages are supported", name)
		}

		plan = append(plan, localTask{
			Name:    name,
			Image:   spec.Container.Image,
			Command: spec.Container.Command,
			Args:    spec.Container.Args,
		})
	}

	return plan, nil
}

// Submit runs the manifest's stages to completion, in dependency order. The
// returned job is already terminal; Wait on it is a no-op.
func (d *docker) Submit(ctx context.Context, sub Submission) (*Job, error) {
	m, err := sdk.LoadManifest(sub.Template)
	if err != nil {
		return nil, err
	}

	plan, err := executionPlan(m)
	if err != nil {
		return nil, fmt.Errorf("unable to plan local run %q: %w", sub.DisplayName, err)
	}

	job := &Job{
		ID:          sub.DisplayName,
		DisplayName: sub.DisplayName,
		State:       RunningState,
	}

	for _, task := range plan {
		log.Info().Str("stage", task.Name).Str("image", task.Image).Msg("running stage locally")

		if err := d.runTask(ctx, sub.DisplayName, task); err != nil {
			job.State = FailedState
			return nil, fmt.Errorf("stage %q failed: %w", task.Name, err)
		}
	}

	job.State = SucceededState

	return job, nil
}

func (d *docker) runTask(ctx context.Context, jobName string, task localTask) error {
	out, err := d.dc.ImagePull(ctx, task.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("unable to pull image %s: %w", task.Image, err)
	}

	_, _ = io.Copy(io.Discard, out)
	_ = out.Close()

	cmd := append(append([]string{}, task.Command...), task.Args...)
	containerName := fmt.Sprintf("%s-%s", jobName, task.Name)

	resp, err := d.dc.ContainerCreate(ctx, &container.Config{
		Image: task.Image,
		Cmd:   cmd,
		Labels: map[string]string{
			"platepals_job":   jobName,
			"platepals_stage": task.Name,
		},
	}, nil, nil, nil, containerName)
	if err != nil {
		return fmt.Errorf("unable to create container %s: %w", containerName, err)
	}

	if err := d.dc.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("unable to start container %s: %w", containerName, err)
	}

	statusCh, errCh := d.dc.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("unable to wait for container %s: %w", containerName, err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			return fmt.Errorf("container %s exited with status %d", containerName, status.StatusCode)
		}
	}

	return nil
}

// Wait is a no-op: local runs complete within Submit.
func (d *docker) Wait(_ context.Context, job *Job) error {
	if !job.State.Terminal() {
		return fmt.Errorf("local job %s is not terminal", job.ID)
	}

	return nil
}

func (d *docker) Close() error {
	return d.dc.Close()
}

var _ Executor = (*docker)(nil)
