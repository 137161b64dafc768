// Package pkg wires the launcher together: environment configuration, run
// naming, pipeline assembly and the mode orchestration driving compile,
// staging and submission.
package pkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/ziq497/PlatePals-NutritionChatbot/exec"
	"github.com/ziq497/PlatePals-NutritionChatbot/repo"
	"github.com/ziq497/PlatePals-NutritionChatbot/sdk"
)

// Manifest file names, one per run mode. Written to the output directory
// and left behind after the run.
const (
	DataProcessorManifest = "data_processor.yaml"
	ModelTrainingManifest = "model_training.yaml"
	ModelDeployManifest   = "model_deploy.yaml"
	PipelineManifest      = "pipeline.yaml"
)

// Option configures a Launcher.
type Option func(*Launcher)

// WithOutputDir sets the directory compiled manifests are written to.
func WithOutputDir(dir string) Option {
	return func(l *Launcher) {
		l.outputDir = dir
	}
}

// WithWait makes every mode block until its job reaches a terminal state.
func WithWait() Option {
	return func(l *Launcher) {
		l.wait = true
	}
}

// NewLauncher creates a launcher. A nil repository means the template is
// not staged remotely and the executor receives the local manifest path
// (local run mode).
func NewLauncher(cfg Config, repository repo.Repository, executor exec.Executor, opts ...Option) *Launcher {
	l := &Launcher{
		cfg:       cfg,
		repo:      repository,
		exec:      executor,
		outputDir: ".",
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Launcher drives one run mode at a time: assemble the pipeline, compile it
// to a manifest, stage the manifest and submit the job.
type Launcher struct {
	cfg       Config
	repo      repo.Repository
	exec      exec.Executor
	outputDir string
	wait      bool
}

// DataProcessor submits the data-processing-only job.
func (l *Launcher) DataProcessor(ctx context.Context) error {
	log.Info().Msg("data processor")

	p, err := DataProcessorPipeline(l.cfg)
	if err != nil {
		return err
	}

	return l.launch(ctx, p, "data-processor", DataProcessorManifest)
}

// ModelTraining submits the training-only job.
func (l *Launcher) ModelTraining(ctx context.Context) error {
	log.Info().Msg("model training")

	p, err := ModelTrainingPipeline(l.cfg)
	if err != nil {
		return err
	}

	return l.launch(ctx, p, "model-training", ModelTrainingManifest)
}

// ModelDeploy submits the deploy-only job.
func (l *Launcher) ModelDeploy(ctx context.Context) error {
	log.Info().Msg("model deploy")

	p, err := ModelDeployPipeline(l.cfg)
	if err != nil {
		return err
	}

	return l.launch(ctx, p, "app-model-deploy", ModelDeployManifest)
}

// Pipeline submits the full three-stage pipeline job.
func (l *Launcher) Pipeline(ctx context.Context) error {
	log.Info().Msg("pipeline")

	p, err := MLPipeline(l.cfg)
	if err != nil {
		return err
	}

	return l.launch(ctx, p, "app-pipeline", PipelineManifest)
}

func (l *Launcher) launch(ctx context.Context, p *sdk.Pipeline, label, manifestName string) error {
	manifestPath := filepath.Join(l.outputDir, manifestName)

	if err := (sdk.Compiler{}).Compile(p, manifestPath); err != nil {
		return err
	}

	template := manifestPath

	if l.repo != nil {
		f, err := os.Open(manifestPath)
		if err != nil {
			return fmt.Errorf("unable to open manifest %s: %w", manifestPath, err)
		}

		template, err = l.repo.Put(ctx, manifestName, f)
		_ = f.Close()

		if err != nil {
			return err
		}
	}

	displayName := DisplayName(label)

	job, err := l.exec.Submit(ctx, exec.Submission{
		DisplayName:    displayName,
		Template:       template,
		PipelineRoot:   l.cfg.PipelineRoot(),
		ServiceAccount: l.cfg.ServiceAccount,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("display_name", displayName).
		Str("job_id", job.ID).
		Str("state", string(job.State)).
		Msg("job submitted")

	if !l.wait {
		return nil
	}

	log.Info().Str("job_id", job.ID).Msg("waiting for job to finish")

	if err := l.exec.Wait(ctx, job); err != nil {
		return err
	}

	log.Info().Str("job_id", job.ID).Str("state", string(job.State)).Msg("job finished")

	return nil
}
