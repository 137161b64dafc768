// Package cmd contains the command line interface of the workflow launcher.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ziq497/PlatePals-NutritionChatbot/exec"
	"github.com/ziq497/PlatePals-NutritionChatbot/pkg"
	"github.com/ziq497/PlatePals-NutritionChatbot/repo"
)

var (
	dataProcessor bool
	modelTraining bool
	modelDeploy   bool
	pipeline      bool

	wait      bool
	local     bool
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "workflow",
	Short: "submit PlatePals ML pipelines to Vertex AI",
	Long: `The workflow launcher assembles the PlatePals stages (data processing,
model training, model deployment) into pipelines, compiles them to manifests
and submits them as jobs to Vertex AI. Selected modes run sequentially.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := pkg.LoadEnv()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		var (
			repository repo.Repository
			executor   exec.Executor
		)

		if local {
			executor, err = exec.NewDockerExecutor(exec.DockerConfig{FromEnv: true})
			if err != nil {
				return err
			}
		} else {
			repository, err = repo.NewGCSRepository(ctx, repo.Config{Bucket: cfg.BucketName})
			if err != nil {
				return err
			}
			defer repository.Close()

			executor, err = exec.NewVertexExecutor(ctx, exec.VertexConfig{
				Project: cfg.Project,
				Region:  cfg.Region,
			})
			if err != nil {
				return err
			}
		}
		defer executor.Close()

		opts := []pkg.Option{pkg.WithOutputDir(outputDir)}
		if wait {
			opts = append(opts, pkg.WithWait())
		}

		launcher := pkg.NewLauncher(cfg, repository, executor, opts...)

		selected := false

		if dataProcessor {
			selected = true
			if err := launcher.DataProcessor(ctx); err != nil {
				return err
			}
		}

		if modelTraining {
			selected = true
			if err := launcher.ModelTraining(ctx); err != nil {
				return err
			}
		}

		if modelDeploy {
			selected = true
			if err := launcher.ModelDeploy(ctx); err != nil {
				return err
			}
		}

		if pipeline {
			selected = true
			if err := launcher.Pipeline(ctx); err != nil {
				return err
			}
		}

		if !selected {
			log.Info().Msg("no run mode selected, nothing to do")
		}

		return nil
	},
}

func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("workflow failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&dataProcessor, "data_processor", "p", false, "run just the Data Processor")
	rootCmd.Flags().BoolVarP(&modelTraining, "model_training", "t", false, "run just Model Training")
	rootCmd.Flags().BoolVarP(&modelDeploy, "model_deploy", "d", false, "run just Model Deployment")
	rootCmd.Flags().BoolVarP(&pipeline, "pipeline", "w", false, "PlatePals App Pipeline")

	rootCmd.Flags().BoolVar(&wait, "wait", false, "block until each submitted job reaches a terminal state")
	rootCmd.Flags().BoolVar(&local, "local", false, "run container stages on the local Docker daemon instead of submitting")
	rootCmd.Flags().StringVar(&outputDir, "output", ".", "directory compiled manifests are written to")
}
