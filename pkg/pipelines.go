package pkg

import (
	"fmt"

	"github.com/ziq497/PlatePals-NutritionChatbot/sdk"
)

// Stage names used across all run modes.
const (
	DataProcessorStage = "data-processor"
	ModelTrainingStage = "model-training"
	ModelDeployStage   = "model-deploy"
)

// Components exported by the trainer package staged at GCS_PACKAGE_URI.
const (
	modelTrainingComponent = "model_training"
	modelDeployComponent   = "model_deploy"
)

// Training hyperparameters. The standalone mode and the full pipeline train
// with different settings; the two sets are intentionally kept apart.
const (
	standaloneEpochs  = 3
	pipelineEpochs    = 1
	pipelineBatchSize = 32
	pipelineModelName = "EfficientNetV2B0"
)

// DataProcessorPipeline builds the single-stage data processing pipeline.
func DataProcessorPipeline(cfg Config) (*sdk.Pipeline, error) {
	b := sdk.NewBuilder("data-processor-pipeline")

	// The standalone run invokes the processor without --bucket; only the
	// full pipeline binds the bucket argument.
	b.AddStage(sdk.NewContainerStage(
		DataProcessorStage,
		cfg.DataProcessorImage,
		[]string{},
		[]string{"cli.py"},
	))

	return b.Build()
}

// ModelTrainingPipeline builds the single-stage standalone training
// pipeline (3 epochs, default batch size and architecture).
func ModelTrainingPipeline(cfg Config) (*sdk.Pipeline, error) {
	b := sdk.NewBuilder("model-training-pipeline")

	b.AddStage(sdk.NewComponentStage(
		ModelTrainingStage,
		modelTrainingComponent,
		sdk.Param("project", cfg.Project),
		sdk.Param("location", cfg.Region),
		sdk.Param("staging_bucket", cfg.PackageURI),
		sdk.Param("bucket_name", cfg.BucketName),
		sdk.Param("epochs", standaloneEpochs),
	))

	return b.Build()
}

// ModelDeployPipeline builds the single-stage deployment pipeline.
func ModelDeployPipeline(cfg Config) (*sdk.Pipeline, error) {
	b := sdk.NewBuilder("model-deploy-pipeline")

	b.AddStage(sdk.NewComponentStage(
		ModelDeployStage,
		modelDeployComponent,
		sdk.Param("bucket_name", cfg.BucketName),
	))

	return b.Build()
}

// MLPipeline builds the full three-stage pipeline: data processing, then
// training, then deployment, chained strictly in sequence. Training here
// runs 1 epoch with batch size 32 on EfficientNetV2B0 with base layers
// frozen, unlike the standalone training mode.
func MLPipeline(cfg Config) (*sdk.Pipeline, error) {
	b := sdk.NewBuilder("ml-pipeline")

	dataProcessor := b.AddStage(sdk.NewContainerStage(
		DataProcessorStage,
		cfg.DataProcessorImage,
		[]string{},
		[]string{"cli.py", fmt.Sprintf("--bucket %s", cfg.BucketName)},
	)).SetDisplayName("Data Processor")

	modelTraining := b.AddStage(sdk.NewComponentStage(
		ModelTrainingStage,
		modelTrainingComponent,
		sdk.Param("project", cfg.Project),
		sdk.Param("location", cfg.Region),
		sdk.Param("staging_bucket", cfg.PackageURI),
		sdk.Param("bucket_name", cfg.BucketName),
		sdk.Param("epochs", pipelineEpochs),
		sdk.Param("batch_size", pipelineBatchSize),
		sdk.Param("model_name", pipelineModelName),
		sdk.Param("train_base", false),
	)).SetDisplayName("Model Training").After(dataProcessor)

	b.AddStage(sdk.NewComponentStage(
		ModelDeployStage,
		modelDeployComponent,
		sdk.Param("bucket_name", cfg.BucketName),
	)).SetDisplayName("Model Deploy").After(modelTraining)

	return b.Build()
}
