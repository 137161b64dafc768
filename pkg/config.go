package pkg

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Environment variables the launcher refuses to start without.
const (
	EnvProject            = "GCP_PROJECT"
	EnvRegion             = "GCP_REGION"
	EnvBucketName         = "GCS_BUCKET_NAME"
	EnvServiceAccount     = "GCS_SERVICE_ACCOUNT"
	EnvPackageURI         = "GCS_PACKAGE_URI"
	EnvDataProcessorImage = "DATA_PROCESSOR_IMAGE"
)

// Config holds everything the launcher reads from the environment.
type Config struct {
	Project            string
	Region             string
	BucketName         string
	ServiceAccount     string
	PackageURI         string
	DataProcessorImage string
}

// LoadEnv reads the launcher configuration from the environment. All six
// variables are required; the returned error lists every missing one so a
// misconfigured deployment fails once, not six times.
func LoadEnv() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	var errs error

	require := func(key string) string {
		val := strings.TrimSpace(v.GetString(key))
		if val == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s is required", key))
		}

		return val
	}

	result := Config{
		Project:            require(EnvProject),
		Region:             require(EnvRegion),
		BucketName:         require(EnvBucketName),
		ServiceAccount:     require(EnvServiceAccount),
		PackageURI:         require(EnvPackageURI),
		DataProcessorImage: require(EnvDataProcessorImage),
	}

	if errs != nil {
		return Config{}, fmt.Errorf("incomplete environment: %w", errs)
	}

	return result, nil
}

// BucketURI returns the gs:// URI of the project bucket.
func (c Config) BucketURI() string {
	return "gs://" + c.BucketName
}

// PipelineRoot returns the storage root for intermediate pipeline artifacts.
func (c Config) PipelineRoot() string {
	return c.BucketURI() + "/pipeline_root/root"
}
