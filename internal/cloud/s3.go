// Package cloud builds the AWS clients shared by template loading and
// certificate storage.
package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aanand-mishra/certificates-api/internal/config"
)

// NewS3Client loads credentials from the default chain (env, shared
// config, instance role). A custom endpoint switches to path-style
// addressing, which S3-compatible stores like MinIO expect.
func NewS3Client(ctx context.Context, cfg config.AWS) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("cloud: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
