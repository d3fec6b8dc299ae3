package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jittakal/matcheventstore/internal/config/dto"
	apperrors "github.com/jittakal/matcheventstore/internal/errors"
	"github.com/jittakal/matcheventstore/internal/observability"
)

// Ensure implementation satisfies interface at compile time.
var _ Destination = (*S3Destination)(nil)

// S3Destination uploads completed output files to AWS S3. Uploads use
// multipart transfers for large part files and keep the local copy in
// place.
type S3Destination struct {
	uploader *manager.Uploader
	bucket   string
	basePath string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewS3Destination creates an S3 destination from the storage config.
func NewS3Destination(
	ctx context.Context,
	cfg dto.S3Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*S3Destination, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 5
	})

	logger.Info("s3 destination created",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"base_path", cfg.BasePath,
	)

	return &S3Destination{
		uploader: uploader,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Publish uploads one completed local file under basePath in the bucket.
func (d *S3Destination) Publish(ctx context.Context, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		d.metrics.StorageErrors.WithLabelValues(d.Name(), "open").Inc()
		return &apperrors.StorageError{Operation: "open", Path: localPath, Err: err}
	}
	defer file.Close()

	key := path.Join(d.basePath, filepath.Base(localPath))
	if _, err := d.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		d.metrics.StorageErrors.WithLabelValues(d.Name(), "upload").Inc()
		return &apperrors.StorageError{Operation: "upload", Path: "s3://" + d.bucket + "/" + key, Err: err}
	}

	d.logger.Info("uploaded output file",
		"path", localPath,
		"bucket", d.bucket,
		"key", key,
	)
	return nil
}

// Name identifies the backend.
func (d *S3Destination) Name() string {
	return "s3"
}
