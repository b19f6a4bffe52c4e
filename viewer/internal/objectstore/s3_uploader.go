package objectstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/export"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
)

// ClientConfig selects the S3 endpoint and credentials. Empty keys fall back
// to the default AWS credential chain.
type ClientConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewClient builds an S3 client. A custom endpoint (MinIO, LocalStack) forces
// path-style addressing.
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	var loaders []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loaders = append(loaders, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies export artifacts to a bucket under
// <prefix>/<label>/<experiment id>/<file>. It is an export.Sink.
type Uploader struct {
	cli    PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

func NewUploader(cli PutObjectAPI, bucket, prefix string, logger *zap.Logger) *Uploader {
	return &Uploader{
		cli:    cli,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logging.OrNop(logger).Named("s3"),
	}
}

// Key returns the object key of a local artifact file.
func (u *Uploader) Key(a export.Artifacts, file string) string {
	return path.Join(u.prefix, a.Label, a.ExperimentID, filepath.Base(file))
}

func (u *Uploader) Consume(ctx context.Context, a export.Artifacts) error {
	for _, file := range a.Files() {
		if err := u.put(ctx, a, file); err != nil {
			return err
		}
	}
	return nil
}

func (u *Uploader) put(ctx context.Context, a export.Artifacts, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	key := u.Key(a, file)
	if _, err := u.cli.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
		Metadata: map[string]string{
			"experiment-id": a.ExperimentID,
			"anchor":        a.Anchor,
		},
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	u.logger.Info("artifact uploaded", zap.String("bucket", u.bucket), zap.String("key", key))
	return nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
