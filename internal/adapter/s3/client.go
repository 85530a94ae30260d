// Package s3 provides object storage access for conversion runs.
package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/mosslantern/usagecsv/internal/config"
	"github.com/mosslantern/usagecsv/internal/observability"
)

// Client wraps the AWS S3 API with the three operations a conversion run
// needs: download a source object, upload outputs, delete the source.
type Client struct {
	api      *awss3.S3
	uploader *s3manager.Uploader
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewClient builds an S3 client from cfg. A non-empty S3Endpoint points the
// client at an S3-compatible store (localstack, minio); credentials come
// from the usual AWS chain.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.AWSRegion)
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint)
	}
	if cfg.S3ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}

	api := awss3.New(sess)
	return &Client{
		api:      api,
		uploader: s3manager.NewUploaderWithClient(api),
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Download fetches s3://bucket/key into localPath.
func (c *Client) Download(ctx context.Context, bucket, key, localPath string) error {
	obj, err := c.api.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.metrics.S3Operations.WithLabelValues("download", "error").Inc()
		return fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
	}
	defer obj.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}

	n, err := io.Copy(f, obj.Body)
	if err != nil {
		f.Close()
		c.metrics.S3Operations.WithLabelValues("download", "error").Inc()
		return fmt.Errorf("writing %s: %w", localPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", localPath, err)
	}

	c.metrics.S3Operations.WithLabelValues("download", "success").Inc()
	c.logger.Debug("downloaded object", "bucket", bucket, "key", key, "bytes", n)
	return nil
}

// Upload stores localPath as s3://bucket/key.
func (c *Client) Upload(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		c.metrics.S3Operations.WithLabelValues("upload", "error").Inc()
		return fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}

	c.metrics.S3Operations.WithLabelValues("upload", "success").Inc()
	c.logger.Debug("uploaded object", "bucket", bucket, "key", key)
	return nil
}

// Delete removes s3://bucket/key.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.api.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		c.metrics.S3Operations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("deleting s3://%s/%s: %w", bucket, key, err)
	}

	c.metrics.S3Operations.WithLabelValues("delete", "success").Inc()
	c.logger.Debug("deleted object", "bucket", bucket, "key", key)
	return nil
}
