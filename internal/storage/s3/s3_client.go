package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"docextract/internal/config"
	"docextract/internal/domain"
	"docextract/internal/port"
)

// getObjectAPI is the subset of the S3 client used for downloads.
type getObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Client struct {
	client   getObjectAPI
	maxBytes int64
}

// NewS3Client creates an S3-backed ObjectStorage used to resolve stored PDF references.
func NewS3Client(cfg *config.S3Config) (port.ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newWithAPI(s3.NewFromConfig(awsCfg, s3Opts...), cfg.MaxFileSizeMB), nil
}

func newWithAPI(api getObjectAPI, maxFileSizeMB int64) *s3Client {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 20
	}
	return &s3Client{client: api, maxBytes: maxFileSizeMB << 20}
}

// Download fetches an object. Missing objects map to domain.ErrNotFound and
// objects larger than the configured size cap are rejected.
func (c *s3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3 download %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 download: %w", err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("s3 download %s: object is %d bytes, limit %d: %w",
			key, *result.ContentLength, c.maxBytes, domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(result.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("s3 download read: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("s3 download %s: object exceeds %d bytes: %w", key, c.maxBytes, domain.ErrInvalidInput)
	}
	return data, nil
}
