package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"interview-insights-go/internal/config"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// S3Store uploads audio to the bucket Transcribe reads from.
type S3Store struct {
	client putObjectAPI
	bucket string
}

// LoadAWSConfig resolves credentials the same way for S3 and Transcribe:
// static keys when configured, the default chain otherwise.
func LoadAWSConfig(ctx context.Context, cfg config.StorageConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("storage: load aws config: %w", err)
	}
	return awsCfg, nil
}

func NewS3Store(awsCfg aws.Config, cfg config.StorageConfig) *S3Store {
	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" || cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = true
		})
	}
	return &S3Store{client: awss3.NewFromConfig(awsCfg, s3Opts...), bucket: cfg.Bucket}
}

func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

var _ ObjectStore = (*S3Store)(nil)
