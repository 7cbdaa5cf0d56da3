// internal/backup/s3.go
package backup

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"nutrition-log/internal/config"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores backups under a key prefix in one bucket.
type S3Uploader struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Uploader builds a client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies. A
// custom Endpoint switches to path-style addressing for S3-compatible
// stores.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, file, name string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat backup: %w", err)
	}

	key := path.Join(u.prefix, name)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", u.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
