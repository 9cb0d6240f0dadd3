package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the subset of the S3 client used to fetch a crosswalk
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectGetter = (*s3.Client)(nil)

// S3ClientConfig holds what is needed to build a client without the shared config loader
type S3ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client creates an S3 client. Empty keys yield anonymous requests.
func NewS3Client(cfg S3ClientConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "grade-platform config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(opts)
}

// NewS3Repository fetches the crosswalk object on every call and decodes it
// as CSV or XLSX depending on its content.
func NewS3Repository(client ObjectGetter, bucket, key, sheet string) *TableRepository {
	source := fmt.Sprintf("s3://%s/%s", bucket, key)
	return &TableRepository{
		source: source,
		load: func(ctx context.Context) ([][]string, error) {
			out, err := client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get object %s: %w", source, err)
			}
			defer out.Body.Close()

			b, err := io.ReadAll(out.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read object %s: %w", source, err)
			}
			return decodeTable(source, b, sheet)
		},
	}
}
