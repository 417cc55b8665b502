package load

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
)

const defaultS3Region = "us-east-1"

// ObjectPutter is the part of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader copies output artifacts to a bucket under a key prefix.
type S3Uploader struct {
	Client ObjectPutter
	Bucket string
	Prefix string
	Logger *slog.Logger
}

// NewS3Uploader returns nil when no bucket is configured.
func NewS3Uploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Uploader, error) {
	s3cfg := cfg.Artifacts.S3
	if s3cfg.Bucket == "" {
		return nil, nil
	}
	region := s3cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = true // Required for MinIO compatibility
		},
	}
	if s3cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.EndpointURL)
		})
	}

	return &S3Uploader{
		Client: s3.NewFromConfig(awsCfg, clientOpts...),
		Bucket: s3cfg.Bucket,
		Prefix: s3cfg.Prefix,
		Logger: logger,
	}, nil
}

// Key is the object key a local file is uploaded under for one run.
func (u *S3Uploader) Key(runID, file string) string {
	return path.Join(u.Prefix, runID, filepath.Base(file))
}

// UploadFiles uploads each file and returns the object keys.
func (u *S3Uploader) UploadFiles(ctx context.Context, runID string, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := u.Key(runID, file)
		if err := u.upload(ctx, file, key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	u.Logger.Info(fmt.Sprintf("Uploaded %d artifacts to s3://%s/%s", len(keys), u.Bucket, path.Join(u.Prefix, runID)))
	return keys, nil
}

func (u *S3Uploader) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	if _, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", file, u.Bucket, key, err)
	}
	return nil
}
