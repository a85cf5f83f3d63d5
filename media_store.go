package accounts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// S3MediaStore uploads local files to an S3 compatible bucket (AWS or
// MinIO behind a custom endpoint) and deletes them by object key. It is
// the production MediaStore; the registration flow only ever sees the
// two-method contract.
type S3MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    Logger
}

var _ MediaStore = (*S3MediaStore)(nil)

// NewS3MediaStore builds the S3 client from the process configuration.
// Credentials are static and supplied at startup, never looked up
// ambiently per request.
func NewS3MediaStore(ctx context.Context, cfg Config, logger Logger) (*S3MediaStore, error) {
	if logger == nil {
		logger = defLogger{}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.GetMediaRegion()),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.GetMediaAccessKey(),
			cfg.GetMediaSecretKey(),
			"",
		)))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to configure media store client")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.GetMediaEndpoint() != "" {
			o.BaseEndpoint = aws.String(cfg.GetMediaEndpoint())
			o.UsePathStyle = true
		}
	})

	endpoint := cfg.GetMediaEndpoint()
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.GetMediaBucket(), cfg.GetMediaRegion())
	} else {
		endpoint = fmt.Sprintf("%s/%s", endpoint, cfg.GetMediaBucket())
	}

	return &S3MediaStore{
		client:    client,
		bucket:    cfg.GetMediaBucket(),
		publicURL: endpoint,
		logger:    logger,
	}, nil
}

// Upload streams the file at localPath to the bucket under a random,
// date-partitioned key. The local file is removed best-effort whether
// the upload succeeds or fails.
func (m *S3MediaStore) Upload(ctx context.Context, localPath string) (*UploadedAsset, error) {
	if localPath == "" {
		return nil, errors.New("local path must not be empty", errors.CategoryBadInput)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to open media file")
	}
	defer f.Close()

	key := mediaStorageKey(filepath.Ext(localPath))

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		m.removeLocalFile(localPath)
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to upload media file")
	}

	m.removeLocalFile(localPath)

	return &UploadedAsset{
		URL:        fmt.Sprintf("%s/%s", m.publicURL, key),
		ProviderID: key,
	}, nil
}

// removeLocalFile drops the spooled request file whether or not the
// upload made it, so temp dirs do not accumulate across failed requests
func (m *S3MediaStore) removeLocalFile(localPath string) {
	if err := os.Remove(localPath); err != nil {
		m.logger.Warn("failed to remove local media file %s: %v", localPath, err)
	}
}

// Delete removes an uploaded object by key
func (m *S3MediaStore) Delete(ctx context.Context, providerID string) error {
	if providerID == "" {
		return errors.New("provider id must not be empty", errors.CategoryBadInput)
	}

	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(providerID),
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to delete media file")
	}

	return nil
}

func mediaStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
