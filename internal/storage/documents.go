package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	lotconfig "github.com/DevinHarlan/lotboard/internal/config"
)

// DocumentStore resolves short-lived URLs for identity documents so admins
// can view submissions without the objects ever being public.
type DocumentStore interface {
	PresignDocument(ctx context.Context, key string) (string, error)
}

// S3DocumentStore serves identity documents from a private S3 bucket via
// presigned GET URLs.
type S3DocumentStore struct {
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
	logger    *slog.Logger
}

func NewS3DocumentStore(cfg lotconfig.DocumentsConfig, logger *slog.Logger) (*S3DocumentStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return &S3DocumentStore{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		ttl:       cfg.PresignTTL,
		logger:    logger,
	}, nil
}

// PresignDocument returns a time-limited GET URL for the given object key.
func (s *S3DocumentStore) PresignDocument(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.Error("failed to presign document",
			slog.String("key", key),
			slog.Any("error", err))
		return "", fmt.Errorf("failed to presign document: %w", err)
	}

	return req.URL, nil
}
