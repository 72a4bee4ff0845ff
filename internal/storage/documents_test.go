package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// newTestDocumentStore builds a store against static credentials; presigning
// is a local signing operation, so no bucket has to exist.
func newTestDocumentStore() *S3DocumentStore {
	awsCfg := aws.Config{
		Region: "us-east-1",
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIATESTKEY", SecretAccessKey: "testsecret"}, nil
		}),
	}

	return &S3DocumentStore{
		presigner: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:    "identity-documents",
		ttl:       15 * time.Minute,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestS3DocumentStore_PresignDocument(t *testing.T) {
	store := newTestDocumentStore()

	url, err := store.PresignDocument(context.Background(), "verification/u1/id.jpg")
	if err != nil {
		t.Fatalf("PresignDocument returned error: %v", err)
	}

	if !strings.HasPrefix(url, "https://") {
		t.Errorf("presigned URL %q is not https", url)
	}
	if !strings.Contains(url, "identity-documents") {
		t.Errorf("presigned URL %q does not reference the bucket", url)
	}
	if !strings.Contains(url, "verification/u1/id.jpg") {
		t.Errorf("presigned URL %q does not reference the object key", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("presigned URL %q is unsigned", url)
	}
}

func TestS3DocumentStore_PresignDocument_TTLApplied(t *testing.T) {
	store := newTestDocumentStore()

	url, err := store.PresignDocument(context.Background(), "verification/u1/selfie.jpg")
	if err != nil {
		t.Fatalf("PresignDocument returned error: %v", err)
	}

	if !strings.Contains(url, "X-Amz-Expires=900") {
		t.Errorf("presigned URL %q does not carry the 15 minute expiry", url)
	}
}
