package gcsuploader

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// GCSBlobStore is the BlobStore backed by a Google Cloud Storage bucket. It
// assumes Application Default Credentials are configured.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore creates a store for bucket with a shared storage client.
func NewGCSBlobStore(ctx context.Context, bucket string) (*GCSBlobStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSBlobStore: create storage client: %w", err)
	}
	return &GCSBlobStore{client: client, bucket: bucket}, nil
}

// Close closes the storage client.
func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

// Upload writes data to the bucket under objectName.
func (s *GCSBlobStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: write %s: %w", objectName, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalize %s: %w", objectName, err)
	}

	return BuildURI(s.bucket, objectName), nil
}

// BuildURI returns the gs:// URI of an object.
func BuildURI(bucket, objectName string) string {
	return "gs://" + bucket + "/" + strings.TrimPrefix(objectName, "/")
}

// ParseURI splits a gs:// URI into bucket and object path.
func ParseURI(uri string) (bucket, object string, err error) {
	// uri example: gs://my-bucket/uploads/2024/statement.csv
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.pdf" → "file.pdf"
func ExtractFilenameFromURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}

	return path.Base(parts[1])
}

// ObjectName builds the staging object name of an upload.
func ObjectName(userID, uploadID, filename string) string {
	return path.Join("uploads", userID, uploadID, path.Base(filename))
}
