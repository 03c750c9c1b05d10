package gcsuploader

import (
	"context"
	"fmt"
	"io"
)

// Fetch downloads the object bytes behind a gs:// URI.
func (s *GCSBlobStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucketName, objectPath, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := s.client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	return data, nil
}
