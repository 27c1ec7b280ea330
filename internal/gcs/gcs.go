// Package gcs moves dataset snapshots and report exports in and out of Google
// Cloud Storage. It assumes Application Default Credentials are configured.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// StorageService abstracts object storage so sources and exporters can be
// tested without a live bucket.
type StorageService interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
	Upload(ctx context.Context, bucketName, objectName, filePath string) error
}

// Client is the GCS-backed StorageService.
type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return Fetch(ctx, uri)
}

func (c *Client) Upload(ctx context.Context, bucketName, objectName, filePath string) error {
	return Upload(ctx, bucketName, objectName, filePath)
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object name.
func ParseURI(uri string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if trimmed == uri {
		return "", "", fmt.Errorf("gcs: uri %q does not start with gs://", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("gcs: uri %q is missing bucket or object", uri)
	}
	return parts[0], parts[1], nil
}

// Fetch downloads the object bytes at the given gs:// URI.
func Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read object: %w", err)
	}
	return data, nil
}

// Upload copies a local file into a bucket under the given object name.
func Upload(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("gcs: open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("gcs: copy file to object writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: finalize upload: %w", err)
	}
	return nil
}
