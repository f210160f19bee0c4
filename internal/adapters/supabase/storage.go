package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"animal-catalog/internal/domain/animals"
)

// Storage implementa animals.BlobStore sobre /storage/v1.
type Storage struct {
	client *Client
}

func NewStorage(client *Client) *Storage {
	return &Storage{client: client}
}

func (s *Storage) Upload(ctx context.Context, bucket animals.Bucket, path, contentType string, r io.Reader) (string, error) {
	name, err := s.client.bucket(bucket)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	objectPath := escapePath(path)
	headers := s.client.bearer(ctx)
	headers["x-upsert"] = "false"

	if _, err := s.client.http.DoRaw(ctx, http.MethodPost, "/storage/v1/object/"+escapePath(name)+"/"+objectPath, headers, r, contentType); err != nil {
		return "", wrap("upload object", err)
	}
	return path, nil
}

func (s *Storage) PublicURL(bucket animals.Bucket, path string) string {
	name, err := s.client.bucket(bucket)
	if err != nil {
		name = string(bucket)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.client.baseURL, escapePath(name), escapePath(path))
}
