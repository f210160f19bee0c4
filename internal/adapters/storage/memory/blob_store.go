package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"animal-catalog/internal/domain/animals"
)

const maxBlob = 10 << 20

type blob struct {
	contentType string
	data        []byte
}

// BlobStore guarda las imágenes en memoria y las sirve en <baseURL>/blobs/{bucket}/{path}.
type BlobStore struct {
	baseURL string

	mu    sync.RWMutex
	blobs map[string]blob
}

func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		blobs:   make(map[string]blob),
	}
}

func key(bucket, path string) string {
	return bucket + "/" + strings.TrimLeft(path, "/")
}

func (s *BlobStore) Upload(ctx context.Context, bucket animals.Bucket, path, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, maxBlob)); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key(string(bucket), path)] = blob{contentType: contentType, data: buf.Bytes()}
	return path, nil
}

func (s *BlobStore) PublicURL(bucket animals.Bucket, path string) string {
	return s.baseURL + "/blobs/" + key(string(bucket), path)
}

// ServeHTTP espera la ruta montada como /blobs/{bucket}/*.
func (s *BlobStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	k := key(chi.URLParam(r, "bucket"), chi.URLParam(r, "*"))

	s.mu.RLock()
	b, ok := s.blobs[k]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if b.contentType != "" {
		w.Header().Set("Content-Type", b.contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(b.data)
}
