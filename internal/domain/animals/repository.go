package animals

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound lo devuelven todos los adapters cuando el id no existe.
	ErrNotFound = errors.New("animal not found")
)

type Repository interface {
	// Insert guarda un registro nuevo; el id lo genera el backend si viene vacío.
	Insert(ctx context.Context, a Animal) (Animal, error)
	Update(ctx context.Context, a Animal) (Animal, error)
	GetByID(ctx context.Context, id string) (Animal, error)
	// ListByName ordena por nome_comum ascendente.
	ListByName(ctx context.Context) ([]Animal, error)
	Delete(ctx context.Context, id string) error
}

type Bucket string

const (
	BucketPhotos Bucket = "photos"
	BucketMaps   Bucket = "maps"
)

// BlobStore sube imágenes y resuelve su URL pública.
type BlobStore interface {
	Upload(ctx context.Context, bucket Bucket, path string, contentType string, r io.Reader) (string, error)
	PublicURL(bucket Bucket, path string) string
}
