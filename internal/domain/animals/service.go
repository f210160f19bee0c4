package animals

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	ErrUpload               = errors.New("image upload failed")
)

type Service struct {
	repo  Repository
	blobs BlobStore
	newID func() string
}

func NewService(repo Repository, blobs BlobStore) *Service {
	return &Service{
		repo:  repo,
		blobs: blobs,
		newID: uuid.NewString,
	}
}

// Upload es un archivo elegido en el formulario.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type SaveInput struct {
	Fields Fields

	// nil = conservar la imagen actual (en edición) o ninguna (en alta).
	Photo *Upload
	Map   *Upload
}

func (s *Service) Create(ctx context.Context, in SaveInput) (Animal, error) {
	f, err := normalize(in.Fields)
	if err != nil {
		return Animal{}, err
	}

	var a Animal
	a.apply(f)

	// Primero las imágenes; el registro sólo se escribe con las URLs ya resueltas.
	if err := s.uploadImages(ctx, &a, in); err != nil {
		return Animal{}, err
	}

	return s.repo.Insert(ctx, a)
}

func (s *Service) Update(ctx context.Context, id string, in SaveInput) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrInvalidInput
	}
	f, err := normalize(in.Fields)
	if err != nil {
		return Animal{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}

	current.apply(f)
	if err := s.uploadImages(ctx, &current, in); err != nil {
		return Animal{}, err
	}

	return s.repo.Update(ctx, current)
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Animal, error) {
	return s.repo.ListByName(ctx)
}

// Delete no llama al backend si el usuario no confirmó.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) uploadImages(ctx context.Context, a *Animal, in SaveInput) error {
	if in.Photo != nil {
		u, err := s.upload(ctx, BucketPhotos, *in.Photo)
		if err != nil {
			return err
		}
		a.ImageURL = u
	}
	if in.Map != nil {
		u, err := s.upload(ctx, BucketMaps, *in.Map)
		if err != nil {
			return err
		}
		a.MapURL = u
	}
	return nil
}

func (s *Service) upload(ctx context.Context, bucket Bucket, up Upload) (string, error) {
	if up.Body == nil {
		return "", ErrInvalidInput
	}
	ct := strings.TrimSpace(up.ContentType)
	if ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", ErrInvalidInput, ct)
	}

	objectPath := s.newID() + "-" + cleanFilename(up.Filename)
	if _, err := s.blobs.Upload(ctx, bucket, objectPath, ct, up.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return s.blobs.PublicURL(bucket, objectPath), nil
}

// normalize sólo exige nome_comum no vacío; los textos se guardan tal como llegaron.
func normalize(f Fields) (Fields, error) {
	if strings.TrimSpace(f.CommonName) == "" {
		return Fields{}, fmt.Errorf("%w: nome_comum is required", ErrInvalidInput)
	}
	return f, nil
}

// cleanFilename deja sólo el nombre base y reemplaza lo que no es seguro en una key de objeto.
func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
