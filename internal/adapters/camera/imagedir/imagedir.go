// Package imagedir es una cámara que lee un frame por archivo de un directorio.
// La usa cmd/qrscan para correr el flujo de escaneo sin navegador.
package imagedir

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"animal-catalog/internal/domain/scanner"
)

var extensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true}

type Camera struct {
	Dir string
}

func New(dir string) *Camera {
	return &Camera{Dir: dir}
}

// Open lista las imágenes del directorio en orden alfabético.
// Directorio inexistente o vacío: no-camera. Sin permisos: permission-denied.
func (c *Camera) Open(ctx context.Context, _ scanner.Constraints) (scanner.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %v", scanner.ErrPermissionDenied, err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %v", scanner.ErrNoCamera, err)
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(c.Dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", scanner.ErrNoCamera, c.Dir)
	}
	sort.Strings(files)

	return &stream{files: files, tracks: 1}, nil
}

type stream struct {
	mu     sync.Mutex
	files  []string
	next   int
	tracks int
}

func (s *stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = 0
}

func (s *stream) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks
}

// NextFrame salta los archivos que no se pueden decodificar como imagen.
func (s *stream) NextFrame(ctx context.Context) (image.Image, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.tracks == 0 || s.next >= len(s.files) {
			s.mu.Unlock()
			return nil, io.EOF
		}
		path := s.files[s.next]
		s.next++
		s.mu.Unlock()

		img, err := decodeFile(path)
		if err != nil {
			continue
		}
		return img, nil
	}
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
