package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"animal-catalog/internal/domain/animals"
	"animal-catalog/internal/platform/httpclient"
	"animal-catalog/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("supabase client not configured")
	ErrUnauthorized  = errors.New("supabase unauthorized")
	ErrUpstream      = errors.New("supabase upstream error")
)

// Config del cliente Supabase.
// URL y AnonKey normalmente vienen de SUPABASE_URL / SUPABASE_ANON_KEY.
type Config struct {
	URL     string
	AnonKey string

	// Nombres reales de los buckets de storage.
	// Si están vacíos se usan "animais.fotos" y "animais.mapas".
	PhotoBucket string
	MapBucket   string

	// Timeout HTTP (si es 0 se usa el de httpclient).
	Timeout time.Duration

	// Opcional: métricas por request.
	Observe httpclient.ObserveFunc
}

// Client es la conexión compartida por los adapters de auth, tablas y storage.
type Client struct {
	baseURL string
	anonKey string
	buckets map[animals.Bucket]string
	http    *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	anonKey := strings.TrimSpace(cfg.AnonKey)
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}

	hc, err := httpclient.NewWithBaseURL(baseURL, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("supabase: %w", err)
	}
	hc.Headers = map[string]string{"apikey": anonKey}
	hc.Observe = cfg.Observe

	photos := strings.TrimSpace(cfg.PhotoBucket)
	if photos == "" {
		photos = "animais.fotos"
	}
	maps := strings.TrimSpace(cfg.MapBucket)
	if maps == "" {
		maps = "animais.mapas"
	}

	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		buckets: map[animals.Bucket]string{
			animals.BucketPhotos: photos,
			animals.BucketMaps:   maps,
		},
		http: hc,
	}, nil
}

// bearer usa el token del usuario si el request lo trae; si no, la anon key
// (las políticas RLS del backend deciden qué puede leer un anónimo).
func (c *Client) bearer(ctx context.Context) map[string]string {
	tok, ok := auth.AccessToken(ctx)
	if !ok {
		tok = c.anonKey
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func (c *Client) bucket(b animals.Bucket) (string, error) {
	name, ok := c.buckets[b]
	if !ok {
		return "", fmt.Errorf("supabase: unknown bucket %q", b)
	}
	return name, nil
}

// wrap traduce errores del transporte a los errores del paquete.
func wrap(op string, err error) error {
	switch httpclient.StatusOf(err) {
	case 401, 403:
		return fmt.Errorf("%s: %w: %v", op, ErrUnauthorized, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
	}
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
