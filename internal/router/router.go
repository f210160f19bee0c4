package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "animal-catalog/docs"
	"animal-catalog/internal/adapters/camera/browser"
	"animal-catalog/internal/adapters/qrcode"
	mem "animal-catalog/internal/adapters/storage/memory"
	"animal-catalog/internal/domain/account"
	"animal-catalog/internal/domain/animals"
	"animal-catalog/internal/domain/scanner"
	"animal-catalog/internal/middleware"
	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/platform/metrics"
	"animal-catalog/internal/platform/token"
	"animal-catalog/internal/ports/auth"
	"animal-catalog/internal/session"
	"animal-catalog/internal/views"
	"animal-catalog/internal/web"
)

type Options struct {
	Log     logger.Logger
	Metrics *metrics.Metrics

	// Backend. Lo que venga nil se completa con los adapters en memoria.
	Auth     auth.Authenticator
	Animals  animals.Repository
	Blobs    animals.BlobStore
	Profiles account.Repository

	// BlobHandler sirve /blobs/{bucket}/* (sólo el blob store en memoria).
	BlobHandler http.Handler

	Store    *session.Store
	Holder   *session.Holder
	Registry *scanner.Registry

	PublicBaseURL string
	CORSOrigins   []string
	FrameInterval time.Duration
}

func NewRouter(opts Options) (http.Handler, error) {
	if err := withDefaults(&opts); err != nil {
		return nil, err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	v := views.New(renderer, opts.Store, opts.Log)
	guard := session.Guard{
		LoginPath:   "/login",
		Placeholder: v.Placeholder(),
		NotFound:    v.NotFound(),
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(opts.Log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Handle("/static/*", web.Static())
	if opts.BlobHandler != nil {
		r.Method(http.MethodGet, "/blobs/{bucket}/*", opts.BlobHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	animalsSvc := animals.NewService(opts.Animals, opts.Blobs)
	accountSvc := account.NewService(opts.Profiles)

	// API JSON: sin cookie de sesión; el backend ve el anon key.
	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		animals.RegisterAPIRoutes(ar, animalsSvc)
		scanner.RegisterAPIRoutes(ar)
	})

	// Pantallas: sesión del navegador + estado resuelto por request.
	r.Group(func(pr chi.Router) {
		pr.Use(opts.Store.Wrap)
		pr.Use(middleware.SessionContext(opts.Store, opts.Holder, opts.Log))

		account.RegisterRoutes(pr, accountSvc, account.HandlerOptions{Views: v, Guard: guard, Auth: opts.Auth})
		animals.RegisterRoutes(pr, animalsSvc, animals.HandlerOptions{
			Views:         v,
			Guard:         guard,
			PublicBaseURL: opts.PublicBaseURL,
			QR:            qrcode.WritePNG,
		})
		scanner.RegisterRoutes(pr, scanner.HandlerOptions{
			Views:         v,
			Guard:         guard,
			Registry:      opts.Registry,
			FrameInterval: opts.FrameInterval,
		})

		pr.NotFound(guard.Unmatched().ServeHTTP)
	})

	return r, nil
}

func withDefaults(opts *Options) error {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Auth == nil {
		opts.Auth = mem.NewAuth(token.NewManager("dev-secret-change-me", time.Hour))
	}
	if opts.Animals == nil {
		opts.Animals = mem.NewAnimalsRepo()
	}
	if opts.Blobs == nil {
		blobs := mem.NewBlobStore(opts.PublicBaseURL)
		opts.Blobs = blobs
		if opts.BlobHandler == nil {
			opts.BlobHandler = blobs
		}
	}
	if opts.Profiles == nil {
		opts.Profiles = mem.NewProfilesRepo()
	}
	if opts.Store == nil {
		opts.Store = session.NewStore(session.StoreOptions{})
	}
	if opts.Holder == nil {
		opts.Holder = session.NewHolder(opts.Auth, opts.Log, session.HolderOptions{})
		if err := opts.Holder.Start(context.Background()); err != nil {
			return err
		}
	}
	if opts.Registry == nil {
		devices := browser.NewDevices()
		var obs scanner.Observer
		if opts.Metrics != nil {
			obs = opts.Metrics
		}
		opts.Registry = scanner.NewRegistry(scanner.RegistryOptions{
			Camera:   devices.Camera,
			Decoder:  qrcode.NewDecoder(),
			Observer: obs,
		})
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return nil
}
