package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/fx"

	mem "animal-catalog/internal/adapters/storage/memory"
	pg "animal-catalog/internal/adapters/storage/postgres"
	"animal-catalog/internal/adapters/supabase"
	"animal-catalog/internal/config"
	"animal-catalog/internal/domain/account"
	"animal-catalog/internal/domain/animals"
	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/platform/metrics"
	"animal-catalog/internal/platform/token"
	"animal-catalog/internal/ports/auth"
)

// Backend agrupa los adapters elegidos por config.Backend.Driver.
type Backend struct {
	Auth     auth.Authenticator
	Animals  animals.Repository
	Blobs    animals.BlobStore
	Profiles account.Repository

	// BlobHandler sólo existe con el blob store en memoria.
	BlobHandler http.Handler
}

type backendParams struct {
	fx.In

	LC      fx.Lifecycle
	Config  *config.Config
	Log     logger.Logger
	Metrics *metrics.Metrics
}

func NewBackend(p backendParams) (Backend, error) {
	cfg := p.Config
	log := p.Log.With(map[string]any{"driver": cfg.Backend.Driver})

	switch cfg.Backend.Driver {
	case config.DriverSupabase:
		client, err := supabase.NewClient(supabase.Config{
			URL:         cfg.Backend.Supabase.URL,
			AnonKey:     cfg.Backend.Supabase.AnonKey,
			PhotoBucket: cfg.Backend.Supabase.PhotoBucket,
			MapBucket:   cfg.Backend.Supabase.MapBucket,
			Timeout:     cfg.Backend.Supabase.Timeout,
			Observe:     p.Metrics.ObserveBackend,
		})
		if err != nil {
			return Backend{}, err
		}
		log.Info("backend ready", map[string]any{"url": cfg.Backend.Supabase.URL})
		return Backend{
			Auth:     supabase.NewAuth(client),
			Animals:  supabase.NewAnimalsRepo(client),
			Blobs:    supabase.NewStorage(client),
			Profiles: supabase.NewProfilesRepo(client),
		}, nil

	case config.DriverPostgres:
		db, err := pg.Open(cfg.Backend.DSN)
		if err != nil {
			return Backend{}, fmt.Errorf("open postgres: %w", err)
		}
		p.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error { return migrate(ctx, db, log) },
			OnStop:  func(context.Context) error { return db.Close() },
		})

		b, err := localBackend(cfg, log)
		if err != nil {
			return Backend{}, err
		}
		b.Animals = pg.NewAnimalsRepo(db)
		b.Profiles = pg.NewProfilesRepo(db)
		return b, nil

	default:
		return localBackend(cfg, log)
	}
}

func migrate(ctx context.Context, db *sql.DB, log logger.Logger) error {
	if err := pg.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema ready", nil)
	return nil
}

// localBackend: auth, registros y archivos en memoria, con los usuarios de DEV_USERS.
func localBackend(cfg *config.Config, log logger.Logger) (Backend, error) {
	a := mem.NewAuth(token.NewManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL))
	for _, u := range cfg.Auth.DevUsers {
		if _, err := a.AddUser(u.Email, u.Password); err != nil {
			return Backend{}, fmt.Errorf("dev user %s: %w", u.Email, err)
		}
	}
	if len(cfg.Auth.DevUsers) == 0 {
		log.Warn("no dev users configured; nobody can sign in", nil)
	}

	blobs := mem.NewBlobStore(cfg.Server.PublicBaseURL)
	return Backend{
		Auth:        a,
		Animals:     mem.NewAnimalsRepo(),
		Blobs:       blobs,
		Profiles:    mem.NewProfilesRepo(),
		BlobHandler: blobs,
	}, nil
}
