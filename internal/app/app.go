// Package app arma la aplicación con fx: config, logger, backend, sesión,
// escáner y servidor HTTP, cada uno con sus hooks de ciclo de vida.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"animal-catalog/internal/adapters/camera/browser"
	"animal-catalog/internal/adapters/qrcode"
	"animal-catalog/internal/config"
	"animal-catalog/internal/domain/scanner"
	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/platform/metrics"
	"animal-catalog/internal/router"
	"animal-catalog/internal/session"
)

// Module son todos los providers; New le suma la config y los invokes.
var Module = fx.Options(
	fx.Provide(
		newZap,
		logger.FromZap,
		metrics.New,
		NewBackend,
		newSessionStore,
		newHolder,
		newRegistry,
		newHandler,
		newServer,
	),
)

func New(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		Module,
		fx.WithLogger(func(z *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: z}
		}),
		fx.Invoke(registerHooks),
	)
}

func newZap(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewZap(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "animal-catalog",
	})
}

func newSessionStore(cfg *config.Config) *session.Store {
	return session.NewStore(session.StoreOptions{
		Lifetime:     cfg.Session.Lifetime,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
	})
}

func newHolder(cfg *config.Config, b Backend, log logger.Logger) *session.Holder {
	return session.NewHolder(b.Auth, log, session.HolderOptions{
		ResolveTimeout: cfg.Session.ResolveTimeout,
		Revalidate:     cfg.Session.Revalidate,
	})
}

func newRegistry(cfg *config.Config, m *metrics.Metrics) *scanner.Registry {
	devices := browser.NewDevices()
	return scanner.NewRegistry(scanner.RegistryOptions{
		Camera:      devices.Camera,
		Decoder:     qrcode.NewDecoder(),
		Observer:    m,
		IdleTimeout: cfg.Scanner.IdleTimeout,
		Heartbeat:   5 * cfg.Scanner.FrameInterval,
	})
}

type handlerParams struct {
	fx.In

	Config   *config.Config
	Log      logger.Logger
	Metrics  *metrics.Metrics
	Backend  Backend
	Store    *session.Store
	Holder   *session.Holder
	Registry *scanner.Registry
}

func newHandler(p handlerParams) (http.Handler, error) {
	return router.NewRouter(router.Options{
		Log:           p.Log,
		Metrics:       p.Metrics,
		Auth:          p.Backend.Auth,
		Animals:       p.Backend.Animals,
		Blobs:         p.Backend.Blobs,
		Profiles:      p.Backend.Profiles,
		BlobHandler:   p.Backend.BlobHandler,
		Store:         p.Store,
		Holder:        p.Holder,
		Registry:      p.Registry,
		PublicBaseURL: p.Config.Server.PublicBaseURL,
		CORSOrigins:   p.Config.Server.CORSOrigins,
		FrameInterval: p.Config.Scanner.FrameInterval,
	})
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// registerHooks: el holder se suscribe antes de atender requests y el
// servidor se apaga antes de cerrar los flujos de escaneo.
func registerHooks(lc fx.Lifecycle, cfg *config.Config, log logger.Logger, holder *session.Holder, reg *scanner.Registry, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: holder.Start,
		OnStop:  holder.Stop,
	})
	lc.Append(fx.Hook{
		OnStart: reg.Start,
		OnStop:  reg.Stop,
	})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting server", map[string]any{"addr": srv.Addr, "driver": cfg.Backend.Driver})
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server error", map[string]any{"err": err})
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
