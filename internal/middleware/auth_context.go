package middleware

import (
	"net/http"

	"animal-catalog/internal/platform/logger"
	"animal-catalog/internal/ports/auth"
	"animal-catalog/internal/session"
)

// SessionContext resuelve la sesión del navegador una vez por request:
// - lee la sesión guardada en el store (cookie opaca)
// - el holder decide authenticated / anonymous / unknown
// - aplica al store el refresh o el borrado que haga falta
// - deja el State y el access token en el contexto
//
// No corta el request; el guard de cada ruta decide qué mostrar.
// Debe ir dentro de store.Wrap.
func SessionContext(store *session.Store, holder *session.Holder, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			stored, ok := store.Get(ctx)
			res := holder.Resolve(ctx, stored, ok)

			switch {
			case res.Replace != nil:
				store.Replace(ctx, *res.Replace)
			case res.Clear:
				store.Remove(ctx)
			}

			ctx = session.WithState(ctx, res.State)
			if res.State.Status == session.StatusAuthenticated {
				ctx = auth.WithAccessToken(ctx, res.State.Session.AccessToken)
			}
			if res.State.Status == session.StatusUnknown {
				log.Debug("session unresolved", map[string]any{"path": r.URL.Path})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
