package scanner

import (
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"animal-catalog/internal/session"
	"animal-catalog/internal/views"
)

const (
	msgManualInvalid = "Código inválido. Digite o identificador do animal."
	msgFlowExpired   = "A leitura expirou. Recarregue a página."
	maxFrameBytes    = 5 << 20
)

type HandlerOptions struct {
	Views    *views.Views
	Guard    session.Guard
	Registry *Registry

	// FrameInterval entre capturas que manda la página. Default 400ms.
	FrameInterval time.Duration
}

func RegisterRoutes(r chi.Router, opts HandlerOptions) {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 400 * time.Millisecond
	}

	r.Group(func(pr chi.Router) {
		pr.Use(opts.Guard.Require(session.Public))

		pr.Get("/qr-scanner", scannerPageHandler(opts))
		pr.Post("/qr-scanner/manual", manualHandler(opts))

		pr.Route("/qr-scanner/{scanID}", func(sr chi.Router) {
			sr.Post("/acquire", acquireHandler(opts.Registry, opts.Views))
			sr.Post("/fail", failHandler(opts.Registry, opts.Views))
			sr.Post("/frames", frameHandler(opts.Registry, opts.Views))
			sr.Post("/retry", retryHandler(opts.Registry, opts.Views))
			sr.Post("/release", releaseHandler(opts.Registry, opts.Views))
		})
	})
}

type pageData struct {
	Snapshot        Snapshot
	FrameIntervalMs int64
	ManualID        string
}

// flowResponse es lo que lee scanner.js después de cada paso.
type flowResponse struct {
	State        State           `json:"state"`
	IsError      bool            `json:"is_error"`
	ErrorKind    CameraErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ActiveTracks int             `json:"active_tracks"`

	Outcome Outcome `json:"outcome,omitempty"`
	Path    string  `json:"path,omitempty"`
	Message string  `json:"message,omitempty"`
}

func toResponse(s Snapshot) flowResponse {
	return flowResponse{
		State:        s.State,
		IsError:      s.State.IsError(),
		ErrorKind:    s.ErrorKind,
		ErrorMessage: s.ErrorMessage,
		ActiveTracks: s.ActiveTracks,
	}
}

// scannerPageHandler abre un flujo nuevo al montar la pantalla (arranque automático).
func scannerPageHandler(opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := opts.Views.Store().BrowserID(r.Context())
		f := opts.Registry.Open(owner)

		data := pageData{Snapshot: f.Snapshot(), FrameIntervalMs: opts.FrameInterval.Milliseconds()}
		opts.Views.Render(w, r, http.StatusOK, "scanner", opts.Views.Page(r, "Leitor de QR Code", data))
	}
}

func lookup(reg *Registry, v *views.Views, w http.ResponseWriter, r *http.Request) (*Flow, bool) {
	owner := v.Store().BrowserID(r.Context())
	f, err := reg.Get(chi.URLParam(r, "scanID"), owner)
	if err != nil {
		writeJSON(w, http.StatusNotFound, flowResponse{State: StateStopped, ErrorMessage: msgFlowExpired})
		return nil, false
	}
	return f, true
}

func acquireHandler(reg *Registry, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := lookup(reg, v, w, r)
		if !ok {
			return
		}

		if n := reg.Preempt(f.Owner(), f.ID()); n > 0 {
			v.Log().Info("stale scanner preempted", map[string]any{"scan_id": f.ID(), "count": n})
		}
		snap, err := f.Acquire(r.Context())
		if err != nil {
			writeJSON(w, http.StatusConflict, toResponse(snap))
			return
		}
		if snap.State.IsError() {
			v.Log().Info("camera unavailable", map[string]any{"scan_id": f.ID(), "kind": snap.ErrorKind})
		}
		writeJSON(w, http.StatusOK, toResponse(snap))
	}
}

type failRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func failHandler(reg *Registry, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := lookup(reg, v, w, r)
		if !ok {
			return
		}

		var req failRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, toResponse(f.Snapshot()))
			return
		}

		snap, err := f.Fail(CameraErrorFromName(req.Name, req.Message))
		if err != nil {
			writeJSON(w, http.StatusConflict, toResponse(snap))
			return
		}
		v.Log().Info("camera unavailable", map[string]any{"scan_id": f.ID(), "kind": snap.ErrorKind, "name": req.Name})
		writeJSON(w, http.StatusOK, toResponse(snap))
	}
}

func frameHandler(reg *Registry, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := lookup(reg, v, w, r)
		if !ok {
			return
		}

		img, _, err := image.Decode(http.MaxBytesReader(w, r.Body, maxFrameBytes))
		if err != nil {
			// un frame ilegible cuenta como frame sin código
			f.Touch()
			resp := toResponse(f.Snapshot())
			resp.Outcome = OutcomeNoCode
			writeJSON(w, http.StatusOK, resp)
			return
		}

		res, err := f.Frame(r.Context(), img)
		if err != nil {
			writeJSON(w, http.StatusConflict, toResponse(f.Snapshot()))
			return
		}

		resp := toResponse(f.Snapshot())
		resp.Outcome = res.Outcome
		resp.Path = res.Path
		resp.Message = res.Message
		writeJSON(w, http.StatusOK, resp)
	}
}

func retryHandler(reg *Registry, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := lookup(reg, v, w, r)
		if !ok {
			return
		}
		if err := f.Retry(); err != nil {
			writeJSON(w, http.StatusConflict, toResponse(f.Snapshot()))
			return
		}
		writeJSON(w, http.StatusOK, toResponse(f.Snapshot()))
	}
}

// releaseHandler llega por sendBeacon al salir de la página.
func releaseHandler(reg *Registry, v *views.Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Close(chi.URLParam(r, "scanID"), v.Store().BrowserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// manualHandler navega con un id escrito a mano. Sin flujo vigente igual navega.
func manualHandler(opts HandlerOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		owner := opts.Views.Store().BrowserID(r.Context())
		scanID := r.PostForm.Get("scan")
		id := r.PostForm.Get("id")

		f, err := opts.Registry.Get(scanID, owner)
		if err != nil {
			f = NewFlow(FlowOptions{})
		}

		res, err := f.Manual(id)
		if errors.Is(err, ErrInvalidTransition) {
			// el flujo ya terminó (otra pestaña navegó); el id sigue valiendo
			res, err = NewFlow(FlowOptions{}).Manual(id)
		}
		if err != nil {
			// la página vuelve a montarse con un flujo nuevo
			opts.Registry.Close(scanID, owner)
			nf := opts.Registry.Open(owner)
			data := pageData{Snapshot: nf.Snapshot(), FrameIntervalMs: opts.FrameInterval.Milliseconds(), ManualID: id}
			opts.Views.Fail(w, r, http.StatusUnprocessableEntity, "scanner", opts.Views.Page(r, "Leitor de QR Code", data), msgManualInvalid, nil)
			return
		}

		opts.Registry.Close(scanID, owner)
		http.Redirect(w, r, res.Path, http.StatusSeeOther)
	}
}

// RegisterAPIRoutes monta la resolución de payloads bajo /api.
func RegisterAPIRoutes(r chi.Router) {
	r.Post("/scan/resolve", resolveHandler())
}

type resolveRequest struct {
	Payload string `json:"payload"`
}

type resolveResponse struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// resolveHandler godoc
// @Summary Resolver un QR
// @Description Convierte el texto leído de un QR en el id del animal y la ruta de la ficha.
// @Tags scan
// @Accept json
// @Produce json
// @Param body body resolveRequest true "Texto decodificado"
// @Success 200 {object} resolveResponse
// @Failure 400 {object} errorResponse "JSON inválido"
// @Failure 422 {object} errorResponse "payload no reconocido"
// @Router /scan/resolve [post]
func resolveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8192)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
			return
		}

		id, err := ParsePayload(req.Payload)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, resolveResponse{ID: id, Path: DetailsPath(id)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
