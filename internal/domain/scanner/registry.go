package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrFlowNotFound = errors.New("scanner session not found")

type RegistryOptions struct {
	// Camera devuelve la cámara de un dueño (sesión de navegador).
	Camera   func(owner string) Camera
	Decoder  Decoder
	Observer Observer

	// IdleTimeout: un flujo sin actividad se cierra y se descarta. Default 2m.
	IdleTimeout time.Duration

	// Heartbeat: un flujo en streaming que no manda frames por más de esto
	// pierde la cámara cuando otro flujo del mismo dueño la pide. Default 2s.
	Heartbeat time.Duration
}

// Registry guarda los flujos activos por id.
type Registry struct {
	opts RegistryOptions
	now  func() time.Time

	mu    sync.Mutex
	flows map[string]*Flow

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 2 * time.Second
	}
	return &Registry{
		opts:  opts,
		now:   time.Now,
		flows: make(map[string]*Flow),
	}
}

// Open crea un flujo para owner y lo deja en requesting-camera (arranque automático).
func (r *Registry) Open(owner string) *Flow {
	r.Preempt(owner, "")

	var cam Camera
	if r.opts.Camera != nil {
		cam = r.opts.Camera(owner)
	}

	f := NewFlow(FlowOptions{
		ID:          uuid.NewString(),
		Owner:       owner,
		Camera:      cam,
		Decoder:     r.opts.Decoder,
		Constraints: Constraints{Facing: FacingEnvironment},
		Observer:    r.opts.Observer,
	})
	f.now = r.now
	f.lastSeen = r.now()
	_ = f.Begin()

	r.mu.Lock()
	r.flows[f.ID()] = f
	r.mu.Unlock()
	return f
}

// Get devuelve el flujo sólo si pertenece a owner.
func (r *Registry) Get(id, owner string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[id]
	if !ok || f.Owner() != owner {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// Close cierra y descarta el flujo (pantalla desmontada). Idempotente.
func (r *Registry) Close(id, owner string) {
	r.mu.Lock()
	f, ok := r.flows[id]
	if ok && f.Owner() == owner {
		delete(r.flows, id)
	}
	r.mu.Unlock()

	if ok && f.Owner() == owner {
		f.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Preempt cierra los flujos de owner (salvo keep) que siguen en streaming
// sin frames desde hace más de Heartbeat: la página que los manejaba ya no
// está y el aviso de release se perdió. Devuelve cuántos cerró.
func (r *Registry) Preempt(owner, keep string) int {
	now := r.now()

	r.mu.Lock()
	var stale []*Flow
	for id, f := range r.flows {
		if id == keep || f.Owner() != owner {
			continue
		}
		if f.Snapshot().State == StateStreaming && now.Sub(f.LastSeen()) > r.opts.Heartbeat {
			stale = append(stale, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// Reap cierra los flujos inactivos o ya terminados y devuelve cuántos quitó.
func (r *Registry) Reap() int {
	now := r.now()

	r.mu.Lock()
	var stale []*Flow
	for id, f := range r.flows {
		snap := f.Snapshot()
		if snap.State == StateStopped || now.Sub(f.LastSeen()) > r.opts.IdleTimeout {
			stale = append(stale, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}

// Start lanza el reaper periódico. Stop lo detiene y cierra todos los flujos.
func (r *Registry) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return nil
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	interval := r.opts.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	go r.loop(interval, r.stop, r.done)
	return nil
}

func (r *Registry) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			r.Reap()
		}
	}
}

func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	flows := r.flows
	r.flows = make(map[string]*Flow)
	r.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}

	if stop == nil {
		return nil
	}
	close(stop)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
