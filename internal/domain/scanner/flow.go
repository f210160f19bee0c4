package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid scanner transition")
	ErrNotStreaming      = errors.New("scanner is not streaming")
	ErrNoSource          = errors.New("camera stream does not produce frames")
	ErrSourceExhausted   = errors.New("no code found before the source ended")
)

const invalidCodeMessage = "Código inválido. Aponte a câmera para o QR Code de um animal."

// Result es la respuesta a un frame o a una entrada manual.
type Result struct {
	Outcome Outcome
	// Path es el destino cuando Outcome es navigate o manual.
	Path string
	// Message es transitorio (código inválido).
	Message string
}

// Snapshot es la vista de sólo lectura del flujo.
type Snapshot struct {
	ID           string
	State        State
	Constraints  Constraints
	ErrorKind    CameraErrorKind
	ErrorMessage string
	Target       string
	ActiveTracks int
}

type FlowOptions struct {
	ID          string
	Owner       string
	Camera      Camera
	Decoder     Decoder
	Constraints Constraints
	Observer    Observer
}

// Flow es una sesión de escaneo. Es dueño exclusivo del Stream:
// todo camino de salida (navegación, error, Manual, Close) lo libera bajo mu.
type Flow struct {
	id          string
	owner       string
	camera      Camera
	decoder     Decoder
	constraints Constraints
	obs         Observer
	now         func() time.Time

	mu       sync.Mutex
	state    State
	stream   Stream
	camErr   error
	target   string
	lastSeen time.Time
}

func NewFlow(opts FlowOptions) *Flow {
	if opts.Constraints.Facing == "" {
		opts.Constraints.Facing = FacingEnvironment
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	f := &Flow{
		id:          opts.ID,
		owner:       opts.Owner,
		camera:      opts.Camera,
		decoder:     opts.Decoder,
		constraints: opts.Constraints,
		obs:         opts.Observer,
		now:         time.Now,
		state:       StateIdle,
	}
	f.lastSeen = f.now()
	return f
}

func (f *Flow) ID() string    { return f.id }
func (f *Flow) Owner() string { return f.owner }

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:          f.id,
		State:       f.state,
		Constraints: f.constraints,
		Target:      f.target,
	}
	if f.camErr != nil {
		s.ErrorKind = ClassifyCameraError(f.camErr)
		s.ErrorMessage = CameraMessage(f.camErr)
	}
	if f.stream != nil {
		s.ActiveTracks = f.stream.ActiveTracks()
	}
	return s
}

// LastSeen es la última actividad (la usa el reaper del Registry).
func (f *Flow) LastSeen() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSeen
}

func (f *Flow) touchLocked() { f.lastSeen = f.now() }

// Touch marca actividad sin cambiar de estado (frame ilegible).
func (f *Flow) Touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()
}

// Begin arranca el pedido de cámara (al montar la pantalla).
func (f *Flow) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()

	if f.state != StateIdle {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, f.state)
	}
	f.state = StateRequestingCamera
	return nil
}

// Acquire toma la cámara. Un error de cámara no se devuelve: queda en el estado.
func (f *Flow) Acquire(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()

	if f.state != StateRequestingCamera {
		return f.snapshotLocked(), fmt.Errorf("%w: acquire from %s", ErrInvalidTransition, f.state)
	}
	if f.camera == nil {
		f.failLocked(ErrNoCamera)
		return f.snapshotLocked(), nil
	}

	stream, err := f.camera.Open(ctx, f.constraints)
	if err != nil {
		f.failLocked(err)
		return f.snapshotLocked(), nil
	}

	f.stream = stream
	f.camErr = nil
	f.state = StateStreaming
	f.obs.CameraAcquired()
	return f.snapshotLocked(), nil
}

// Fail registra un error de cámara informado por el cliente.
func (f *Flow) Fail(err error) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()

	if f.state != StateRequestingCamera && f.state != StateStreaming {
		return f.snapshotLocked(), fmt.Errorf("%w: fail from %s", ErrInvalidTransition, f.state)
	}
	f.failLocked(err)
	return f.snapshotLocked(), nil
}

func (f *Flow) failLocked(err error) {
	f.releaseLocked()
	f.camErr = err
	f.state = stateFor(ClassifyCameraError(err))
	f.obs.ScanOutcome(string(OutcomeCameraError))
}

// Frame procesa un frame capturado. Sin código: se ignora sin cambiar de estado.
// Código inválido: mensaje transitorio, sigue streaming. Código válido: libera y navega.
func (f *Flow) Frame(ctx context.Context, img image.Image) (Result, error) {
	f.mu.Lock()
	f.touchLocked()
	if f.state != StateStreaming {
		st := f.state
		f.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s", ErrNotStreaming, st)
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// decodificar fuera del lock; Close puede llegar mientras tanto
	text, err := f.decoder.Decode(img)
	if err != nil {
		f.obs.ScanOutcome(string(OutcomeNoCode))
		return Result{Outcome: OutcomeNoCode}, nil
	}

	id, perr := ParsePayload(text)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateStreaming {
		return Result{}, fmt.Errorf("%w: %s", ErrNotStreaming, f.state)
	}
	if perr != nil {
		f.obs.ScanOutcome(string(OutcomeInvalid))
		return Result{Outcome: OutcomeInvalid, Message: invalidCodeMessage}, nil
	}

	path := f.navigateLocked(id)
	f.obs.ScanOutcome(string(OutcomeNavigate))
	return Result{Outcome: OutcomeNavigate, Path: path}, nil
}

func (f *Flow) navigateLocked(id string) string {
	f.state = StateNavigating
	f.releaseLocked()
	f.target = DetailsPath(id)
	f.state = StateStopped
	return f.target
}

// Retry vuelve a pedir la cámara; sólo desde un estado de error.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()

	if !f.state.IsError() {
		return fmt.Errorf("%w: retry from %s", ErrInvalidTransition, f.state)
	}
	f.camErr = nil
	f.state = StateRequestingCamera
	return nil
}

// Manual navega a un id escrito a mano, sin pasar por la cámara.
func (f *Flow) Manual(id string) (Result, error) {
	id = strings.TrimSpace(id)
	if err := validID(id); err != nil {
		return Result{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touchLocked()

	if f.state == StateStopped {
		return Result{}, fmt.Errorf("%w: manual from %s", ErrInvalidTransition, f.state)
	}

	path := f.navigateLocked(id)
	f.obs.ScanOutcome(string(OutcomeManual))
	return Result{Outcome: OutcomeManual, Path: path}, nil
}

// Close libera la cámara desde cualquier estado. Idempotente.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseLocked()
	f.state = StateStopped
}

func (f *Flow) releaseLocked() {
	if f.stream == nil {
		return
	}
	f.stream.Stop()
	f.stream = nil
	f.obs.CameraReleased()
}

// Run maneja cámaras que producen sus propios frames (directorio de imágenes).
// Devuelve la ruta de destino; la cámara queda liberada en cualquier salida.
func (f *Flow) Run(ctx context.Context) (string, error) {
	defer f.Close()

	if f.Snapshot().State == StateIdle {
		if err := f.Begin(); err != nil {
			return "", err
		}
	}

	snap, err := f.Acquire(ctx)
	if err != nil {
		return "", err
	}
	if snap.State.IsError() {
		f.mu.Lock()
		camErr := f.camErr
		f.mu.Unlock()
		return "", camErr
	}

	f.mu.Lock()
	src, ok := f.stream.(FrameSource)
	f.mu.Unlock()
	if !ok {
		return "", ErrNoSource
	}

	for {
		img, err := src.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", ErrSourceExhausted
			}
			return "", err
		}

		res, err := f.Frame(ctx, img)
		if err != nil {
			return "", err
		}
		if res.Outcome == OutcomeNavigate {
			return res.Path, nil
		}
	}
}
