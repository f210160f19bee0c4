package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Constraints son las preferencias con las que se pide la cámara.
type Constraints struct {
	Facing FacingMode `json:"facingMode"`
}

// Camera abre un stream de video. Open devuelve uno de los errores de abajo
// (envuelto) cuando no puede.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream es la cámara tomada. Stop detiene todas las pistas y es idempotente.
type Stream interface {
	Stop()
	ActiveTracks() int
}

// FrameSource es un Stream que produce los frames él mismo.
// NextFrame devuelve io.EOF cuando no hay más.
type FrameSource interface {
	Stream
	NextFrame(ctx context.Context) (image.Image, error)
}

// Decoder extrae el texto de un código QR de un frame.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

var (
	// ErrNoCode: el frame no tiene un código legible (lo normal en la mayoría de frames).
	ErrNoCode = errors.New("no code in frame")

	ErrPermissionDenied        = errors.New("camera permission denied")
	ErrNoCamera                = errors.New("no camera available")
	ErrConstraintUnsatisfiable = errors.New("camera constraints cannot be satisfied")
	ErrDeviceBusy              = errors.New("camera is already in use")
)

type CameraErrorKind string

const (
	KindPermissionDenied CameraErrorKind = "permission-denied"
	KindNoCamera         CameraErrorKind = "no-camera"
	KindConstraint       CameraErrorKind = "constraint"
	KindUnknown          CameraErrorKind = "unknown"
)

func ClassifyCameraError(err error) CameraErrorKind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrNoCamera):
		return KindNoCamera
	case errors.Is(err, ErrConstraintUnsatisfiable):
		return KindConstraint
	default:
		return KindUnknown
	}
}

// stateFor: constraint y unknown caen en device-error, cada uno con su mensaje.
func stateFor(k CameraErrorKind) State {
	switch k {
	case KindPermissionDenied:
		return StatePermissionDenied
	case KindNoCamera:
		return StateNoCamera
	default:
		return StateDeviceError
	}
}

// CameraMessage es el texto persistente que ve el usuario junto al botón de reintentar.
func CameraMessage(err error) string {
	switch ClassifyCameraError(err) {
	case KindPermissionDenied:
		return "Permissão para usar a câmera negada. Libere o acesso nas configurações do navegador e tente novamente."
	case KindNoCamera:
		return "Nenhuma câmera foi encontrada neste dispositivo."
	case KindConstraint:
		return "A câmera traseira não está disponível neste dispositivo."
	}
	if errors.Is(err, ErrDeviceBusy) {
		return "A câmera já está em uso por outra aba ou aplicativo."
	}
	return "Não foi possível acessar a câmera."
}

// CameraErrorFromName traduce el nombre del DOMException de getUserMedia.
func CameraErrorFromName(name, message string) error {
	var base error
	switch strings.TrimSpace(name) {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		base = ErrPermissionDenied
	case "NotFoundError", "DevicesNotFoundError":
		base = ErrNoCamera
	case "OverconstrainedError", "ConstraintNotSatisfiedError":
		base = ErrConstraintUnsatisfiable
	case "NotReadableError", "TrackStartError":
		base = ErrDeviceBusy
	default:
		return fmt.Errorf("camera error %q: %s", name, message)
	}
	if message = strings.TrimSpace(message); message != "" {
		return fmt.Errorf("%w: %s", base, message)
	}
	return base
}
