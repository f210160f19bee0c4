package scanner

// State es el estado del flujo de escaneo.
//
//	idle -> requesting-camera -> {streaming, permission-denied, no-camera, device-error}
//	streaming -> navigating -> stopped
//
// Los estados de error sólo salen con Retry (o Manual / Close).
type State string

const (
	StateIdle             State = "idle"
	StateRequestingCamera State = "requesting-camera"
	StateStreaming        State = "streaming"
	StatePermissionDenied State = "permission-denied"
	StateNoCamera         State = "no-camera"
	StateDeviceError      State = "device-error"
	StateNavigating       State = "navigating"
	StateStopped          State = "stopped"
)

func (s State) IsError() bool {
	switch s {
	case StatePermissionDenied, StateNoCamera, StateDeviceError:
		return true
	}
	return false
}

// Outcome etiqueta lo que pasó con un evento del flujo (métricas y respuesta al cliente).
type Outcome string

const (
	OutcomeNoCode      Outcome = "no_code"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeNavigate    Outcome = "navigate"
	OutcomeManual      Outcome = "manual"
	OutcomeCameraError Outcome = "camera_error"
)

// Observer recibe eventos del flujo. metrics.Metrics lo implementa.
type Observer interface {
	ScanOutcome(outcome string)
	CameraAcquired()
	CameraReleased()
}

type nopObserver struct{}

func (nopObserver) ScanOutcome(string) {}
func (nopObserver) CameraAcquired()    {}
func (nopObserver) CameraReleased()    {}
