// Package browser representa del lado del servidor la cámara que el navegador
// abre con getUserMedia. El stream real vive en la página; acá se lleva el
// lease exclusivo por dueño (sesión de navegador) y las pistas que la página
// declaró activas.
package browser

import (
	"context"
	"sync"

	"animal-catalog/internal/domain/scanner"
)

// Devices lleva un lease por dueño: un navegador no puede tener dos
// escáneres con la cámara tomada a la vez.
type Devices struct {
	mu     sync.Mutex
	leases map[string]*stream
}

func NewDevices() *Devices {
	return &Devices{leases: make(map[string]*stream)}
}

// Camera devuelve la cámara de owner (firma de scanner.RegistryOptions.Camera).
func (d *Devices) Camera(owner string) scanner.Camera {
	return &camera{devices: d, owner: owner}
}

// Held indica si owner tiene la cámara tomada.
func (d *Devices) Held(owner string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.leases[owner]
	return ok
}

type camera struct {
	devices *Devices
	owner   string
}

func (c *camera) Open(ctx context.Context, cfg scanner.Constraints) (scanner.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := c.devices
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.leases[c.owner]; busy {
		return nil, scanner.ErrDeviceBusy
	}
	s := &stream{devices: d, owner: c.owner, constraints: cfg, tracks: 1}
	d.leases[c.owner] = s
	return s, nil
}

type stream struct {
	devices     *Devices
	owner       string
	constraints scanner.Constraints

	once   sync.Once
	mu     sync.Mutex
	tracks int
}

func (s *stream) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.tracks = 0
		s.mu.Unlock()

		d := s.devices
		d.mu.Lock()
		if d.leases[s.owner] == s {
			delete(d.leases, s.owner)
		}
		d.mu.Unlock()
	})
}

func (s *stream) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks
}
