package auth

import "sync"

type Listener func(Event)

// Notifier reparte eventos de sesión a los listeners suscritos.
type Notifier struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]Listener
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: map[int]Listener{}}
}

// Subscription se devuelve en Subscribe; Unsubscribe es idempotente.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

func (n *Notifier) Subscribe(fn Listener) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.listeners[id] = fn

	return &Subscription{cancel: func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}}
}

func (n *Notifier) Publish(e Event) {
	n.mu.RLock()
	fns := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
