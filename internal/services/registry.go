package services

import (
	"log"
	"sync"
)

// SessionState is the lifecycle state of one live session handle
type SessionState int32

const (
	StateIdle SessionState = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

type handleEventKind int

const (
	eventQRUpdated handleEventKind = iota
	eventConnected
	eventDisconnected
	eventStartFailed
)

type handleEvent struct {
	kind handleEventKind
	qr   []byte
	err  error
}

// SessionHandle is the in-memory live-connection object for one session.
// Its state is only mutated by the handle's own event loop, which consumes
// transport events in order.
type SessionHandle struct {
	Name string

	mu       sync.Mutex
	state    SessionState
	lastQR   string // last rendered QR data URL, empty once connected
	emitters []Emitter
	closed   bool

	events chan handleEvent
}

func newSessionHandle(name string, emitter Emitter) *SessionHandle {
	return &SessionHandle{
		Name:     name,
		state:    StateConnecting,
		emitters: []Emitter{emitter},
		events:   make(chan handleEvent, 64),
	}
}

// State returns the current lifecycle state
func (h *SessionHandle) State() SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *SessionHandle) setState(state SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

// LastQR returns the most recent QR data URL, or empty
func (h *SessionHandle) LastQR() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastQR
}

func (h *SessionHandle) setQR(qr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastQR = qr
}

// attachEmitter adds another requesting connection to the handle. Every
// attached emitter receives all subsequent lifecycle events, so no requester
// is left waiting for a terminal event.
func (h *SessionHandle) attachEmitter(e Emitter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitters = append(h.emitters, e)
}

// broadcast delivers one event to every attached emitter
func (h *SessionHandle) broadcast(event string, payload interface{}) {
	h.mu.Lock()
	emitters := make([]Emitter, len(h.emitters))
	copy(emitters, h.emitters)
	h.mu.Unlock()

	for _, e := range emitters {
		e.Emit(event, payload)
	}
}

// push queues a transport event for the handle's event loop. Events for a
// closed handle are dropped; a full queue drops the event rather than block
// the transport callback.
func (h *SessionHandle) push(evt handleEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- evt:
	default:
		log.Printf("Session %s event queue full, dropping event", h.Name)
	}
}

// close stops the event loop; further pushes are no-ops
func (h *SessionHandle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.events)
}

// Registry tracks which sessions are currently live. It enforces at most
// one handle per session name.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*SessionHandle
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*SessionHandle),
	}
}

// Register adds a handle; fails if a live handle already exists for the name
func (r *Registry) Register(name string, handle *SessionHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[name]; exists {
		return ErrSessionExists
	}
	r.handles[name] = handle
	return nil
}

// Get returns the live handle for the name
func (r *Registry) Get(name string) (*SessionHandle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, exists := r.handles[name]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return handle, nil
}

// Remove drops the handle for the name and stops its event loop. Removing
// an unknown name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	handle := r.handles[name]
	delete(r.handles, name)
	r.mu.Unlock()

	if handle != nil {
		handle.close()
	}
}

// RemoveHandle removes the name only if it still maps to the given handle,
// so a late removal cannot evict a newer handle registered under the same name.
func (r *Registry) RemoveHandle(name string, handle *SessionHandle) {
	r.mu.Lock()
	current := r.handles[name]
	if current == handle {
		delete(r.handles, name)
	}
	r.mu.Unlock()

	if current == handle && handle != nil {
		handle.close()
	}
}

// Snapshot returns a point-in-time copy of all live handles
func (r *Registry) Snapshot() []*SessionHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]*SessionHandle, 0, len(r.handles))
	for _, handle := range r.handles {
		handles = append(handles, handle)
	}
	return handles
}

// Len returns the number of live handles
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
