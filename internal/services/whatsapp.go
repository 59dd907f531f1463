package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/waboard/waboard-backend/internal/storage"
	"github.com/waboard/waboard-backend/internal/transport"
)

// Session status values delivered to real-time clients
const (
	StatusPending      = "pending"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
	StatusSuccess      = "success"
)

// Event names on the real-time channel
const (
	EventStartSession = "start_session"
	EventCheckSession = "check_session"
)

// StartSessionEvent is emitted while a session start is in progress and as
// its terminal result. QR is only populated for pending events.
type StartSessionEvent struct {
	SessionStatus string  `json:"session_status"`
	Message       string  `json:"message"`
	QR            *string `json:"qr"`
}

// CheckSessionEvent is the response to a check_session request
type CheckSessionEvent struct {
	SessionStatus string `json:"session_status"`
	Message       string `json:"message"`
	IsConnected   bool   `json:"isConnected"`
}

// Emitter delivers events to one real-time client connection. Delivery to a
// connection that is gone must be a silent no-op.
type Emitter interface {
	Emit(event string, payload interface{})
}

// NoopEmitter discards events; used when a session is started without a
// requesting client, such as during bootstrap restore.
type NoopEmitter struct{}

func (NoopEmitter) Emit(event string, payload interface{}) {}

// WhatsAppService drives sessions through their lifecycle: it owns the
// transport connections, updates the registry on every transition and
// forwards lifecycle events to the requesting client.
type WhatsAppService struct {
	store     storage.Store
	transport transport.Transport
	registry  *Registry
}

// NewWhatsAppService creates the session lifecycle manager
func NewWhatsAppService(store storage.Store, tr transport.Transport, registry *Registry) *WhatsAppService {
	return &WhatsAppService{
		store:     store,
		transport: tr,
		registry:  registry,
	}
}

// Registry exposes the session registry for monitoring
func (s *WhatsAppService) Registry() *Registry {
	return s.registry
}

// StartSession begins connecting the named session. The call returns once
// the handshake is initiated; QR, connected and disconnected events reach
// the emitter asynchronously. Starting an already-connected session is an
// idempotent no-op that re-emits the connected event.
func (s *WhatsAppService) StartSession(name string, emitter Emitter) error {
	record, err := s.store.GetSessionByName(name)
	if err != nil {
		return ErrSessionNotConfigured
	}

	if handle, err := s.registry.Get(name); err == nil {
		if s.reuseHandle(handle, emitter) {
			return nil
		}
		// Disconnected handle: caller-driven reconnect replaces it
		s.registry.RemoveHandle(name, handle)
	}

	handle := newSessionHandle(name, emitter)
	if err := s.registry.Register(name, handle); err != nil {
		// Lost a concurrent start race; defer to the winner's handle
		if existing, lookupErr := s.registry.Get(name); lookupErr == nil {
			s.reuseHandle(existing, emitter)
		}
		return nil
	}

	go s.runHandle(handle)
	go s.openTransport(handle, record.WhatsAppNumber)

	log.Printf("Starting WhatsApp session: %s", name)
	return nil
}

// reuseHandle reports the state of an existing handle to the requester.
// Returns false when the handle is disconnected and should be replaced.
func (s *WhatsAppService) reuseHandle(handle *SessionHandle, emitter Emitter) bool {
	switch handle.State() {
	case StateConnected:
		emitter.Emit(EventStartSession, StartSessionEvent{
			SessionStatus: StatusConnected,
			Message:       fmt.Sprintf("WhatsApp session %s already connected!", handle.Name),
		})
		return true
	case StateConnecting:
		// Attach the new requester alongside the existing ones so both
		// receive subsequent events, and replay the last QR if one is pending
		handle.attachEmitter(emitter)
		evt := StartSessionEvent{
			SessionStatus: StatusPending,
			Message:       fmt.Sprintf("Starting WhatsApp session: %s", handle.Name),
		}
		if qr := handle.LastQR(); qr != "" {
			evt.QR = &qr
		}
		emitter.Emit(EventStartSession, evt)
		return true
	default:
		return false
	}
}

// openTransport initiates the underlying connection and feeds its callbacks
// into the handle's ordered event queue
func (s *WhatsAppService) openTransport(handle *SessionHandle, number string) {
	err := s.transport.StartSession(context.Background(), handle.Name, number, transport.SessionCallbacks{
		OnQRUpdated: func(qr []byte) {
			handle.push(handleEvent{kind: eventQRUpdated, qr: qr})
		},
		OnConnected: func() {
			handle.push(handleEvent{kind: eventConnected})
		},
		OnDisconnected: func() {
			handle.push(handleEvent{kind: eventDisconnected})
		},
	})
	if err != nil {
		handle.push(handleEvent{kind: eventStartFailed, err: err})
	}
}

// runHandle is the single consumer of one handle's event queue. Per-session
// transitions are totally ordered here; events for a handle that is no
// longer registered are dropped.
func (s *WhatsAppService) runHandle(handle *SessionHandle) {
	for evt := range handle.events {
		current, err := s.registry.Get(handle.Name)
		if err != nil || current != handle {
			// Removed while events were in flight
			continue
		}

		switch evt.kind {
		case eventQRUpdated:
			dataURL, renderErr := renderQRDataURL(evt.qr)
			if renderErr != nil {
				log.Printf("Failed to render QR for session %s: %v", handle.Name, renderErr)
				continue
			}
			handle.setState(StateConnecting)
			handle.setQR(dataURL)
			handle.broadcast(EventStartSession, StartSessionEvent{
				SessionStatus: StatusPending,
				Message:       fmt.Sprintf("Starting WhatsApp session: %s", handle.Name),
				QR:            &dataURL,
			})

		case eventConnected:
			handle.setState(StateConnected)
			handle.setQR("")
			log.Printf("✅ WhatsApp session connected: %s", handle.Name)
			handle.broadcast(EventStartSession, StartSessionEvent{
				SessionStatus: StatusConnected,
				Message:       "WhatsApp connected!",
			})

		case eventDisconnected:
			handle.setState(StateDisconnected)
			log.Printf("WhatsApp session disconnected: %s", handle.Name)
			handle.broadcast(EventStartSession, StartSessionEvent{
				SessionStatus: StatusDisconnected,
				Message:       "WhatsApp disconnected!",
			})

		case eventStartFailed:
			log.Printf("Failed to start WhatsApp session %s: %v", handle.Name, evt.err)
			handle.broadcast(EventStartSession, StartSessionEvent{
				SessionStatus: StatusError,
				Message:       fmt.Sprintf("Failed to start WhatsApp session: %v", evt.err),
			})
			s.registry.RemoveHandle(handle.Name, handle)
			return
		}
	}
}

// CheckSession reports whether the named session has a live connected
// handle. Pure read, no side effects.
func (s *WhatsAppService) CheckSession(name string) bool {
	handle, err := s.registry.Get(name)
	if err != nil {
		return false
	}
	return handle.State() == StateConnected
}

// SendText sends a text message through a connected session, optionally
// quoting another message
func (s *WhatsAppService) SendText(ctx context.Context, name, to, text string, quoting *transport.IncomingMessage) error {
	handle, err := s.registry.Get(name)
	if err != nil || handle.State() != StateConnected {
		return ErrSessionNotConnected
	}
	return s.transport.SendTextMessage(ctx, name, to, text, quoting)
}

// RemoveSession tears down the live handle for the name. Events arriving
// after removal are dropped.
func (s *WhatsAppService) RemoveSession(name string) {
	s.registry.Remove(name)
}

// RestoreSessions starts every active session record. Individual failures
// are logged without aborting the restore; handshakes proceed in the
// background.
func (s *WhatsAppService) RestoreSessions() {
	records, err := s.store.ListActiveSessions()
	if err != nil {
		log.Printf("Failed to load sessions for restore: %v", err)
		return
	}

	restored := 0
	for _, record := range records {
		if err := s.StartSession(record.SessionName, NoopEmitter{}); err != nil {
			log.Printf("Failed to restore session %s: %v", record.SessionName, err)
			continue
		}
		restored++
	}

	log.Printf("🔄 Restoring %d of %d WhatsApp session(s)", restored, len(records))
}

// renderQRDataURL turns a raw QR payload into a data-URL-encoded PNG, so
// real-time clients never see raw QR bytes
func renderQRDataURL(raw []byte) (string, error) {
	png, err := qrcode.Encode(string(raw), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
