package transport

import (
	"context"
	"time"
)

// MessageKind tags an inbound message with its payload type, decided once
// when the raw transport event is normalized.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindVideo    MessageKind = "video"
	KindAudio    MessageKind = "audio"
	KindDocument MessageKind = "document"
)

// SessionCallbacks receive the asynchronous lifecycle events of one session.
// The transport guarantees callbacks for a given session are delivered one
// at a time.
type SessionCallbacks struct {
	OnQRUpdated    func(qr []byte)
	OnConnected    func()
	OnDisconnected func()
}

// IncomingMessage is one normalized inbound message
type IncomingMessage struct {
	Kind        MessageKind
	SessionName string
	ID          string
	From        string // chat JID
	Sender      string // participant JID (differs from From in groups)
	PushName    string
	FromMe      bool
	Text        string // plain or extended text
	Caption     string // media caption
	FileName    string // documents only

	// Download fetches the attached media blob. Nil when the message
	// carries no downloadable media (text, and video which is not
	// supported for download).
	Download func(ctx context.Context) (data []byte, mimeType string, err error)
}

// MessageHandler consumes inbound messages from any session
type MessageHandler func(msg *IncomingMessage)

// Transport is the opaque messaging backend providing per-session
// connect/send/receive primitives
type Transport interface {
	// StartSession opens the connection for the named session. The number
	// is used to locate a previously paired device; an unpaired session
	// goes through QR pairing. Returns once the handshake is initiated;
	// progress is reported through the callbacks.
	StartSession(ctx context.Context, name, number string, cb SessionCallbacks) error

	// HasSession reports whether a client exists for the named session
	HasSession(name string) bool

	// IsConnected reports whether the named session has a live connection
	IsConnected(name string) bool

	// Logout tears the session down and unpairs the device
	Logout(ctx context.Context, name string) error

	// SendTyping shows a composing indicator to the recipient for the
	// given duration
	SendTyping(ctx context.Context, session, to string, duration time.Duration) error

	// SendTextMessage sends a text message, optionally quoting another
	SendTextMessage(ctx context.Context, session, to, text string, quoting *IncomingMessage) error

	// ReadMessage marks an inbound message as read (best-effort)
	ReadMessage(ctx context.Context, msg *IncomingMessage) error

	// OnMessageReceived registers a handler for inbound messages across
	// all sessions
	OnMessageReceived(handler MessageHandler)

	// Shutdown disconnects every session
	Shutdown()
}
