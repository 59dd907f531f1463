package transport

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsmeowTransport implements Transport with one whatsmeow client per
// session, all backed by a shared device store in PostgreSQL.
type WhatsmeowTransport struct {
	container *sqlstore.Container

	mu      sync.RWMutex
	clients map[string]*whatsmeow.Client

	handlerMu sync.RWMutex
	handlers  []MessageHandler
}

// NewWhatsmeowTransport opens the shared device store and upgrades its schema
func NewWhatsmeowTransport(ctx context.Context, dsn string) (*WhatsmeowTransport, error) {
	dbLog := waLog.Stdout("WhatsAppDB", "WARN", false)
	container, err := sqlstore.New(ctx, "pgx", dsn, dbLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("failed to upgrade device store schema: %w", err)
	}

	store.DeviceProps.RequireFullSync = proto.Bool(false)

	return &WhatsmeowTransport{
		container: container,
		clients:   make(map[string]*whatsmeow.Client),
	}, nil
}

func (t *WhatsmeowTransport) getClient(name string) *whatsmeow.Client {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clients[name]
}

func (t *WhatsmeowTransport) setClient(name string, client *whatsmeow.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients[name] = client
}

func (t *WhatsmeowTransport) deleteClient(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, name)
}

// deviceForNumber finds a previously paired device matching the session's
// WhatsApp number, or creates a fresh unpaired device.
func (t *WhatsmeowTransport) deviceForNumber(ctx context.Context, number string) (*store.Device, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(number), "+")

	devices, err := t.container.GetAllDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	for _, device := range devices {
		if device.ID != nil && device.ID.User == normalized {
			return device, nil
		}
	}

	return t.container.NewDevice(), nil
}

// StartSession creates the client and initiates the connection. A session
// without stored credentials goes through the QR pairing loop; QR codes are
// forwarded to the callback as raw payload bytes.
func (t *WhatsmeowTransport) StartSession(ctx context.Context, name, number string, cb SessionCallbacks) error {
	if existing := t.getClient(name); existing != nil {
		// Caller-driven reconnect: replace the stale client
		existing.Disconnect()
		t.deleteClient(name)
	}

	device, err := t.deviceForNumber(ctx, number)
	if err != nil {
		return err
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("WhatsApp/"+name, "WARN", false))
	client.EnableAutoReconnect = true
	client.AddEventHandler(t.sessionEventHandler(name, cb))
	t.setClient(name, client)

	if client.Store.ID == nil {
		// Unpaired device: pairing QR codes arrive on the QR channel,
		// which must be requested before connecting
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			t.deleteClient(name)
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			t.deleteClient(name)
			return fmt.Errorf("failed to connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					if cb.OnQRUpdated != nil {
						cb.OnQRUpdated([]byte(evt.Code))
					}
				case "success":
					return
				case "timeout", "err-client-outdated":
					log.Printf("QR pairing for session %s ended: %s", name, evt.Event)
					if cb.OnDisconnected != nil {
						cb.OnDisconnected()
					}
					return
				}
			}
		}()
		return nil
	}

	if err := client.Connect(); err != nil {
		t.deleteClient(name)
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

func (t *WhatsmeowTransport) sessionEventHandler(name string, cb SessionCallbacks) func(interface{}) {
	return func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Connected:
			if cb.OnConnected != nil {
				cb.OnConnected()
			}
		case *events.Disconnected:
			if cb.OnDisconnected != nil {
				cb.OnDisconnected()
			}
		case *events.LoggedOut:
			log.Printf("Session %s logged out remotely", name)
			if client := t.getClient(name); client != nil {
				client.Disconnect()
			}
			t.deleteClient(name)
			if cb.OnDisconnected != nil {
				cb.OnDisconnected()
			}
		case *events.StreamReplaced:
			if client := t.getClient(name); client != nil {
				client.Disconnect()
			}
			t.deleteClient(name)
			if cb.OnDisconnected != nil {
				cb.OnDisconnected()
			}
		case *events.Message:
			t.dispatchMessage(name, v)
		}
	}
}

// dispatchMessage normalizes the raw event into an IncomingMessage and
// hands it to every registered handler
func (t *WhatsmeowTransport) dispatchMessage(name string, evt *events.Message) {
	if evt.Message == nil {
		return
	}

	msg := &IncomingMessage{
		Kind:        KindText,
		SessionName: name,
		ID:          evt.Info.ID,
		From:        evt.Info.Chat.String(),
		Sender:      evt.Info.Sender.String(),
		PushName:    evt.Info.PushName,
		FromMe:      evt.Info.IsFromMe,
	}

	client := t.getClient(name)
	m := evt.Message

	switch {
	case m.GetImageMessage() != nil:
		img := m.GetImageMessage()
		msg.Kind = KindImage
		msg.Caption = img.GetCaption()
		if client != nil {
			msg.Download = func(ctx context.Context) ([]byte, string, error) {
				data, err := client.Download(ctx, img)
				return data, img.GetMimetype(), err
			}
		}
	case m.GetVideoMessage() != nil:
		// Video payloads are not downloaded; only the caption is kept
		msg.Kind = KindVideo
		msg.Caption = m.GetVideoMessage().GetCaption()
	case m.GetAudioMessage() != nil:
		aud := m.GetAudioMessage()
		msg.Kind = KindAudio
		if client != nil {
			msg.Download = func(ctx context.Context) ([]byte, string, error) {
				data, err := client.Download(ctx, aud)
				return data, aud.GetMimetype(), err
			}
		}
	case m.GetDocumentMessage() != nil:
		doc := m.GetDocumentMessage()
		msg.Kind = KindDocument
		msg.Caption = doc.GetCaption()
		msg.FileName = doc.GetFileName()
		if client != nil {
			msg.Download = func(ctx context.Context) ([]byte, string, error) {
				data, err := client.Download(ctx, doc)
				return data, doc.GetMimetype(), err
			}
		}
	case m.GetExtendedTextMessage() != nil:
		msg.Text = m.GetExtendedTextMessage().GetText()
	default:
		msg.Text = m.GetConversation()
	}

	t.handlerMu.RLock()
	handlers := t.handlers
	t.handlerMu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
}

// HasSession reports whether a client exists for the named session
func (t *WhatsmeowTransport) HasSession(name string) bool {
	return t.getClient(name) != nil
}

// IsConnected reports whether the named session has a live connection
func (t *WhatsmeowTransport) IsConnected(name string) bool {
	client := t.getClient(name)
	return client != nil && client.IsConnected()
}

// Logout unpairs the device and removes the client
func (t *WhatsmeowTransport) Logout(ctx context.Context, name string) error {
	client := t.getClient(name)
	if client == nil {
		return fmt.Errorf("transport session %s not found", name)
	}

	err := client.Logout(ctx)
	client.Disconnect()
	t.deleteClient(name)
	return err
}

func toJID(id string) (types.JID, error) {
	if strings.ContainsRune(id, '@') {
		return types.ParseJID(id)
	}
	return types.NewJID(strings.TrimPrefix(id, "+"), types.DefaultUserServer), nil
}

// SendTyping shows a composing indicator and pauses it after the duration
func (t *WhatsmeowTransport) SendTyping(ctx context.Context, session, to string, duration time.Duration) error {
	client := t.getClient(session)
	if client == nil {
		return fmt.Errorf("transport session %s not found", session)
	}

	jid, err := toJID(to)
	if err != nil {
		return err
	}

	if err := client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText); err != nil {
		return err
	}

	time.AfterFunc(duration, func() {
		_ = client.SendChatPresence(context.Background(), jid, types.ChatPresencePaused, types.ChatPresenceMediaText)
	})
	return nil
}

// SendTextMessage sends a text message, optionally quoting another message
func (t *WhatsmeowTransport) SendTextMessage(ctx context.Context, session, to, text string, quoting *IncomingMessage) error {
	client := t.getClient(session)
	if client == nil {
		return fmt.Errorf("transport session %s not found", session)
	}

	jid, err := toJID(to)
	if err != nil {
		return err
	}

	var content *waE2E.Message
	if quoting != nil {
		quotedText := quoting.Text
		if quotedText == "" {
			quotedText = quoting.Caption
		}
		content = &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(text),
				ContextInfo: &waE2E.ContextInfo{
					StanzaID:      proto.String(quoting.ID),
					Participant:   proto.String(quoting.Sender),
					QuotedMessage: &waE2E.Message{Conversation: proto.String(quotedText)},
				},
			},
		}
	} else {
		content = &waE2E.Message{Conversation: proto.String(text)}
	}

	extra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	_, err = client.SendMessage(ctx, jid, content, extra)
	return err
}

// ReadMessage marks the message as read on the originating session
func (t *WhatsmeowTransport) ReadMessage(ctx context.Context, msg *IncomingMessage) error {
	client := t.getClient(msg.SessionName)
	if client == nil {
		return fmt.Errorf("transport session %s not found", msg.SessionName)
	}

	chat, err := toJID(msg.From)
	if err != nil {
		return err
	}
	sender, err := toJID(msg.Sender)
	if err != nil {
		return err
	}

	return client.MarkRead(ctx, []types.MessageID{msg.ID}, time.Now(), chat, sender)
}

// OnMessageReceived registers a handler for inbound messages
func (t *WhatsmeowTransport) OnMessageReceived(handler MessageHandler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// Shutdown disconnects every session without unpairing
func (t *WhatsmeowTransport) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for name, client := range t.clients {
		client.Disconnect()
		delete(t.clients, name)
	}
}
