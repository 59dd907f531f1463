package ws

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/waboard/waboard-backend/internal/services"
)

// inboundPacket is a frame read from the client; data stays raw until the
// event is dispatched
type inboundPacket struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sessionRequest struct {
	SessionName string `json:"sessionName"`
}

// Gateway exposes start_session and check_session over a persistent
// websocket channel. Events are delivered to the connection that issued the
// request.
type Gateway struct {
	whatsapp *services.WhatsAppService
}

// NewGateway creates the websocket gateway
func NewGateway(whatsapp *services.WhatsAppService) *Gateway {
	return &Gateway{whatsapp: whatsapp}
}

// UpgradeRequired only lets actual websocket upgrade requests through
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket connection handler
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(g.serve)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	client := NewClient(conn)
	defer client.Close()

	log.Printf("Client connected: %s (%s)", client.ID, conn.RemoteAddr())

	for {
		var pkt inboundPacket
		if err := conn.ReadJSON(&pkt); err != nil {
			break
		}
		g.dispatch(client, &pkt)
	}

	log.Printf("Client disconnected: %s", client.ID)
}

func (g *Gateway) dispatch(client services.Emitter, pkt *inboundPacket) {
	var req sessionRequest
	if len(pkt.Data) > 0 {
		if err := json.Unmarshal(pkt.Data, &req); err != nil {
			log.Printf("Invalid %s payload: %v", pkt.Event, err)
			g.rejectPayload(client, pkt.Event)
			return
		}
	}

	switch pkt.Event {
	case services.EventStartSession:
		g.handleStartSession(client, req.SessionName)
	case services.EventCheckSession:
		g.handleCheckSession(client, req.SessionName)
	default:
		log.Printf("Unknown websocket event: %s", pkt.Event)
	}
}

// rejectPayload answers an unparseable request with a terminal error event,
// so the requester is never left waiting. Unknown events get no reply.
func (g *Gateway) rejectPayload(client services.Emitter, event string) {
	switch event {
	case services.EventStartSession:
		client.Emit(services.EventStartSession, services.StartSessionEvent{
			SessionStatus: services.StatusError,
			Message:       "Invalid request payload",
		})
	case services.EventCheckSession:
		client.Emit(services.EventCheckSession, services.CheckSessionEvent{
			SessionStatus: services.StatusError,
			Message:       "Invalid request payload",
			IsConnected:   false,
		})
	}
}

// handleStartSession delegates to the lifecycle manager. The requester
// always receives an event: errors become a terminal error event, progress
// and results arrive asynchronously from the manager.
func (g *Gateway) handleStartSession(client services.Emitter, sessionName string) {
	if sessionName == "" {
		client.Emit(services.EventStartSession, services.StartSessionEvent{
			SessionStatus: services.StatusError,
			Message:       "sessionName is required",
		})
		return
	}

	if err := g.whatsapp.StartSession(sessionName, client); err != nil {
		message := "Failed to start WhatsApp session"
		if errors.Is(err, services.ErrSessionNotConfigured) {
			message = "Your session Not Found. Please create it first..."
		}
		client.Emit(services.EventStartSession, services.StartSessionEvent{
			SessionStatus: services.StatusError,
			Message:       message,
		})
	}
}

func (g *Gateway) handleCheckSession(client services.Emitter, sessionName string) {
	if g.whatsapp.CheckSession(sessionName) {
		client.Emit(services.EventCheckSession, services.CheckSessionEvent{
			SessionStatus: services.StatusSuccess,
			Message:       "WhatsApp Session Connected",
			IsConnected:   true,
		})
		return
	}

	client.Emit(services.EventCheckSession, services.CheckSessionEvent{
		SessionStatus: services.StatusError,
		Message:       "WhatsApp Session Disconnected",
		IsConnected:   false,
	})
}
