package services

import (
	"context"
	"log"
	"path"
	"strings"
	"time"

	"github.com/waboard/waboard-backend/internal/media"
	"github.com/waboard/waboard-backend/internal/models"
	"github.com/waboard/waboard-backend/internal/storage"
	"github.com/waboard/waboard-backend/internal/transport"
)

// Auto-reply policy: an inbound "ping" gets a typing indicator and a quoted
// "Pong!" back
const (
	replyTrigger   = "ping"
	replyText      = "Pong!"
	typingDuration = 3 * time.Second
)

// MessagePipeline persists every inbound message and applies the auto-reply
// policy. Each step is isolated: a failing media save, database write, read
// receipt or reply is logged and never stops the remaining steps, so one bad
// message can never stall the session.
type MessagePipeline struct {
	store     storage.Store
	media     media.Store
	transport transport.Transport
}

// NewMessagePipeline creates the inbound message pipeline
func NewMessagePipeline(store storage.Store, mediaStore media.Store, tr transport.Transport) *MessagePipeline {
	return &MessagePipeline{
		store:     store,
		media:     mediaStore,
		transport: tr,
	}
}

// Handle consumes one inbound message without blocking the transport
// callback that delivered it
func (p *MessagePipeline) Handle(msg *transport.IncomingMessage) {
	go p.Process(context.Background(), msg)
}

// Process runs the pipeline for one inbound message
func (p *MessagePipeline) Process(ctx context.Context, msg *transport.IncomingMessage) {
	// Self-sent messages are never recorded
	if msg.FromMe {
		return
	}

	record := &models.Message{
		Type:        models.MessageTypeReceived,
		SessionName: msg.SessionName,
		From:        msg.From,
		Name:        msg.PushName,
		Text:        normalizeText(msg),
	}

	switch msg.Kind {
	case transport.KindImage:
		record.MediaImage = p.saveMedia(ctx, msg, "images/"+msg.ID+".jpg")
	case transport.KindAudio:
		record.MediaAudio = p.saveMedia(ctx, msg, "audios/"+msg.ID+".mp3")
	case transport.KindDocument:
		record.MediaDoc = p.saveMedia(ctx, msg, "documents/"+msg.ID+"."+documentExt(msg.FileName))
	case transport.KindVideo:
		// Video downloads are not supported; only the caption is recorded
	}

	if _, err := p.store.CreateMessage(record); err != nil {
		log.Printf("Failed to persist message %s from session %s: %v", msg.ID, msg.SessionName, err)
	}

	if err := p.transport.ReadMessage(ctx, msg); err != nil {
		log.Printf("Failed to mark message %s as read: %v", msg.ID, err)
	}

	p.autoReply(ctx, msg, record.Text)
}

// saveMedia downloads and stores the attached blob, returning its public
// path. A failed save is logged and yields a null media reference; the rest
// of the pipeline proceeds.
func (p *MessagePipeline) saveMedia(ctx context.Context, msg *transport.IncomingMessage, key string) *string {
	if msg.Download == nil {
		return nil
	}
	if p.media == nil {
		log.Printf("No media store configured, skipping %s", key)
		return nil
	}

	data, mimeType, err := msg.Download(ctx)
	if err != nil {
		log.Printf("Failed to download media for message %s: %v", msg.ID, err)
		return nil
	}

	savedPath, err := p.media.Save(ctx, key, data, mimeType)
	if err != nil {
		log.Printf("Failed to save media %s: %v", key, err)
		return nil
	}

	return &savedPath
}

// autoReply answers a trigger message with a typing indicator and a quoted
// reply. Both sends are best-effort.
func (p *MessagePipeline) autoReply(ctx context.Context, msg *transport.IncomingMessage, text string) {
	if !strings.EqualFold(strings.TrimSpace(text), replyTrigger) {
		return
	}

	if err := p.transport.SendTyping(ctx, msg.SessionName, msg.From, typingDuration); err != nil {
		log.Printf("Failed to send typing indicator to %s: %v", msg.From, err)
	}

	if err := p.transport.SendTextMessage(ctx, msg.SessionName, msg.From, replyText, msg); err != nil {
		log.Printf("Failed to send auto-reply to %s: %v", msg.From, err)
	}
}

// normalizeText extracts the best-effort display text: plain or extended
// text first, then the media caption
func normalizeText(msg *transport.IncomingMessage) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// documentExt derives the stored extension from the original file name,
// defaulting to pdf
func documentExt(fileName string) string {
	ext := strings.TrimPrefix(path.Ext(fileName), ".")
	if ext == "" {
		return "pdf"
	}
	return ext
}
