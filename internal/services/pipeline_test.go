package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waboard/waboard-backend/internal/media"
	"github.com/waboard/waboard-backend/internal/models"
	"github.com/waboard/waboard-backend/internal/storage"
	"github.com/waboard/waboard-backend/internal/transport"
)

// fakeMedia records saves and can be flipped to fail
type fakeMedia struct {
	mu    sync.Mutex
	fail  bool
	saved map[string]string // key -> content type
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{saved: make(map[string]string)}
}

func (f *fakeMedia) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.saved[key] = contentType
	return media.PublicPrefix + key, nil
}

func (f *fakeMedia) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

// failingStore rejects message writes while delegating everything else
type failingStore struct {
	*storage.MemoryStore
}

func (f *failingStore) CreateMessage(msg *models.Message) (*models.Message, error) {
	return nil, errors.New("database down")
}

func newPipeline(t *testing.T) (*MessagePipeline, *fakeTransport, *fakeMedia, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	tr := newFakeTransport()
	mediaStore := newFakeMedia()
	return NewMessagePipeline(store, mediaStore, tr), tr, mediaStore, store
}

func textMessage(text string) *transport.IncomingMessage {
	return &transport.IncomingMessage{
		Kind:        transport.KindText,
		SessionName: "acct-1",
		ID:          "MSG1",
		From:        "628111@s.whatsapp.net",
		PushName:    "Alice",
		Text:        text,
	}
}

func TestProcessSkipsOwnMessages(t *testing.T) {
	pipeline, tr, _, store := newPipeline(t)

	msg := textMessage("hello")
	msg.FromMe = true
	pipeline.Process(context.Background(), msg)

	assert.Empty(t, store.Messages())
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.reads)
	assert.Empty(t, tr.texts)
}

func TestProcessPersistsTextAndMarksRead(t *testing.T) {
	pipeline, tr, _, store := newPipeline(t)

	pipeline.Process(context.Background(), textMessage("hello there"))

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageTypeReceived, msgs[0].Type)
	assert.Equal(t, "acct-1", msgs[0].SessionName)
	assert.Equal(t, "628111@s.whatsapp.net", msgs[0].From)
	assert.Equal(t, "Alice", msgs[0].Name)
	assert.Equal(t, "hello there", msgs[0].Text)
	assert.Nil(t, msgs[0].MediaImage)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []string{"MSG1"}, tr.reads)
	assert.Empty(t, tr.texts)
}

func TestProcessSavesImageUnderPublicPath(t *testing.T) {
	pipeline, _, mediaStore, store := newPipeline(t)

	msg := &transport.IncomingMessage{
		Kind:        transport.KindImage,
		SessionName: "acct-1",
		ID:          "IMG42",
		From:        "628111@s.whatsapp.net",
		Caption:     "look at this",
		Download: func(ctx context.Context) ([]byte, string, error) {
			return []byte{0xff, 0xd8}, "image/jpeg", nil
		},
	}
	pipeline.Process(context.Background(), msg)

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].MediaImage)
	assert.Equal(t, "/p/storage/images/IMG42.jpg", *msgs[0].MediaImage)
	assert.Equal(t, "look at this", msgs[0].Text)

	mediaStore.mu.Lock()
	defer mediaStore.mu.Unlock()
	assert.Equal(t, "image/jpeg", mediaStore.saved["images/IMG42.jpg"])
}

func TestProcessRecordsMessageWhenMediaSaveFails(t *testing.T) {
	pipeline, tr, mediaStore, store := newPipeline(t)
	mediaStore.fail = true

	msg := &transport.IncomingMessage{
		Kind:        transport.KindImage,
		SessionName: "acct-1",
		ID:          "IMG42",
		From:        "628111@s.whatsapp.net",
		Caption:     "look at this",
		Download: func(ctx context.Context) ([]byte, string, error) {
			return []byte{0xff, 0xd8}, "image/jpeg", nil
		},
	}
	pipeline.Process(context.Background(), msg)

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].MediaImage)
	assert.Equal(t, "look at this", msgs[0].Text)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []string{"IMG42"}, tr.reads)
}

func TestProcessDocumentExtensionFallsBackToPDF(t *testing.T) {
	pipeline, _, _, store := newPipeline(t)

	msg := &transport.IncomingMessage{
		Kind:        transport.KindDocument,
		SessionName: "acct-1",
		ID:          "DOC7",
		From:        "628111@s.whatsapp.net",
		FileName:    "report.docx",
		Download: func(ctx context.Context) ([]byte, string, error) {
			return []byte("doc"), "application/octet-stream", nil
		},
	}
	pipeline.Process(context.Background(), msg)

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].MediaDoc)
	assert.Equal(t, "/p/storage/documents/DOC7.docx", *msgs[0].MediaDoc)

	noName := &transport.IncomingMessage{
		Kind:        transport.KindDocument,
		SessionName: "acct-1",
		ID:          "DOC8",
		From:        "628111@s.whatsapp.net",
		Download: func(ctx context.Context) ([]byte, string, error) {
			return []byte("doc"), "application/octet-stream", nil
		},
	}
	pipeline.Process(context.Background(), noName)

	msgs = store.Messages()
	require.Len(t, msgs, 2)
	require.NotNil(t, msgs[1].MediaDoc)
	assert.Equal(t, "/p/storage/documents/DOC8.pdf", *msgs[1].MediaDoc)
}

func TestProcessNeverDownloadsVideo(t *testing.T) {
	pipeline, _, mediaStore, store := newPipeline(t)

	msg := &transport.IncomingMessage{
		Kind:        transport.KindVideo,
		SessionName: "acct-1",
		ID:          "VID1",
		From:        "628111@s.whatsapp.net",
		Caption:     "watch this",
	}
	pipeline.Process(context.Background(), msg)

	msgs := store.Messages()
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].MediaVideo)
	assert.Equal(t, "watch this", msgs[0].Text)

	mediaStore.mu.Lock()
	defer mediaStore.mu.Unlock()
	assert.Empty(t, mediaStore.saved)
}

func TestAutoReplyAnswersTriggerWithQuote(t *testing.T) {
	pipeline, tr, _, _ := newPipeline(t)

	msg := textMessage("  PiNg ")
	pipeline.Process(context.Background(), msg)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []string{"628111@s.whatsapp.net"}, tr.typing)
	require.Len(t, tr.texts, 1)
	assert.Equal(t, "Pong!", tr.texts[0].text)
	assert.Equal(t, "628111@s.whatsapp.net", tr.texts[0].to)
	assert.Same(t, msg, tr.texts[0].quoting)
}

func TestAutoReplyIgnoresOtherText(t *testing.T) {
	pipeline, tr, _, _ := newPipeline(t)

	pipeline.Process(context.Background(), textMessage("pinging you"))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.typing)
	assert.Empty(t, tr.texts)
}

func TestAutoReplySurvivesStoreFailure(t *testing.T) {
	tr := newFakeTransport()
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	pipeline := NewMessagePipeline(store, newFakeMedia(), tr)

	pipeline.Process(context.Background(), textMessage("ping"))

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []string{"MSG1"}, tr.reads)
	require.Len(t, tr.texts, 1)
	assert.Equal(t, "Pong!", tr.texts[0].text)
}

func TestNormalizeTextPrefersBody(t *testing.T) {
	msg := &transport.IncomingMessage{Text: "body", Caption: "caption"}
	assert.Equal(t, "body", normalizeText(msg))

	msg = &transport.IncomingMessage{Caption: "caption"}
	assert.Equal(t, "caption", normalizeText(msg))
}
