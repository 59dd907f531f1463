package models

import (
	"gorm.io/gorm"
)

// MessageTypeReceived is the only type this backend records; outbound
// messages are not persisted.
const MessageTypeReceived = "received"

// Message is an append-only record of one inbound WhatsApp message.
// Media fields hold storage paths and are independently nullable.
type Message struct {
	gorm.Model

	Type        string  `json:"type" gorm:"default:received"`
	SessionName string  `json:"session_name" gorm:"index"`
	From        string  `json:"from"`
	Name        string  `json:"name"`
	Text        string  `json:"message"`
	MediaImage  *string `json:"media_image"`
	MediaVideo  *string `json:"media_video"`
	MediaAudio  *string `json:"media_audio"`
	MediaDoc    *string `json:"media_document"`
}
