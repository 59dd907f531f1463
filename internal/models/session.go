package models

import (
	"gorm.io/gorm"
)

// WhatsappSession is the durable configuration record for one WhatsApp
// account connection. Deleting the record also removes the live handle;
// deactivating it only stops the session from being restored at startup.
type WhatsappSession struct {
	gorm.Model

	SessionName    string `json:"session_name" gorm:"uniqueIndex"`
	WhatsAppNumber string `json:"whatsapp_number"`
	WebhookURL     string `json:"webhook_url"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
	UserID         uint   `json:"user_id"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// SessionCreate is used for dashboard session creation
type SessionCreate struct {
	SessionName    string `json:"session_name" validate:"required"`
	WhatsAppNumber string `json:"whatsapp_number" validate:"required"`
	WebhookURL     string `json:"webhook_url"`
	IsActive       *bool  `json:"is_active"`
	UserID         uint   `json:"user_id" validate:"required"`
}

// SessionUpdate carries optional fields for PATCH requests
type SessionUpdate struct {
	WhatsAppNumber *string `json:"whatsapp_number"`
	WebhookURL     *string `json:"webhook_url"`
	IsActive       *bool   `json:"is_active"`
}
