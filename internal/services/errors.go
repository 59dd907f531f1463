package services

import "errors"

var (
	// ErrSessionNotConfigured means no WhatsappSession record exists for the name
	ErrSessionNotConfigured = errors.New("whatsapp session is not configured")
	// ErrSessionNotFound means no live handle exists for the name
	ErrSessionNotFound = errors.New("whatsapp session not found")
	// ErrSessionExists means a live handle is already registered for the name
	ErrSessionExists = errors.New("whatsapp session already exists")
	// ErrSessionNotConnected means a send was attempted without a live connection
	ErrSessionNotConnected = errors.New("whatsapp session is not connected")
)
