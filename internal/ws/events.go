package ws

import (
	"time"

	"gowa-pairing/internal/model"
)

const (
	EventQRGenerated          = "QR_GENERATED"
	EventSessionStateChanged  = "SESSION_STATE_CHANGED"
	EventSessionAuthenticated = "SESSION_AUTHENTICATED"
)

// WsEvent adalah envelope untuk semua event yang dikirim ke FE / webhook.
type WsEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data"`
}

type QRGeneratedData struct {
	QRData    string    `json:"qr_data"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionStateChangedData struct {
	Connection model.ConnectionState `json:"connection"`
	LoggedOut  bool                  `json:"logged_out"`
}

type SessionAuthenticatedData struct {
	User model.Identity `json:"user"`
}

// RealtimePublisher adalah interface yang dipegang oleh registry
// agar tidak tergantung langsung ke Hub.
type RealtimePublisher interface {
	Publish(event WsEvent)
}

// Fanout publishes every event to each of its publishers in order.
type Fanout []RealtimePublisher

func (f Fanout) Publish(event WsEvent) {
	for _, p := range f {
		if p != nil {
			p.Publish(event)
		}
	}
}
