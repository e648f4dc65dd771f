package model

import "time"

type ConnectionState string

const (
	StateInitializing ConnectionState = "initializing"
	StateConnecting   ConnectionState = "connecting"
	StateOpen         ConnectionState = "open"
	StateClosed       ConnectionState = "closed"
)

// Identity is the WhatsApp account a session is logged in as.
type Identity struct {
	JID   string `json:"jid"`
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

// Events emitted by a connection provider.

type QREvent struct {
	Code string
}

type StateEvent struct {
	State ConnectionState
	// LoggedOut means the credentials were revoked, not just the socket dropped.
	LoggedOut bool
}

type CredentialsEvent struct {
	Identity Identity
}

// SessionStatus is a point-in-time snapshot of a session.
type SessionStatus struct {
	ID         string          `json:"sessionId"`
	Connection ConnectionState `json:"connection"`
	User       *Identity       `json:"user"`
	QRAt       *time.Time      `json:"qrAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
