package service

import (
	"context"

	"gowa-pairing/internal/model"
)

// EventHandler receives *model.QREvent, *model.StateEvent and *model.CredentialsEvent
// values, in the order the connection emits them.
type EventHandler func(evt interface{})

// Provider opens connections bound to a session's persisted credentials.
type Provider interface {
	Connect(ctx context.Context, sessionID string, handler EventHandler) (Connection, error)
}

// Connection is one live login connection.
type Connection interface {
	// PairPhone requests a pairing code for phone, given as digits only.
	PairPhone(ctx context.Context, phone string) (string, error)
	// Identity is nil until the device is logged in.
	Identity() *model.Identity
	Logout(ctx context.Context) error
	// Close disconnects and makes the handler inert.
	Close()
}
