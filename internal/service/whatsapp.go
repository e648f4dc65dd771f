package service

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"gowa-pairing/internal/model"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const routingTimeout = 5 * time.Second

// SessionDevices remembers which whatsmeow device belongs to a session.
type SessionDevices interface {
	GetJID(ctx context.Context, sessionID string) (string, error)
	Save(ctx context.Context, sessionID, jid string) error
	Delete(ctx context.Context, sessionID string) error
}

// WhatsmeowProvider opens whatsmeow clients with credentials kept in a sqlstore container.
type WhatsmeowProvider struct {
	container *sqlstore.Container
	devices   SessionDevices
	log       zerolog.Logger
}

func NewWhatsmeowProvider(container *sqlstore.Container, devices SessionDevices, deviceName string, log zerolog.Logger) *WhatsmeowProvider {
	// Set device name SEBELUM create device (ini global setting)
	if deviceName != "" {
		store.DeviceProps.Os = proto.String(deviceName)
	}

	return &WhatsmeowProvider{
		container: container,
		devices:   devices,
		log:       log.With().Str("module", "whatsmeow").Logger(),
	}
}

func (p *WhatsmeowProvider) loadDevice(ctx context.Context, sessionID string) (*store.Device, error) {
	jid, err := p.devices.GetJID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session device: %w", err)
	}
	if jid == "" {
		return p.container.NewDevice(), nil
	}

	parsed, err := types.ParseJID(jid)
	if err != nil {
		return nil, fmt.Errorf("parse stored jid %q: %w", jid, err)
	}
	device, err := p.container.GetDevice(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("load device %s: %w", jid, err)
	}
	if device == nil {
		// routing row outlived the device store, start over
		p.log.Warn().Str("session", sessionID).Str("jid", jid).Msg("Stored device not found, creating new device")
		return p.container.NewDevice(), nil
	}
	return device, nil
}

func (p *WhatsmeowProvider) Connect(ctx context.Context, sessionID string, handler EventHandler) (Connection, error) {
	device, err := p.loadDevice(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	clientLog := waLog.Zerolog(p.log.With().Str("session", sessionID).Logger())
	client := whatsmeow.NewClient(device, clientLog)
	client.EnableAutoReconnect = true

	// lifetime koneksi tidak ikut context request
	connCtx, cancel := context.WithCancel(context.Background())
	conn := &whatsmeowConnection{
		sessionID: sessionID,
		client:    client,
		devices:   p.devices,
		handler:   handler,
		cancel:    cancel,
		log:       p.log.With().Str("session", sessionID).Logger(),
	}
	client.AddEventHandler(conn.eventHandler)

	// Device belum pernah login, QR channel harus dibuat sebelum Connect
	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(connCtx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("get qr channel: %w", err)
		}
		go conn.watchQR(qrChan)
	}

	handler(&model.StateEvent{State: model.StateConnecting})
	if err := client.Connect(); err != nil {
		cancel()
		client.RemoveEventHandlers()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return conn, nil
}

type whatsmeowConnection struct {
	sessionID string
	client    *whatsmeow.Client
	devices   SessionDevices
	handler   EventHandler
	cancel    context.CancelFunc
	closed    atomic.Bool
	log       zerolog.Logger
}

func (c *whatsmeowConnection) emit(evt interface{}) {
	if c.closed.Load() {
		return
	}
	c.handler(evt)
}

func (c *whatsmeowConnection) Identity() *model.Identity {
	if c.client.Store.ID == nil {
		return nil
	}
	id := identityFromJID(*c.client.Store.ID, c.client.Store.PushName)
	return &id
}

func (c *whatsmeowConnection) PairPhone(ctx context.Context, phone string) (string, error) {
	return c.client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome ("+runtime.GOOS+")")
}

// Logout unlinks the device from the phone and forgets the session's device.
func (c *whatsmeowConnection) Logout(ctx context.Context) error {
	if c.client.Store.ID == nil {
		return nil
	}
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	c.forgetRouting()
	return nil
}

func (c *whatsmeowConnection) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.cancel()
	c.client.RemoveEventHandlers()
	c.client.Disconnect()
}

func (c *whatsmeowConnection) saveRouting(jid string) {
	ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
	defer cancel()
	if err := c.devices.Save(ctx, c.sessionID, jid); err != nil {
		c.log.Warn().Err(err).Str("jid", jid).Msg("Failed to save session device")
	}
}

func (c *whatsmeowConnection) forgetRouting() {
	ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
	defer cancel()
	if err := c.devices.Delete(ctx, c.sessionID); err != nil {
		c.log.Warn().Err(err).Msg("Failed to delete session device")
	}
}

// eventHandler handles whatsmeow events for one session.
func (c *whatsmeowConnection) eventHandler(evt interface{}) {
	if c.closed.Load() {
		return
	}

	switch v := evt.(type) {
	case *events.PairSuccess:
		c.log.Info().Str("jid", v.ID.String()).Msg("✓ Pair Success!")
		c.saveRouting(v.ID.String())

	case *events.Connected:
		if id := c.client.Store.ID; id != nil {
			c.saveRouting(id.String())
		}

	case *events.LoggedOut:
		c.log.Warn().Str("reason", v.Reason.String()).Msg("✗ Logged out!")
		if c.client.Store.ID != nil {
			ctx, cancel := context.WithTimeout(context.Background(), routingTimeout)
			if err := c.client.Store.Delete(ctx); err != nil {
				c.log.Warn().Err(err).Msg("Failed to delete device store")
			}
			cancel()
		}
		c.forgetRouting()

	case *events.StreamReplaced:
		c.log.Warn().Msg("⚠ Stream replaced!")
	}

	for _, out := range translateEvent(evt, c.Identity) {
		c.emit(out)
	}
}

func (c *whatsmeowConnection) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		if out := translateQRItem(item); out != nil {
			if item.Event != whatsmeow.QRChannelEventCode {
				c.log.Info().Str("event", item.Event).Err(item.Error).Msg("QR channel finished")
			}
			c.emit(out)
		}
	}
}

func identityFromJID(jid types.JID, name string) model.Identity {
	return model.Identity{
		JID:   jid.String(),
		Phone: jid.User,
		Name:  name,
	}
}

// translateEvent maps a whatsmeow event to the provider events it implies.
func translateEvent(evt interface{}, identity func() *model.Identity) []interface{} {
	switch v := evt.(type) {
	case *events.Connected:
		out := []interface{}{&model.StateEvent{State: model.StateOpen}}
		if id := identity(); id != nil {
			out = append(out, &model.CredentialsEvent{Identity: *id})
		}
		return out

	case *events.PairSuccess:
		return []interface{}{&model.CredentialsEvent{Identity: identityFromJID(v.ID, v.BusinessName)}}

	case *events.Disconnected:
		return []interface{}{&model.StateEvent{State: model.StateConnecting}}

	case *events.LoggedOut:
		return []interface{}{&model.StateEvent{State: model.StateClosed, LoggedOut: true}}

	case *events.StreamReplaced:
		return []interface{}{&model.StateEvent{State: model.StateClosed}}
	}
	return nil
}

// translateQRItem maps a QR channel item. "success" is covered by PairSuccess;
// timeout and errors end the login attempt.
func translateQRItem(item whatsmeow.QRChannelItem) interface{} {
	switch item.Event {
	case whatsmeow.QRChannelEventCode:
		return &model.QREvent{Code: item.Code}
	case whatsmeow.QRChannelSuccess.Event:
		return nil
	default:
		return &model.StateEvent{State: model.StateClosed}
	}
}
