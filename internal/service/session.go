package service

import (
	"sync"
	"time"

	"gowa-pairing/internal/model"
	"gowa-pairing/internal/ws"
)

// QRResult is either a QR payload or, when the session is already logged
// in, the identity it is logged in as.
type QRResult struct {
	SessionID string
	QR        string
	Identity  *model.Identity
}

func (r QRResult) Authenticated() bool { return r.Identity != nil }

// PairResult is either a normalized pairing code or the logged in identity.
type PairResult struct {
	SessionID string
	Code      string
	Identity  *model.Identity
}

func (r PairResult) Authenticated() bool { return r.Identity != nil }

type cachedQR struct {
	code string
	at   time.Time
}

// Session is one logical login, owning at most one connection.
type Session struct {
	ID        string
	CreatedAt time.Time

	reg *Registry

	mu       sync.Mutex
	conn     Connection
	state    model.ConnectionState
	identity *model.Identity
	lastQR   *cachedQR
	waiters  map[*future[QRResult]]struct{}
}

func newSession(reg *Registry, id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: reg.now(),
		reg:       reg,
		state:     model.StateInitializing,
		waiters:   make(map[*future[QRResult]]struct{}),
	}
}

func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := model.SessionStatus{
		ID:         s.ID,
		Connection: s.state,
		CreatedAt:  s.CreatedAt,
	}
	if s.identity != nil {
		id := *s.identity
		status.User = &id
	}
	if s.lastQR != nil {
		at := s.lastQR.at
		status.QRAt = &at
	}
	return status
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == model.StateClosed
}

func (s *Session) connection() Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// attach stores the connection returned by the provider. A connection that
// already reported a terminal close before Connect returned is released.
func (s *Session) attach(conn Connection) {
	s.mu.Lock()
	if s.state != model.StateClosed {
		s.conn = conn
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	go conn.Close()
}

// takeWaitersLocked detaches all pending QR waiters. Caller holds s.mu.
func (s *Session) takeWaitersLocked() []*future[QRResult] {
	out := make([]*future[QRResult], 0, len(s.waiters))
	for w := range s.waiters {
		out = append(out, w)
		delete(s.waiters, w)
	}
	return out
}

func (s *Session) removeWaiter(w *future[QRResult]) {
	s.mu.Lock()
	delete(s.waiters, w)
	s.mu.Unlock()
}

// handle is the EventHandler registered with the provider for this session.
func (s *Session) handle(evt interface{}) {
	switch e := evt.(type) {
	case *model.QREvent:
		s.onQR(e)
	case *model.CredentialsEvent:
		s.onCredentials(e)
	case *model.StateEvent:
		s.onState(e)
	}
}

func (s *Session) onQR(e *model.QREvent) {
	now := s.reg.now()

	s.mu.Lock()
	if s.identity != nil {
		s.mu.Unlock()
		return
	}
	s.lastQR = &cachedQR{code: e.Code, at: now}
	waiters := s.takeWaitersLocked()
	s.mu.Unlock()

	for _, w := range waiters {
		w.resolve(QRResult{SessionID: s.ID, QR: e.Code}, nil)
	}

	s.reg.log.Debug().Str("session", s.ID).Int("waiters", len(waiters)).Msg("QR code received")
	s.reg.publish(ws.WsEvent{
		Event:     ws.EventQRGenerated,
		SessionID: s.ID,
		Data:      ws.QRGeneratedData{QRData: e.Code, ExpiresAt: now.Add(s.reg.qrFreshness)},
	})
}

func (s *Session) onCredentials(e *model.CredentialsEvent) {
	s.mu.Lock()
	if s.identity != nil {
		s.mu.Unlock()
		return
	}
	id := e.Identity
	s.identity = &id
	s.lastQR = nil
	waiters := s.takeWaitersLocked()
	s.mu.Unlock()

	for _, w := range waiters {
		user := id
		w.resolve(QRResult{SessionID: s.ID, Identity: &user}, nil)
	}

	s.reg.log.Info().Str("session", s.ID).Str("jid", id.JID).Msg("✓ Session authenticated")
	s.reg.publish(ws.WsEvent{
		Event:     ws.EventSessionAuthenticated,
		SessionID: s.ID,
		Data:      ws.SessionAuthenticatedData{User: id},
	})
}

func (s *Session) onState(e *model.StateEvent) {
	s.mu.Lock()
	if s.state == model.StateClosed {
		// closed is terminal for this Session; a fresh one replaces it
		s.mu.Unlock()
		return
	}
	s.state = e.State
	if e.LoggedOut {
		s.identity = nil
		s.lastQR = nil
	}

	var (
		waiters []*future[QRResult]
		conn    Connection
	)
	if e.State == model.StateClosed {
		waiters = s.takeWaitersLocked()
		conn, s.conn = s.conn, nil
	}
	s.mu.Unlock()

	for _, w := range waiters {
		w.resolve(QRResult{}, ErrProviderUnavailable)
	}
	if conn != nil {
		// Close may wait on the provider's event loop, which is running us.
		go conn.Close()
	}

	s.reg.log.Info().Str("session", s.ID).Str("state", string(e.State)).Bool("logged_out", e.LoggedOut).Msg("Session state changed")
	s.reg.publish(ws.WsEvent{
		Event:     ws.EventSessionStateChanged,
		SessionID: s.ID,
		Data:      ws.SessionStateChangedData{Connection: e.State, LoggedOut: e.LoggedOut},
	})
}
