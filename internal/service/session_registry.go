package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gowa-pairing/internal/helper"
	"gowa-pairing/internal/model"
	"gowa-pairing/internal/ws"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultQRTimeout   = 25 * time.Second
	DefaultQRFreshness = 20 * time.Second
	DefaultPairTimeout = 60 * time.Second

	// DefaultCreateTimeout bounds one provider Connect call.
	DefaultCreateTimeout = 30 * time.Second
)

type RegistryOptions struct {
	QRTimeout   time.Duration
	QRFreshness time.Duration
	PairTimeout time.Duration
	// CreateTimeout bounds session creation, independent of any caller.
	CreateTimeout time.Duration

	Realtime ws.RealtimePublisher
	Logger   zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// entry is a registry slot. ready is closed once the provider call for
// sess has finished; err is set when it failed.
type entry struct {
	sess  *Session
	ready chan struct{}
	err   error
}

// Registry owns every session of the process, keyed by session id.
type Registry struct {
	provider Provider

	qrTimeout     time.Duration
	qrFreshness   time.Duration
	pairTimeout   time.Duration
	createTimeout time.Duration
	realtime      ws.RealtimePublisher
	log           zerolog.Logger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

func NewRegistry(provider Provider, opts RegistryOptions) *Registry {
	r := &Registry{
		provider:      provider,
		qrTimeout:     opts.QRTimeout,
		qrFreshness:   opts.QRFreshness,
		pairTimeout:   opts.PairTimeout,
		createTimeout: opts.CreateTimeout,
		realtime:      opts.Realtime,
		log:           opts.Logger.With().Str("module", "registry").Logger(),
		now:           opts.Now,
		sessions:      make(map[string]*entry),
	}
	if r.qrTimeout <= 0 {
		r.qrTimeout = DefaultQRTimeout
	}
	if r.qrFreshness <= 0 {
		r.qrFreshness = DefaultQRFreshness
	}
	if r.pairTimeout <= 0 {
		r.pairTimeout = DefaultPairTimeout
	}
	if r.createTimeout <= 0 {
		r.createTimeout = DefaultCreateTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func (r *Registry) publish(evt ws.WsEvent) {
	if r.realtime == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = r.now().UTC()
	}
	r.realtime.Publish(evt)
}

// GetOrCreateSession returns the live session for id, creating it and its
// connection on first use. An empty id gets a random one. Concurrent calls
// for the same id share one provider call; a failed call stores nothing.
// The provider call does not depend on any caller's ctx, so a caller that
// gives up only ends its own wait.
func (r *Registry) GetOrCreateSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrRegistryClosed
		}

		e, exists := r.sessions[id]
		if !exists {
			e = &entry{sess: newSession(r, id), ready: make(chan struct{})}
			r.sessions[id] = e
			go r.connect(context.WithoutCancel(ctx), e)
		}
		r.mu.Unlock()

		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		if !e.sess.closed() {
			return e.sess, nil
		}

		// session mati (logout / qr habis), ganti dengan yang baru
		r.mu.Lock()
		if r.sessions[id] == e {
			delete(r.sessions, id)
		}
		r.mu.Unlock()
	}
}

func (r *Registry) connect(ctx context.Context, e *entry) {
	defer close(e.ready)

	ctx, cancel := context.WithTimeout(ctx, r.createTimeout)
	defer cancel()

	sess := e.sess
	conn, err := r.provider.Connect(ctx, sess.ID, sess.handle)
	if err != nil {
		e.err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)

		r.mu.Lock()
		if r.sessions[sess.ID] == e {
			delete(r.sessions, sess.ID)
		}
		r.mu.Unlock()

		// subscribers may already have seen this session connecting
		if sess.Status().Connection != model.StateInitializing {
			sess.handle(&model.StateEvent{State: model.StateClosed})
		}

		r.log.Error().Err(err).Str("session", sess.ID).Msg("Failed to create session")
		return
	}

	sess.attach(conn)
	r.log.Info().Str("session", sess.ID).Msg("✓ Session created")
}

// lookup returns the session stored for id, or ErrUnknownSession.
func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return e.sess, nil
}

// GetQR returns the logged in identity, a QR cached within the freshness
// window, or the next QR the connection emits. It gives up with ErrQRTimeout
// once the QR timeout elapses.
func (r *Registry) GetQR(ctx context.Context, id string) (QRResult, error) {
	sess, err := r.GetOrCreateSession(ctx, id)
	if err != nil {
		return QRResult{}, err
	}

	sess.mu.Lock()
	if sess.identity != nil {
		user := *sess.identity
		sess.mu.Unlock()
		return QRResult{SessionID: sess.ID, Identity: &user}, nil
	}
	if sess.state == model.StateClosed {
		sess.mu.Unlock()
		return QRResult{SessionID: sess.ID}, ErrProviderUnavailable
	}
	if qr := sess.lastQR; qr != nil && r.now().Sub(qr.at) < r.qrFreshness {
		sess.mu.Unlock()
		return QRResult{SessionID: sess.ID, QR: qr.code}, nil
	}
	w := newFuture[QRResult]()
	sess.waiters[w] = struct{}{}
	sess.mu.Unlock()
	defer sess.removeWaiter(w)

	timer := time.AfterFunc(r.qrTimeout, func() {
		w.resolve(QRResult{}, ErrQRTimeout)
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		w.resolve(QRResult{}, ctx.Err())
	})
	defer stop()

	<-w.Done()
	res, err := w.result()
	if err != nil {
		return QRResult{SessionID: sess.ID}, err
	}
	return res, nil
}

// RequestPairingCode asks the connection for a pairing code for phone. Non
// digits are stripped first; nothing is left means ErrInvalidPhoneNumber.
func (r *Registry) RequestPairingCode(ctx context.Context, id, phone string) (PairResult, error) {
	digits := helper.DigitsOnly(phone)
	if digits == "" {
		return PairResult{SessionID: id}, ErrInvalidPhoneNumber
	}

	sess, err := r.GetOrCreateSession(ctx, id)
	if err != nil {
		return PairResult{SessionID: id}, err
	}

	sess.mu.Lock()
	identity, conn := sess.identity, sess.conn
	sess.mu.Unlock()

	if identity != nil {
		user := *identity
		return PairResult{SessionID: sess.ID, Identity: &user}, nil
	}
	if conn == nil {
		return PairResult{SessionID: sess.ID}, ErrProviderUnavailable
	}

	pairCtx, cancel := context.WithTimeout(ctx, r.pairTimeout)
	defer cancel()

	code, err := conn.PairPhone(pairCtx, digits)
	if err != nil {
		r.log.Warn().Err(err).Str("session", sess.ID).Msg("Pairing code request failed")
		return PairResult{SessionID: sess.ID}, fmt.Errorf("%w: %v", ErrPairingCodeUnavailable, err)
	}

	return PairResult{SessionID: sess.ID, Code: NormalizePairingCode(code)}, nil
}

// GetStatus never creates a session.
func (r *Registry) GetStatus(id string) (model.SessionStatus, error) {
	sess, err := r.lookup(id)
	if err != nil {
		return model.SessionStatus{}, err
	}
	return sess.Status(), nil
}

// List returns a snapshot of every session, oldest first.
func (r *Registry) List() []model.SessionStatus {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e.sess)
	}
	r.mu.Unlock()

	out := make([]model.SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Status())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Logout unlinks the device and closes the session. The session stays
// visible with state closed until it is requested again.
func (r *Registry) Logout(ctx context.Context, id string) error {
	sess, err := r.lookup(id)
	if err != nil {
		return err
	}

	var logoutErr error
	if conn := sess.connection(); conn != nil {
		if err := conn.Logout(ctx); err != nil {
			r.log.Warn().Err(err).Str("session", id).Msg("Failed to logout from WhatsApp")
			logoutErr = err
		}
	}

	sess.handle(&model.StateEvent{State: model.StateClosed, LoggedOut: true})
	return logoutErr
}

// Close disconnects every session. The registry rejects new sessions afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	entries := make([]*entry, 0, len(r.sessions))
	for _, e := range r.sessions {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		if conn := e.sess.connection(); conn != nil {
			conn.Close()
		}
	}
	r.log.Info().Int("sessions", len(entries)).Msg("Session registry closed")
}
