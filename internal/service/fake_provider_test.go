package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gowa-pairing/internal/model"
	"gowa-pairing/internal/ws"
)

type fakeConn struct {
	mu        sync.Mutex
	pairCode  string
	pairErr   error
	pairCalls int
	lastPhone string
	logouts   int
	identity  *model.Identity

	closeOnce sync.Once
	closedCh  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closedCh: make(chan struct{})}
}

func (c *fakeConn) PairPhone(ctx context.Context, phone string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairCalls++
	c.lastPhone = phone
	return c.pairCode, c.pairErr
}

func (c *fakeConn) Identity() *model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *fakeConn) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logouts++
	return nil
}

func (c *fakeConn) Close() {
	c.closeOnce.Do(func() { close(c.closedCh) })
}

func (c *fakeConn) waitClosed(d time.Duration) bool {
	select {
	case <-c.closedCh:
		return true
	case <-time.After(d):
		return false
	}
}

type fakeProvider struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]EventHandler
	conns    map[string]*fakeConn
	failWith error
	delay    time.Duration
	// block, when set for an id, holds Connect until the channel is closed.
	block map[string]chan struct{}
	// setup customizes each new connection.
	setup func(*fakeConn)
	// preConnect runs with the session's handler before Connect succeeds or fails.
	preConnect func(id string, handler EventHandler)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		calls:    make(map[string]int),
		handlers: make(map[string]EventHandler),
		conns:    make(map[string]*fakeConn),
		block:    make(map[string]chan struct{}),
	}
}

func (p *fakeProvider) Connect(ctx context.Context, sessionID string, handler EventHandler) (Connection, error) {
	p.mu.Lock()
	p.calls[sessionID]++
	failWith, delay, block, pre := p.failWith, p.delay, p.block[sessionID], p.preConnect
	p.mu.Unlock()

	if pre != nil {
		pre(sessionID, handler)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failWith != nil {
		return nil, failWith
	}

	conn := newFakeConn()
	if p.setup != nil {
		p.setup(conn)
	}

	p.mu.Lock()
	p.handlers[sessionID] = handler
	p.conns[sessionID] = conn
	p.mu.Unlock()
	return conn, nil
}

func (p *fakeProvider) callCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func (p *fakeProvider) conn(id string) *fakeConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conns[id]
}

func (p *fakeProvider) emit(id string, evt interface{}) {
	p.mu.Lock()
	h := p.handlers[id]
	p.mu.Unlock()
	if h == nil {
		panic("no handler registered for " + id)
	}
	h(evt)
}

var errDial = errors.New("dial tcp: connection refused")

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.WsEvent
}

func (p *recordingPublisher) Publish(evt ws.WsEvent) {
	p.mu.Lock()
	p.events = append(p.events, evt)
	p.mu.Unlock()
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}
