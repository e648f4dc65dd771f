package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, r.URL.Query().Get("session"))
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) WsEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	var evt WsEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("payload %q is not a WsEvent: %v", payload, err)
	}
	return evt
}

func TestHubBroadcastAndFilter(t *testing.T) {
	hub, srv := startHub(t)

	all := dial(t, srv, "")
	onlyS2 := dial(t, srv, "?session=s2")
	waitClients(t, hub, 2)

	hub.Publish(WsEvent{Event: EventQRGenerated, SessionID: "s1"})
	hub.Publish(WsEvent{Event: EventSessionAuthenticated, SessionID: "s2"})

	if evt := readEvent(t, all); evt.SessionID != "s1" || evt.Timestamp.IsZero() {
		t.Errorf("first event for unfiltered client = %+v", evt)
	}
	if evt := readEvent(t, all); evt.SessionID != "s2" {
		t.Errorf("second event for unfiltered client = %+v", evt)
	}
	if evt := readEvent(t, onlyS2); evt.SessionID != "s2" || evt.Event != EventSessionAuthenticated {
		t.Errorf("filtered client got %+v, want only s2 events", evt)
	}
}

func TestHubUnregistersClosedClient(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)

	_ = conn.Close()
	waitClients(t, hub, 0)
}

type countingPublisher struct{ n int }

func (p *countingPublisher) Publish(WsEvent) { p.n++ }

func TestFanout(t *testing.T) {
	a, b := &countingPublisher{}, &countingPublisher{}
	Fanout{a, nil, b}.Publish(WsEvent{Event: EventQRGenerated})
	if a.n != 1 || b.n != 1 {
		t.Errorf("publish counts = %d, %d, want 1, 1", a.n, b.n)
	}
}
