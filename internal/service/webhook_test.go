package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gowa-pairing/internal/ws"

	"github.com/rs/zerolog"
)

func TestWebhookPublisherSignsPayload(t *testing.T) {
	type delivery struct {
		body      []byte
		signature string
	}
	got := make(chan delivery, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- delivery{body: body, signature: r.Header.Get(SignatureHeader)}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pub := NewWebhookPublisher(srv.URL, "s3cret", zerolog.Nop())
	pub.Publish(ws.WsEvent{Event: ws.EventQRGenerated, SessionID: "s1"})

	select {
	case d := <-got:
		if d.signature != Sign("s3cret", d.body) {
			t.Errorf("signature = %q, want HMAC of body", d.signature)
		}
		var evt ws.WsEvent
		if err := json.Unmarshal(d.body, &evt); err != nil {
			t.Fatalf("body is not a WsEvent: %v", err)
		}
		if evt.Event != ws.EventQRGenerated || evt.SessionID != "s1" || evt.Timestamp.IsZero() {
			t.Errorf("delivered event = %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestWebhookPublisherWithoutSecret(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get(SignatureHeader)
	}))
	defer srv.Close()

	NewWebhookPublisher(srv.URL, "", zerolog.Nop()).Publish(ws.WsEvent{Event: ws.EventSessionStateChanged})

	select {
	case sig := <-got:
		if sig != "" {
			t.Errorf("signature header = %q, want none", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}
