package service

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"gowa-pairing/internal/ws"

	"github.com/rs/zerolog"
)

const SignatureHeader = "X-Signature"

// WebhookPublisher POSTs session events to a single URL. It implements
// ws.RealtimePublisher so it can sit next to the websocket hub.
type WebhookPublisher struct {
	url    string
	secret string
	client *http.Client
	log    zerolog.Logger
}

func NewWebhookPublisher(url, secret string, log zerolog.Logger) *WebhookPublisher {
	return &WebhookPublisher{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log.With().Str("module", "webhook").Logger(),
	}
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (w *WebhookPublisher) Publish(event ws.WsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		w.log.Error().Err(err).Msg("webhook: marshal error")
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.Error().Err(err).Msg("webhook: new request error")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set(SignatureHeader, Sign(w.secret, body))
	}

	go func() {
		resp, err := w.client.Do(req)
		if err != nil {
			w.log.Warn().Err(err).Str("event", event.Event).Msg("webhook: send error")
			return
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			w.log.Warn().Int("status", resp.StatusCode).Str("event", event.Event).Msg("webhook: unexpected status")
		}
	}()
}
