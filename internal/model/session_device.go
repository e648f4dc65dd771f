// internal/model/session_device.go
package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SessionDeviceStore maps a session id to the JID of the whatsmeow device
// holding its credentials. Queries use ? and are rebound per driver.
type SessionDeviceStore struct {
	db *sqlx.DB
}

func NewSessionDeviceStore(db *sqlx.DB) *SessionDeviceStore {
	return &SessionDeviceStore{db: db}
}

func (s *SessionDeviceStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS session_devices (
			session_id VARCHAR(128) PRIMARY KEY,
			jid        VARCHAR(255) NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create session_devices: %w", err)
	}
	return nil
}

// GetJID returns "" when the session has never been paired.
func (s *SessionDeviceStore) GetJID(ctx context.Context, sessionID string) (string, error) {
	query := s.db.Rebind(`SELECT jid FROM session_devices WHERE session_id = ?`)

	var jid string
	err := s.db.GetContext(ctx, &jid, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session device: %w", err)
	}
	return jid, nil
}

func (s *SessionDeviceStore) Save(ctx context.Context, sessionID, jid string) error {
	query := `
		INSERT INTO session_devices (session_id, jid, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (session_id)
		DO UPDATE SET jid = EXCLUDED.jid, updated_at = CURRENT_TIMESTAMP`
	if s.db.DriverName() == "mysql" {
		query = `
			INSERT INTO session_devices (session_id, jid, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE jid = VALUES(jid), updated_at = CURRENT_TIMESTAMP`
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), sessionID, jid); err != nil {
		return fmt.Errorf("failed to save session device: %w", err)
	}
	return nil
}

func (s *SessionDeviceStore) Delete(ctx context.Context, sessionID string) error {
	query := s.db.Rebind(`DELETE FROM session_devices WHERE session_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session device: %w", err)
	}
	return nil
}
