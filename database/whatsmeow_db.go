package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// InitWhatsmeow opens the whatsmeow device store and upgrades its schema.
func InitWhatsmeow(ctx context.Context, dbURL string, log zerolog.Logger) (*sqlstore.Container, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	dbLog := waLog.Zerolog(log.With().Str("module", "whatsmeow-db").Logger())
	container, err := sqlstore.New(ctx, "postgres", dbURL, dbLog)
	if err != nil {
		return nil, fmt.Errorf("init whatsmeow store: %w", err)
	}

	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("upgrade whatsmeow store: %w", err)
	}

	log.Info().Msg("Whatsmeow DB connected successfully")
	return container, nil
}
