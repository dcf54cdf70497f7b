package postgres

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const (
	createRoomExportsTable = `
		CREATE TABLE IF NOT EXISTS room_exports (
			id BIGSERIAL PRIMARY KEY,
			room_code VARCHAR(6) NOT NULL,
			host VARCHAR(20) NOT NULL,
			players TEXT[] NOT NULL,
			cards_played INT NOT NULL DEFAULT 0,
			is_final BOOLEAN NOT NULL DEFAULT FALSE,
			results JSONB NOT NULL,
			exported_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`

	createCardResponsesTable = `
		CREATE TABLE IF NOT EXISTS card_responses (
			room_code VARCHAR(6) NOT NULL,
			card_index INT NOT NULL,
			prompt_text TEXT NOT NULL,
			username VARCHAR(20) NOT NULL,
			choice VARCHAR(10) NOT NULL, -- 'support', 'erode', 'depends'
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_code, card_index, username)
		);`

	createIndexes = `
		CREATE INDEX IF NOT EXISTS idx_room_exports_room_code ON room_exports(room_code);
		CREATE INDEX IF NOT EXISTS idx_room_exports_final ON room_exports(is_final) WHERE is_final;
		CREATE INDEX IF NOT EXISTS idx_card_responses_choice ON card_responses(choice);`
)

func initDB(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"room_exports", createRoomExportsTable},
		{"card_responses", createCardResponsesTable},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create '%s' table: %w", table.name, err)
		}
	}

	if _, err := db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	zap.L().Info("Database tables initialized")
	return nil
}
