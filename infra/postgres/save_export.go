package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/skyraal/humanaiconnection/domain"
)

const (
	insertExportQuery = `
		INSERT INTO room_exports (room_code, host, players, cards_played, is_final, results, exported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	upsertResponseQuery = `
		INSERT INTO card_responses (room_code, card_index, prompt_text, username, choice, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_code, card_index, username) DO NOTHING`
)

// Save stores the record and the individual answers it contains. Answers of a
// card are written once; later records of the same room only add new cards.
func (r *Repository) Save(ctx context.Context, record domain.ResultsExport) error {
	results, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertExportQuery,
		record.RoomCode, record.Host, pq.Array(record.Players), len(record.Cards), record.Final, results, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert export of room %s: %w", record.RoomCode, err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertResponseQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare card responses: %w", err)
	}
	defer stmt.Close()

	for _, row := range responseRows(record) {
		if _, err := stmt.ExecContext(ctx, record.RoomCode, row.cardIndex, row.promptText, row.username, row.choice, record.Timestamp); err != nil {
			return fmt.Errorf("failed to insert response of %s on card %d: %w", row.username, row.cardIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type cardResponse struct {
	cardIndex  int
	promptText string
	username   string
	choice     string
}

// responseRows flattens the answers of a record, ordered by card then
// username. Players who never answered a card get no row.
func responseRows(record domain.ResultsExport) []cardResponse {
	var rows []cardResponse
	for _, card := range record.Cards {
		names := make([]string, 0, len(card.ChoicesByUsername))
		for username, choice := range card.ChoicesByUsername {
			if choice.IsSet() {
				names = append(names, username)
			}
		}
		sort.Strings(names)
		for _, username := range names {
			rows = append(rows, cardResponse{
				cardIndex:  card.CardIndex,
				promptText: card.PromptText,
				username:   username,
				choice:     string(card.ChoicesByUsername[username]),
			})
		}
	}
	return rows
}
