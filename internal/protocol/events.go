package protocol

import (
	"encoding/json"

	"github.com/skyraal/humanaiconnection/domain"
)

// Event is a server to client message. Every concrete type below is one
// variant of the outbound vocabulary.
type Event interface {
	EventType() string
}

type outboundFrame struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Encode renders e as a `{"type": ..., "data": ...}` frame.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: e.EventType(), Data: e})
}

type RoomCreated struct {
	Code     string              `json:"code"`
	PlayerID string              `json:"playerId"`
	IsHost   bool                `json:"isHost"`
	Room     domain.RoomSnapshot `json:"room"`
}

type RoomJoined struct {
	Code         string              `json:"code"`
	PlayerID     string              `json:"playerId"`
	IsHost       bool                `json:"isHost"`
	IsLateJoiner bool                `json:"isLateJoiner"`
	MissedCards  []domain.MissedCard `json:"missedCards,omitempty"`
	CurrentCard  *domain.CardView    `json:"currentCard,omitempty"`
	Room         domain.RoomSnapshot `json:"room"`
}

type UpdateRoom struct {
	domain.RoomSnapshot
}

type GameStarted struct {
	domain.CardView
}

type ChoicesRevealed struct {
	Choices           map[string]domain.Choice `json:"choices"`
	ChoicesByUsername map[string]domain.Choice `json:"choicesByUsername"`
}

type ChoiceUpdated struct {
	PlayerID string        `json:"playerId"`
	Choice   domain.Choice `json:"choice"`
}

type NewCard struct {
	domain.CardView
}

type GameOver struct {
	Results domain.ResultsExport `json:"results"`
}

type PlayerJoined struct {
	Username     string `json:"username"`
	IsLateJoiner bool   `json:"isLateJoiner"`
}

type PlayerLeft struct {
	Username string `json:"username"`
}

type NewHost struct {
	HostID string `json:"hostId"`
}

type Reconnected struct {
	Room        domain.RoomSnapshot `json:"room"`
	PlayerID    string              `json:"playerId"`
	IsHost      bool                `json:"isHost"`
	MissedCards []domain.MissedCard `json:"missedCards,omitempty"`
}

type MissedCards struct {
	List []domain.MissedCard `json:"list"`
}

type RoomClosed struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type Error struct {
	Message string      `json:"message"`
	Kind    domain.Kind `json:"kind"`
}

// ErrorFrom turns a rejected operation into the error event sent back to the
// requester. Internal faults never leak their detail.
func ErrorFrom(err error) Error {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		return Error{Message: domain.ErrInternal.Error(), Kind: kind}
	}
	return Error{Message: err.Error(), Kind: kind}
}

func (RoomCreated) EventType() string     { return "room_created" }
func (RoomJoined) EventType() string      { return "room_joined" }
func (UpdateRoom) EventType() string      { return "update_room" }
func (GameStarted) EventType() string     { return "game_started" }
func (ChoicesRevealed) EventType() string { return "choices_revealed" }
func (ChoiceUpdated) EventType() string   { return "choice_updated" }
func (NewCard) EventType() string         { return "new_card" }
func (GameOver) EventType() string        { return "game_over" }
func (PlayerJoined) EventType() string    { return "player_joined" }
func (PlayerLeft) EventType() string      { return "player_left" }
func (NewHost) EventType() string         { return "new_host" }
func (Reconnected) EventType() string     { return "reconnected" }
func (MissedCards) EventType() string     { return "missed_cards" }
func (RoomClosed) EventType() string      { return "room_closed" }
func (Error) EventType() string           { return "error" }
