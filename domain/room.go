package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseVoting     Phase = "voting"
	PhaseDiscussing Phase = "discussing"
	PhaseFinished   Phase = "finished"
)

// Choice is a player's answer for the current card. The zero value means the
// player has not answered yet and is encoded as JSON null.
type Choice string

const (
	ChoiceUnset   Choice = ""
	ChoiceSupport Choice = "support"
	ChoiceErode   Choice = "erode"
	ChoiceDepends Choice = "depends"
)

// ParseChoice accepts the three answers case-insensitively.
func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToLower(strings.TrimSpace(s))); c {
	case ChoiceSupport, ChoiceErode, ChoiceDepends:
		return c, nil
	default:
		return ChoiceUnset, fmt.Errorf("%w: %q is not one of support, erode, depends", ErrInvalidChoice, s)
	}
}

func (c Choice) IsSet() bool { return c != ChoiceUnset }

func (c Choice) MarshalJSON() ([]byte, error) {
	if c == ChoiceUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

type PlayerSnapshot struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	IsHost            bool   `json:"isHost"`
	Ready             bool   `json:"ready"`
	IsLateJoiner      bool   `json:"isLateJoiner"`
	JoinedAtCardIndex int    `json:"joinedAtCardIndex"`
}

// RoomSnapshot is an immutable copy of a room handed out by its coordinator.
// Choices is only filled once the choices of the current card were revealed.
type RoomSnapshot struct {
	Code             string            `json:"code"`
	HostID           string            `json:"hostId"`
	Players          []PlayerSnapshot  `json:"players"`
	Phase            Phase             `json:"phase"`
	CurrentCardIndex int               `json:"currentCardIndex"`
	CurrentCard      string            `json:"currentCard,omitempty"`
	TotalCards       int               `json:"totalCards"`
	RevealChoices    bool              `json:"revealChoices"`
	Choices          map[string]Choice `json:"choices,omitempty"`
	MaxPlayers       int               `json:"maxPlayers"`
	CreatedAt        time.Time         `json:"createdAt"`
	LastActivity     time.Time         `json:"lastActivity"`
}

func (s RoomSnapshot) Player(id string) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// CardView is the card currently on the table.
type CardView struct {
	Card       string `json:"card"`
	CardIndex  int    `json:"cardIndex"`
	TotalCards int    `json:"totalCards"`
}

// MissedCard is one frozen round as shown to a late joiner.
type MissedCard struct {
	CardIndex         int               `json:"cardIndex"`
	CardText          string            `json:"cardText"`
	Choices           map[string]Choice `json:"choices"`
	ChoicesByUsername map[string]Choice `json:"choicesByUsername"`
}

type CardResult struct {
	CardIndex         int               `json:"cardIndex"`
	PromptText        string            `json:"promptText"`
	ChoicesByUsername map[string]Choice `json:"choicesByUsername"`
}

// ResultsExport is the write-only audit record of a room's answers.
type ResultsExport struct {
	RoomCode  string       `json:"roomCode"`
	Timestamp time.Time    `json:"timestamp"`
	Host      string       `json:"host"`
	Players   []string     `json:"players"`
	Cards     []CardResult `json:"cards"`
	Final     bool         `json:"final"`
}
