// Package protocol defines the tagged frames exchanged over a room socket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/skyraal/humanaiconnection/domain"
)

// Action is a client to server request. The set of variants is closed: only
// the types in this file implement it.
type Action interface {
	ActionType() string
	action()
}

// RoomScoped is implemented by every action that targets an existing room.
type RoomScoped interface {
	Action
	RoomCode() string
}

type roomRef struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}

func (r roomRef) RoomCode() string { return r.Code }

func (r *roomRef) normalize() { r.Code = strings.ToUpper(strings.TrimSpace(r.Code)) }

type CreateRoom struct {
	Username string `json:"username" validate:"required"`
}

type JoinRoom struct {
	roomRef
	Username string `json:"username" validate:"required"`
}

type StartGame struct{ roomRef }

type SubmitChoice struct {
	roomRef
	Choice string `json:"choice" validate:"required"`
}

type RevealChoices struct{ roomRef }

type UpdateChoice struct {
	roomRef
	Choice string `json:"choice" validate:"required"`
}

type NextCard struct{ roomRef }

type GetMissedCards struct{ roomRef }

type ReconnectAttempt struct {
	roomRef
	Username string `json:"username" validate:"required"`
}

type GetRoomData struct{ roomRef }

type LeaveRoom struct{ roomRef }

func (*CreateRoom) ActionType() string       { return "create_room" }
func (*JoinRoom) ActionType() string         { return "join_room" }
func (*StartGame) ActionType() string        { return "start_game" }
func (*SubmitChoice) ActionType() string     { return "submit_choice" }
func (*RevealChoices) ActionType() string    { return "reveal_choices" }
func (*UpdateChoice) ActionType() string     { return "update_choice" }
func (*NextCard) ActionType() string         { return "next_card" }
func (*GetMissedCards) ActionType() string   { return "get_missed_cards" }
func (*ReconnectAttempt) ActionType() string { return "reconnect_attempt" }
func (*GetRoomData) ActionType() string      { return "get_room_data" }
func (*LeaveRoom) ActionType() string        { return "leave_room" }

func (*CreateRoom) action()       {}
func (*JoinRoom) action()         {}
func (*StartGame) action()        {}
func (*SubmitChoice) action()     {}
func (*RevealChoices) action()    {}
func (*UpdateChoice) action()     {}
func (*NextCard) action()         {}
func (*GetMissedCards) action()   {}
func (*ReconnectAttempt) action() {}
func (*GetRoomData) action()      {}
func (*LeaveRoom) action()        {}

var actionTypes = map[string]func() Action{
	"create_room":       func() Action { return &CreateRoom{} },
	"join_room":         func() Action { return &JoinRoom{} },
	"start_game":        func() Action { return &StartGame{} },
	"submit_choice":     func() Action { return &SubmitChoice{} },
	"reveal_choices":    func() Action { return &RevealChoices{} },
	"update_choice":     func() Action { return &UpdateChoice{} },
	"next_card":         func() Action { return &NextCard{} },
	"get_missed_cards":  func() Action { return &GetMissedCards{} },
	"reconnect_attempt": func() Action { return &ReconnectAttempt{} },
	"get_room_data":     func() Action { return &GetRoomData{} },
	"leave_room":        func() Action { return &LeaveRoom{} },
}

type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var validate = validator.New()

// Decode parses one text frame into its action variant. Room codes are
// upper-cased before validation. Every failure wraps domain.ErrInvalidInput.
func Decode(raw []byte) (Action, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: malformed frame", domain.ErrInvalidInput)
	}
	newAction, ok := actionTypes[f.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, f.Type)
	}
	act := newAction()
	if len(f.Data) > 0 && string(f.Data) != "null" {
		if err := json.Unmarshal(f.Data, act); err != nil {
			return nil, fmt.Errorf("%w: malformed %s payload", domain.ErrInvalidInput, f.Type)
		}
	}
	if n, ok := act.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := validate.Struct(act); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describe(err))
	}
	return act, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len", "alphanum":
		return field + " must be 6 letters or digits"
	default:
		return field + " is invalid"
	}
}
