package domain

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidPhase  = errors.New("invalid phase")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrRoomFull      = errors.New("room full")
	ErrDuplicateName = errors.New("duplicate name")
	ErrGameEnded     = errors.New("game ended")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrInternal      = errors.New("internal error")
)

// Kind is the error class reported to clients in the error event.
type Kind string

const (
	KindInvalidInput  Kind = "InvalidInput"
	KindNotFound      Kind = "NotFound"
	KindUnauthorized  Kind = "Unauthorized"
	KindInvalidPhase  Kind = "InvalidPhase"
	KindInvalidChoice Kind = "InvalidChoice"
	KindRoomFull      Kind = "RoomFull"
	KindDuplicateName Kind = "DuplicateName"
	KindGameEnded     Kind = "GameEnded"
	KindCapacity      Kind = "Capacity"
	KindInternal      Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidPhase, KindInvalidPhase},
	{ErrInvalidChoice, KindInvalidChoice},
	{ErrRoomFull, KindRoomFull},
	{ErrDuplicateName, KindDuplicateName},
	{ErrGameEnded, KindGameEnded},
	{ErrCapacity, KindCapacity},
}

// KindOf classifies err. Anything that does not wrap one of the sentinel
// errors above is an internal fault.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
