package httpUsecase

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRoom struct {
	snap domain.RoomSnapshot
	err  error
}

func (r stubRoom) Snapshot(context.Context) (domain.RoomSnapshot, error) { return r.snap, r.err }

type stubLookup map[string]Room

func (l stubLookup) LookupRoom(code string) (Room, error) {
	room, ok := l[code]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	return room, nil
}

func TestGetRoom(t *testing.T) {
	rooms := stubLookup{
		"ABC123": stubRoom{snap: domain.RoomSnapshot{Code: "ABC123", Phase: domain.PhaseLobby}},
		"DEAD00": stubRoom{err: domain.ErrInternal},
		"SLOW00": stubRoom{err: context.DeadlineExceeded},
	}
	uc := NewGetRoomUseCase(rooms)

	tests := []struct {
		code   string
		status int
		err    error
	}{
		{"ABC123", http.StatusOK, nil},
		{"ZZZ999", http.StatusNotFound, domain.ErrNotFound},
		{"DEAD00", http.StatusInternalServerError, domain.ErrInternal},
		{"SLOW00", http.StatusGatewayTimeout, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			snap, status, err := uc.Execute(context.Background(), tt.code)
			assert.Equal(t, tt.status, status)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, snap.Code)
		})
	}
}
