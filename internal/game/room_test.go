package game

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/deck"
	"github.com/skyraal/humanaiconnection/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRoom(t *testing.T, maxPlayers int, cards ...string) *Room {
	t.Helper()
	d := deck.Default()
	if len(cards) > 0 {
		var err error
		d, err = deck.New(cards)
		require.NoError(t, err)
	}
	r, err := NewRoom("ABC123", "ava", "Ava", d, rand.New(rand.NewPCG(1, 2)), maxPlayers, t0)
	require.NoError(t, err)
	return r
}

func mustJoin(t *testing.T, r *Room, id, name string) Outcome {
	t.Helper()
	out, err := r.Join(id, name, t0)
	require.NoError(t, err)
	return out
}

func eventTypes(out Outcome) []string {
	types := make([]string, len(out.Deliveries))
	for i, d := range out.Deliveries {
		types[i] = d.Event.EventType()
	}
	return types
}

func playerIDs(r *Room) []string {
	return r.everyone()
}

// toDiscussing starts the game and reveals the first card with the given
// choices submitted.
func toDiscussing(t *testing.T, r *Room, choices map[string]string) {
	t.Helper()
	_, err := r.StartGame(r.hostID, t0)
	require.NoError(t, err)
	for id, c := range choices {
		_, err := r.SubmitChoice(id, c, t0)
		require.NoError(t, err)
	}
	_, err = r.RevealChoices(r.hostID, t0)
	require.NoError(t, err)
}

func TestNewRoomValidatesUsername(t *testing.T) {
	for _, name := range []string{"", " ", "A", "  B ", "abcdefghijklmnopqrstu"} {
		_, err := NewRoom("ABC123", "p", name, deck.Default(), rand.New(rand.NewPCG(1, 2)), 20, t0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "username %q", name)
	}

	r, err := NewRoom("ABC123", "p", "  Zoë  ", deck.Default(), rand.New(rand.NewPCG(1, 2)), 20, t0)
	require.NoError(t, err)
	assert.Equal(t, "Zoë", r.players[0].Username)
	assert.Equal(t, "p", r.HostID())
	assert.Equal(t, domain.PhaseLobby, r.Phase())
}

func TestCreatedOutcome(t *testing.T) {
	r := newTestRoom(t, 20)
	out := r.Created()

	assert.Equal(t, []string{"room_created", "update_room"}, eventTypes(out))
	created := out.Deliveries[0].Event.(protocol.RoomCreated)
	assert.True(t, created.IsHost)
	assert.Equal(t, "ABC123", created.Code)
	assert.Equal(t, "ava", created.PlayerID)
	assert.Equal(t, []string{"ava"}, out.Deliveries[0].To)
}

func TestJoin(t *testing.T) {
	r := newTestRoom(t, 20)
	out := mustJoin(t, r, "ben", "Ben")

	assert.Equal(t, []string{"room_joined", "player_joined", "update_room"}, eventTypes(out))
	assert.Equal(t, []string{"ben"}, out.Deliveries[0].To)
	assert.Equal(t, []string{"ava"}, out.Deliveries[1].To)
	assert.Equal(t, []string{"ava", "ben"}, out.Deliveries[2].To)

	joined := out.Deliveries[0].Event.(protocol.RoomJoined)
	assert.Equal(t, "ben", joined.PlayerID)
	assert.False(t, joined.IsLateJoiner)
	assert.False(t, joined.IsHost)
	assert.Nil(t, joined.CurrentCard)
	assert.Empty(t, joined.MissedCards)
}

func TestJoinGuards(t *testing.T) {
	t.Run("invalid username", func(t *testing.T) {
		r := newTestRoom(t, 20)
		_, err := r.Join("x", "X", t0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate is case sensitive", func(t *testing.T) {
		r := newTestRoom(t, 20)
		_, err := r.Join("x", "Ava", t0)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
		_, err = r.Join("x", " Ava ", t0)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
		mustJoin(t, r, "y", "ava")
	})

	t.Run("full is checked before duplicate", func(t *testing.T) {
		r := newTestRoom(t, 2)
		mustJoin(t, r, "ben", "Ben")
		_, err := r.Join("x", "Ben", t0)
		assert.ErrorIs(t, err, domain.ErrRoomFull)
	})

	t.Run("finished room", func(t *testing.T) {
		r := newTestRoom(t, 20, "only card")
		toDiscussing(t, r, nil)
		_, err := r.NextCard("ava", t0)
		require.NoError(t, err)
		require.Equal(t, domain.PhaseFinished, r.Phase())

		_, err = r.Join("x", "Xena", t0)
		assert.ErrorIs(t, err, domain.ErrGameEnded)
	})
}

func TestCapacity(t *testing.T) {
	r := newTestRoom(t, 20)
	for i := 1; i < 20; i++ {
		mustJoin(t, r, fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i))
	}
	require.Len(t, r.players, 20)

	_, err := r.Join("p20", "Player20", t0)
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.Len(t, r.players, 20)
	assert.NotContains(t, r.choices, "p20")
}

func TestLeaveHostMigration(t *testing.T) {
	t.Run("departing host hands over to next joined", func(t *testing.T) {
		r := newTestRoom(t, 20)
		mustJoin(t, r, "ben", "Ben")
		mustJoin(t, r, "cara", "Cara")

		out, err := r.Leave("ava", t0)
		require.NoError(t, err)
		assert.Equal(t, "ben", r.HostID())
		assert.Equal(t, []string{"player_left", "new_host", "update_room"}, eventTypes(out))
		assert.Equal(t, protocol.NewHost{HostID: "ben"}, out.Deliveries[1].Event)
		assert.Equal(t, []string{"ben", "cara"}, out.Deliveries[0].To)
	})

	t.Run("non host leaving keeps host", func(t *testing.T) {
		r := newTestRoom(t, 20)
		mustJoin(t, r, "ben", "Ben")
		mustJoin(t, r, "cara", "Cara")

		out, err := r.Leave("ben", t0)
		require.NoError(t, err)
		assert.Equal(t, "ava", r.HostID())
		assert.Equal(t, []string{"player_left", "update_room"}, eventTypes(out))
	})

	t.Run("successor follows join order", func(t *testing.T) {
		r := newTestRoom(t, 20)
		mustJoin(t, r, "ben", "Ben")
		mustJoin(t, r, "cara", "Cara")
		mustJoin(t, r, "dan", "Dan")

		_, err := r.Leave("ben", t0)
		require.NoError(t, err)
		_, err = r.Leave("ava", t0)
		require.NoError(t, err)
		assert.Equal(t, "cara", r.HostID())
		_, err = r.Leave("cara", t0)
		require.NoError(t, err)
		assert.Equal(t, "dan", r.HostID())
	})

	t.Run("last player empties room", func(t *testing.T) {
		r := newTestRoom(t, 20)
		out, err := r.Leave("ava", t0)
		require.NoError(t, err)
		assert.True(t, out.Empty)
		assert.Empty(t, out.Deliveries)
		assert.Empty(t, r.players)
	})

	t.Run("unknown player", func(t *testing.T) {
		r := newTestRoom(t, 20)
		_, err := r.Leave("ghost", t0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("leave drops choice", func(t *testing.T) {
		r := newTestRoom(t, 20)
		mustJoin(t, r, "ben", "Ben")
		_, err := r.StartGame("ava", t0)
		require.NoError(t, err)
		_, err = r.SubmitChoice("ben", "erode", t0)
		require.NoError(t, err)

		_, err = r.Leave("ben", t0)
		require.NoError(t, err)
		assert.NotContains(t, r.choices, "ben")
	})
}

func TestMembershipInvariant(t *testing.T) {
	r := newTestRoom(t, 20)
	steps := []struct {
		join bool
		id   string
		name string
	}{
		{true, "b", "Bea"}, {true, "c", "Cy"}, {false, "ava", ""}, {true, "d", "Di"},
		{false, "c", ""}, {true, "e", "Ed"}, {false, "b", ""}, {true, "f", "Flo"},
		{false, "d", ""}, {false, "e", ""},
	}
	for _, s := range steps {
		var err error
		if s.join {
			_, err = r.Join(s.id, s.name, t0)
		} else {
			_, err = r.Leave(s.id, t0)
		}
		require.NoError(t, err)

		require.NotEmpty(t, r.players)
		host, _ := r.player(r.hostID)
		require.NotNil(t, host, "host must be seated")
		assert.Equal(t, r.players[0].ID, r.hostID)
		assert.Len(t, r.choices, len(r.players))
	}
}

func TestHostOnlyGuards(t *testing.T) {
	ops := map[string]func(r *Room, actor string) (Outcome, error){
		"start":  func(r *Room, a string) (Outcome, error) { return r.StartGame(a, t0) },
		"reveal": func(r *Room, a string) (Outcome, error) { return r.RevealChoices(a, t0) },
		"next":   func(r *Room, a string) (Outcome, error) { return r.NextCard(a, t0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			r := newTestRoom(t, 20)
			mustJoin(t, r, "ben", "Ben")

			_, err := op(r, "ghost")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = op(r, "ben")
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	r := newTestRoom(t, 20)
	_, err := r.RevealChoices("ava", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
	_, err = r.NextCard("ava", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
	_, err = r.StartGame("ava", t0)
	require.NoError(t, err)
	_, err = r.StartGame("ava", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
}

func TestChoicePhaseGating(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, r *Room)
		submitErr error
		updateErr error
	}{
		{
			name:      "lobby",
			setup:     func(t *testing.T, r *Room) {},
			submitErr: domain.ErrInvalidPhase,
			updateErr: domain.ErrInvalidPhase,
		},
		{
			name: "voting",
			setup: func(t *testing.T, r *Room) {
				_, err := r.StartGame("ava", t0)
				require.NoError(t, err)
			},
			updateErr: domain.ErrInvalidPhase,
		},
		{
			name:      "discussing",
			setup:     func(t *testing.T, r *Room) { toDiscussing(t, r, nil) },
			submitErr: domain.ErrInvalidPhase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRoom(t, 20)
			tt.setup(t, r)

			_, err := r.SubmitChoice("ava", "support", t0)
			if tt.submitErr != nil {
				assert.ErrorIs(t, err, tt.submitErr)
			} else {
				assert.NoError(t, err)
			}
			_, err = r.UpdateChoice("ava", "erode", t0)
			if tt.updateErr != nil {
				assert.ErrorIs(t, err, tt.updateErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChoiceGuardOrder(t *testing.T) {
	r := newTestRoom(t, 20)
	_, err := r.SubmitChoice("ghost", "maybe", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	_, err = r.SubmitChoice("ghost", "support", t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.UpdateChoice("ava", "nope", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
}

func TestRejectedOperationLeavesStateUntouched(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	_, err := r.StartGame("ava", t0)
	require.NoError(t, err)
	before := r.Snapshot()

	later := t0.Add(time.Minute)
	_, err = r.RevealChoices("ben", later)
	require.Error(t, err)
	_, err = r.UpdateChoice("ben", "support", later)
	require.Error(t, err)
	_, err = r.SubmitChoice("ben", "sometimes", later)
	require.Error(t, err)

	assert.Equal(t, before, r.Snapshot())
}

func TestSubmitMarksReadyAndHidesValue(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	_, err := r.StartGame("ava", t0)
	require.NoError(t, err)

	out, err := r.SubmitChoice("ben", "Depends", t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"update_room"}, eventTypes(out))

	snap := r.Snapshot()
	ben, ok := snap.Player("ben")
	require.True(t, ok)
	assert.True(t, ben.Ready)
	assert.False(t, snap.RevealChoices)
	assert.Nil(t, snap.Choices)
	assert.Equal(t, domain.ChoiceDepends, r.choices["ben"])
}

func TestRevealShowsChoices(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	_, err := r.StartGame("ava", t0)
	require.NoError(t, err)
	_, err = r.SubmitChoice("ava", "support", t0)
	require.NoError(t, err)

	out, err := r.RevealChoices("ava", t0)
	require.NoError(t, err)
	assert.Equal(t, []string{"choices_revealed", "update_room"}, eventTypes(out))

	revealed := out.Deliveries[0].Event.(protocol.ChoicesRevealed)
	assert.Equal(t, map[string]domain.Choice{"ava": domain.ChoiceSupport, "ben": domain.ChoiceUnset}, revealed.Choices)
	assert.Equal(t, map[string]domain.Choice{"Ava": domain.ChoiceSupport, "Ben": domain.ChoiceUnset}, revealed.ChoicesByUsername)

	snap := r.Snapshot()
	assert.True(t, snap.RevealChoices)
	assert.Equal(t, domain.ChoiceSupport, snap.Choices["ava"])
}

func TestHistoryRoundTripIncludesPostRevealEdits(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	mustJoin(t, r, "cy", "Cy")
	toDiscussing(t, r, map[string]string{"ava": "support", "ben": "erode"})

	out, err := r.UpdateChoice("ben", "depends", t0)
	require.NoError(t, err)
	assert.Equal(t, protocol.ChoiceUpdated{PlayerID: "ben", Choice: domain.ChoiceDepends}, out.Deliveries[0].Event)
	_, err = r.UpdateChoice("ava", "erode", t0)
	require.NoError(t, err)
	want := map[string]domain.Choice{"ava": domain.ChoiceErode, "ben": domain.ChoiceDepends}
	card := r.cards[0]

	out, err = r.NextCard("ava", t0)
	require.NoError(t, err)

	require.Len(t, r.history, 1)
	assert.Equal(t, want, r.history[0].byID)
	assert.Equal(t, map[string]domain.Choice{"Ava": domain.ChoiceErode, "Ben": domain.ChoiceDepends}, r.history[0].byUsername)
	assert.Equal(t, card, r.history[0].card)

	assert.Equal(t, 1, r.cursor)
	assert.Equal(t, domain.PhaseVoting, r.Phase())
	for _, id := range playerIDs(r) {
		assert.Equal(t, domain.ChoiceUnset, r.choices[id])
	}
	assert.Equal(t, []string{"new_card", "update_room"}, eventTypes(out))
	require.Len(t, out.Exports, 1)
	assert.False(t, out.Exports[0].Final)
	assert.Equal(t, "Ava", out.Exports[0].Host)
	assert.Equal(t, []string{"Ava", "Ben", "Cy"}, out.Exports[0].Players)
	require.Len(t, out.Exports[0].Cards, 1)
	assert.Equal(t, card, out.Exports[0].Cards[0].PromptText)

	// later edits must not reach the frozen round
	_, err = r.SubmitChoice("ava", "support", t0)
	require.NoError(t, err)
	assert.Equal(t, want, r.history[0].byID)
}

func TestNextCardFinishesAfterLastCard(t *testing.T) {
	r := newTestRoom(t, 20, "first", "second")
	toDiscussing(t, r, map[string]string{"ava": "support"})
	_, err := r.NextCard("ava", t0)
	require.NoError(t, err)
	_, err = r.RevealChoices("ava", t0)
	require.NoError(t, err)

	out, err := r.NextCard("ava", t0)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseFinished, r.Phase())
	assert.Equal(t, []string{"game_over", "update_room"}, eventTypes(out))
	require.Len(t, out.Exports, 2)
	assert.False(t, out.Exports[0].Final)
	assert.True(t, out.Exports[1].Final)
	assert.Len(t, out.Exports[1].Cards, 2)

	over := out.Deliveries[0].Event.(protocol.GameOver)
	assert.Equal(t, out.Exports[1], over.Results)
	assert.Empty(t, over.Results.Cards[1].ChoicesByUsername)

	_, err = r.NextCard("ava", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
}

func TestStartGameShufflesFullDeck(t *testing.T) {
	r := newTestRoom(t, 20)
	out, err := r.StartGame("ava", t0)
	require.NoError(t, err)

	assert.ElementsMatch(t, deck.Default().Cards(), r.cards)
	started := out.Deliveries[0].Event.(protocol.GameStarted)
	assert.Equal(t, 0, started.CardIndex)
	assert.Equal(t, 24, started.TotalCards)
	assert.Equal(t, r.cards[0], started.Card)
}

func TestReconnect(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	toDiscussing(t, r, map[string]string{"ben": "erode"})
	before := r.Snapshot()

	later := t0.Add(5 * time.Minute)
	id, out, err := r.Reconnect("Ben", later)
	require.NoError(t, err)
	assert.Equal(t, "ben", id)
	assert.Equal(t, []string{"reconnected"}, eventTypes(out))
	assert.Equal(t, []string{"ben"}, out.Deliveries[0].To)
	rec := out.Deliveries[0].Event.(protocol.Reconnected)
	assert.False(t, rec.IsHost)
	assert.Equal(t, "ben", rec.PlayerID)

	assert.Equal(t, later, r.LastActivity())
	assert.Len(t, r.players, 2)
	assert.Equal(t, before.Phase, r.Phase())
	assert.Equal(t, domain.ChoiceErode, r.choices["ben"])

	_, _, err = r.Reconnect("ben", later)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMissedCardsRequiresMembership(t *testing.T) {
	r := newTestRoom(t, 20)
	_, err := r.MissedCards("ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.RoomData("ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := r.RoomData("ava")
	require.NoError(t, err)
	assert.Equal(t, []string{"update_room"}, eventTypes(out))
}

func TestMutationsTouchActivity(t *testing.T) {
	r := newTestRoom(t, 20)
	t1 := t0.Add(time.Minute)
	mustJoin(t, r, "ben", "Ben")
	_, err := r.StartGame("ava", t1)
	require.NoError(t, err)
	assert.Equal(t, t1, r.LastActivity())

	_, err = r.MissedCards("ben")
	require.NoError(t, err)
	assert.Equal(t, t1, r.LastActivity())
}
