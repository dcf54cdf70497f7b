package game

import (
	"testing"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissedRoundsForLobbyPlayer(t *testing.T) {
	r := newTestRoom(t, 20)
	mustJoin(t, r, "ben", "Ben")
	toDiscussing(t, r, map[string]string{"ben": "support"})
	_, err := r.NextCard("ava", t0)
	require.NoError(t, err)

	assert.Empty(t, r.MissedRounds("ben"))
	assert.NotNil(t, r.MissedRounds("ben"))
	assert.Empty(t, r.MissedRounds("ghost"))
}

func TestMissedRoundsJoinedDuringVoting(t *testing.T) {
	r := newTestRoom(t, 20)
	toDiscussing(t, r, map[string]string{"ava": "erode"})
	_, err := r.NextCard("ava", t0)
	require.NoError(t, err)

	// card 1 is open for votes, so only card 0 was missed
	out := mustJoin(t, r, "dan", "Dan")
	joined := out.Deliveries[0].Event.(protocol.RoomJoined)
	assert.True(t, joined.IsLateJoiner)
	require.NotNil(t, joined.CurrentCard)
	assert.Equal(t, 1, joined.CurrentCard.CardIndex)
	require.Len(t, joined.MissedCards, 1)
	assert.Equal(t, 0, joined.MissedCards[0].CardIndex)
	assert.Equal(t, map[string]domain.Choice{"Ava": domain.ChoiceErode}, joined.MissedCards[0].ChoicesByUsername)

	_, err = r.SubmitChoice("dan", "support", t0)
	require.NoError(t, err)
	_, err = r.RevealChoices("ava", t0)
	require.NoError(t, err)
	_, err = r.NextCard("ava", t0)
	require.NoError(t, err)

	missed := r.MissedRounds("dan")
	require.Len(t, missed, 1)
	assert.Equal(t, 0, missed[0].CardIndex)
}

func TestMissedRoundsIdempotent(t *testing.T) {
	r := newTestRoom(t, 20)
	toDiscussing(t, r, map[string]string{"ava": "support"})
	_, err := r.NextCard("ava", t0)
	require.NoError(t, err)
	_, err = r.RevealChoices("ava", t0)
	require.NoError(t, err)
	_, err = r.NextCard("ava", t0)
	require.NoError(t, err)
	mustJoin(t, r, "eve", "Eve")

	first := r.MissedRounds("eve")
	second := r.MissedRounds("eve")
	require.Len(t, first, 2)
	assert.Equal(t, first, second)

	// callers own the returned maps
	first[0].Choices["eve"] = domain.ChoiceErode
	assert.NotContains(t, r.MissedRounds("eve")[0].Choices, "eve")
}
