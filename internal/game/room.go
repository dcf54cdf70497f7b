// Package game holds the per-room state machine, the actor that serializes
// access to it and the registry of live rooms.
package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/skyraal/humanaiconnection/domain"
	"github.com/skyraal/humanaiconnection/internal/deck"
	"github.com/skyraal/humanaiconnection/internal/protocol"
)

const (
	minUsernameLen = 2
	maxUsernameLen = 20
)

// Delivery addresses one event to a set of player ids.
type Delivery struct {
	To    []string
	Event protocol.Event
}

// Outcome is everything a successful transition produced, in the order it
// must reach the outside world.
type Outcome struct {
	Deliveries []Delivery
	Exports    []domain.ResultsExport
	// Empty is set when the last player left.
	Empty bool
}

func (o *Outcome) send(to []string, e protocol.Event) {
	if len(to) == 0 {
		return
	}
	o.Deliveries = append(o.Deliveries, Delivery{To: to, Event: e})
}

type Player struct {
	ID                string
	Username          string
	IsLateJoiner      bool
	JoinedAtCardIndex int
	Ready             bool

	// joinedAfterVote marks a late joiner that arrived while the card at
	// JoinedAtCardIndex was already being discussed.
	joinedAfterVote bool
}

type round struct {
	cardIndex  int
	card       string
	byID       map[string]domain.Choice
	byUsername map[string]domain.Choice
}

// Room is the authoritative state of one room. It is not safe for concurrent
// use; its Coordinator is the only writer.
type Room struct {
	code       string
	hostID     string
	players    []*Player
	phase      domain.Phase
	source     *deck.Deck
	rng        *rand.Rand
	cards      []string
	cursor     int
	choices    map[string]domain.Choice
	history    []round
	maxPlayers int

	createdAt    time.Time
	lastActivity time.Time
}

// ValidateUsername trims s and checks its length in runes.
func ValidateUsername(s string) (string, error) {
	name := strings.TrimSpace(s)
	if n := utf8.RuneCountInString(name); n < minUsernameLen || n > maxUsernameLen {
		return "", fmt.Errorf("%w: username must be %d to %d characters", domain.ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	return name, nil
}

// NewRoom seats the creator as host of a fresh lobby.
func NewRoom(code, hostID, username string, d *deck.Deck, rng *rand.Rand, maxPlayers int, now time.Time) (*Room, error) {
	name, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	r := &Room{
		code:         code,
		hostID:       hostID,
		players:      []*Player{{ID: hostID, Username: name}},
		phase:        domain.PhaseLobby,
		source:       d,
		rng:          rng,
		choices:      map[string]domain.Choice{hostID: domain.ChoiceUnset},
		maxPlayers:   maxPlayers,
		createdAt:    now,
		lastActivity: now,
	}
	return r, nil
}

func (r *Room) Code() string            { return r.code }
func (r *Room) Phase() domain.Phase     { return r.phase }
func (r *Room) HostID() string          { return r.hostID }
func (r *Room) LastActivity() time.Time { return r.lastActivity }

// Created is the outcome announced to the creator once the room is live.
func (r *Room) Created() Outcome {
	var out Outcome
	snap := r.Snapshot()
	out.send([]string{r.hostID}, protocol.RoomCreated{Code: r.code, PlayerID: r.hostID, IsHost: true, Room: snap})
	out.send([]string{r.hostID}, protocol.UpdateRoom{RoomSnapshot: snap})
	return out
}

func (r *Room) player(id string) (*Player, int) {
	for i, p := range r.players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (r *Room) playerByName(username string) *Player {
	for _, p := range r.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (r *Room) everyone() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) everyoneBut(id string) []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.ID != id {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (r *Room) requireMember(id string) (*Player, error) {
	p, _ := r.player(id)
	if p == nil {
		return nil, fmt.Errorf("%w: player is not in room %s", domain.ErrNotFound, r.code)
	}
	return p, nil
}

func (r *Room) requireHost(id string) error {
	if _, err := r.requireMember(id); err != nil {
		return err
	}
	if id != r.hostID {
		return fmt.Errorf("%w: only the host can do that", domain.ErrUnauthorized)
	}
	return nil
}

func (r *Room) requirePhase(want domain.Phase) error {
	if r.phase != want {
		return fmt.Errorf("%w: room is %s, not %s", domain.ErrInvalidPhase, r.phase, want)
	}
	return nil
}

func (r *Room) totalCards() int {
	if r.cards != nil {
		return len(r.cards)
	}
	return r.source.Len()
}

func (r *Room) currentCard() *domain.CardView {
	if r.phase != domain.PhaseVoting && r.phase != domain.PhaseDiscussing {
		return nil
	}
	return &domain.CardView{Card: r.cards[r.cursor], CardIndex: r.cursor, TotalCards: len(r.cards)}
}

func (r *Room) resetChoices() {
	r.choices = make(map[string]domain.Choice, len(r.players))
	for _, p := range r.players {
		r.choices[p.ID] = domain.ChoiceUnset
		p.Ready = false
	}
}

func (r *Room) choicesByUsername() map[string]domain.Choice {
	out := make(map[string]domain.Choice, len(r.players))
	for _, p := range r.players {
		out[p.Username] = r.choices[p.ID]
	}
	return out
}

func (r *Room) choicesCopy() map[string]domain.Choice {
	out := make(map[string]domain.Choice, len(r.choices))
	for id, c := range r.choices {
		out[id] = c
	}
	return out
}

// Snapshot copies the room. Individual choices are withheld while voting.
func (r *Room) Snapshot() domain.RoomSnapshot {
	players := make([]domain.PlayerSnapshot, len(r.players))
	for i, p := range r.players {
		players[i] = domain.PlayerSnapshot{
			ID:                p.ID,
			Username:          p.Username,
			IsHost:            p.ID == r.hostID,
			Ready:             p.Ready,
			IsLateJoiner:      p.IsLateJoiner,
			JoinedAtCardIndex: p.JoinedAtCardIndex,
		}
	}
	snap := domain.RoomSnapshot{
		Code:             r.code,
		HostID:           r.hostID,
		Players:          players,
		Phase:            r.phase,
		CurrentCardIndex: r.cursor,
		TotalCards:       r.totalCards(),
		MaxPlayers:       r.maxPlayers,
		CreatedAt:        r.createdAt,
		LastActivity:     r.lastActivity,
	}
	if cv := r.currentCard(); cv != nil {
		snap.CurrentCard = cv.Card
	}
	if r.phase == domain.PhaseDiscussing || r.phase == domain.PhaseFinished {
		snap.RevealChoices = true
		snap.Choices = r.choicesCopy()
	}
	return snap
}

func (r *Room) updateAll(out *Outcome) {
	out.send(r.everyone(), protocol.UpdateRoom{RoomSnapshot: r.Snapshot()})
}

// Join seats a new player. Late joiners get the rounds they missed and the
// card currently on the table.
func (r *Room) Join(id, username string, now time.Time) (Outcome, error) {
	var out Outcome
	name, err := ValidateUsername(username)
	if err != nil {
		return out, err
	}
	if len(r.players) >= r.maxPlayers {
		return out, fmt.Errorf("%w: room %s already has %d players", domain.ErrRoomFull, r.code, r.maxPlayers)
	}
	if r.playerByName(name) != nil {
		return out, fmt.Errorf("%w: %q is already taken in this room", domain.ErrDuplicateName, name)
	}
	if r.phase == domain.PhaseFinished {
		return out, fmt.Errorf("%w: room %s has finished", domain.ErrGameEnded, r.code)
	}

	p := &Player{
		ID:                id,
		Username:          name,
		IsLateJoiner:      r.phase != domain.PhaseLobby,
		JoinedAtCardIndex: r.cursor,
		joinedAfterVote:   r.phase == domain.PhaseDiscussing,
	}
	r.players = append(r.players, p)
	r.choices[id] = domain.ChoiceUnset
	r.lastActivity = now

	joined := protocol.RoomJoined{
		Code:         r.code,
		PlayerID:     id,
		IsLateJoiner: p.IsLateJoiner,
		Room:         r.Snapshot(),
	}
	if p.IsLateJoiner {
		joined.MissedCards = r.MissedRounds(id)
		joined.CurrentCard = r.currentCard()
	}
	out.send([]string{id}, joined)
	out.send(r.everyoneBut(id), protocol.PlayerJoined{Username: name, IsLateJoiner: p.IsLateJoiner})
	r.updateAll(&out)
	return out, nil
}

// Leave removes the player. A departing host is succeeded by the earliest
// joined player still present.
func (r *Room) Leave(id string, now time.Time) (Outcome, error) {
	var out Outcome
	p, idx := r.player(id)
	if p == nil {
		return out, fmt.Errorf("%w: player is not in room %s", domain.ErrNotFound, r.code)
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.choices, id)
	r.lastActivity = now

	if len(r.players) == 0 {
		r.hostID = ""
		out.Empty = true
		return out, nil
	}

	out.send(r.everyone(), protocol.PlayerLeft{Username: p.Username})
	if r.hostID == id {
		r.hostID = r.players[0].ID
		out.send(r.everyone(), protocol.NewHost{HostID: r.hostID})
	}
	r.updateAll(&out)
	return out, nil
}

func (r *Room) StartGame(actor string, now time.Time) (Outcome, error) {
	var out Outcome
	if err := r.requireHost(actor); err != nil {
		return out, err
	}
	if err := r.requirePhase(domain.PhaseLobby); err != nil {
		return out, err
	}

	r.cards = r.source.Shuffle(r.rng)
	r.cursor = 0
	r.history = nil
	r.resetChoices()
	r.phase = domain.PhaseVoting
	r.lastActivity = now

	out.send(r.everyone(), protocol.GameStarted{CardView: *r.currentCard()})
	r.updateAll(&out)
	return out, nil
}

func (r *Room) SubmitChoice(actor, choice string, now time.Time) (Outcome, error) {
	var out Outcome
	c, err := domain.ParseChoice(choice)
	if err != nil {
		return out, err
	}
	p, err := r.requireMember(actor)
	if err != nil {
		return out, err
	}
	if err := r.requirePhase(domain.PhaseVoting); err != nil {
		return out, err
	}

	r.choices[actor] = c
	p.Ready = true
	r.lastActivity = now

	r.updateAll(&out)
	return out, nil
}

func (r *Room) RevealChoices(actor string, now time.Time) (Outcome, error) {
	var out Outcome
	if err := r.requireHost(actor); err != nil {
		return out, err
	}
	if err := r.requirePhase(domain.PhaseVoting); err != nil {
		return out, err
	}

	r.phase = domain.PhaseDiscussing
	r.lastActivity = now

	out.send(r.everyone(), protocol.ChoicesRevealed{
		Choices:           r.choicesCopy(),
		ChoicesByUsername: r.choicesByUsername(),
	})
	r.updateAll(&out)
	return out, nil
}

func (r *Room) UpdateChoice(actor, choice string, now time.Time) (Outcome, error) {
	var out Outcome
	c, err := domain.ParseChoice(choice)
	if err != nil {
		return out, err
	}
	p, err := r.requireMember(actor)
	if err != nil {
		return out, err
	}
	if err := r.requirePhase(domain.PhaseDiscussing); err != nil {
		return out, err
	}

	r.choices[actor] = c
	p.Ready = true
	r.lastActivity = now

	out.send(r.everyone(), protocol.ChoiceUpdated{PlayerID: actor, Choice: c})
	r.updateAll(&out)
	return out, nil
}

// NextCard freezes the current card's choices into history and moves on, or
// finishes the game after the last card.
func (r *Room) NextCard(actor string, now time.Time) (Outcome, error) {
	var out Outcome
	if err := r.requireHost(actor); err != nil {
		return out, err
	}
	if err := r.requirePhase(domain.PhaseDiscussing); err != nil {
		return out, err
	}

	r.history = append(r.history, r.freeze())
	r.lastActivity = now
	out.Exports = append(out.Exports, r.Export(now, false))

	if r.cursor+1 < len(r.cards) {
		r.cursor++
		r.resetChoices()
		r.phase = domain.PhaseVoting
		out.send(r.everyone(), protocol.NewCard{CardView: *r.currentCard()})
		r.updateAll(&out)
		return out, nil
	}

	r.phase = domain.PhaseFinished
	final := r.Export(now, true)
	out.Exports = append(out.Exports, final)
	out.send(r.everyone(), protocol.GameOver{Results: final})
	r.updateAll(&out)
	return out, nil
}

// freeze captures the answered choices of the current card. Unset choices
// are left out.
func (r *Room) freeze() round {
	rd := round{
		cardIndex:  r.cursor,
		card:       r.cards[r.cursor],
		byID:       make(map[string]domain.Choice),
		byUsername: make(map[string]domain.Choice),
	}
	for _, p := range r.players {
		c := r.choices[p.ID]
		if !c.IsSet() {
			continue
		}
		rd.byID[p.ID] = c
		rd.byUsername[p.Username] = c
	}
	return rd
}

// Export renders history as an audit record.
func (r *Room) Export(now time.Time, final bool) domain.ResultsExport {
	players := make([]string, len(r.players))
	for i, p := range r.players {
		players[i] = p.Username
	}
	var host string
	if p, _ := r.player(r.hostID); p != nil {
		host = p.Username
	}
	cards := make([]domain.CardResult, len(r.history))
	for i, rd := range r.history {
		cards[i] = domain.CardResult{
			CardIndex:         rd.cardIndex,
			PromptText:        rd.card,
			ChoicesByUsername: copyChoices(rd.byUsername),
		}
	}
	return domain.ResultsExport{
		RoomCode:  r.code,
		Timestamp: now,
		Host:      host,
		Players:   players,
		Cards:     cards,
		Final:     final,
	}
}

// Reconnect finds the seat held under username. It changes nothing but the
// activity clock.
func (r *Room) Reconnect(username string, now time.Time) (string, Outcome, error) {
	var out Outcome
	p := r.playerByName(strings.TrimSpace(username))
	if p == nil {
		return "", out, fmt.Errorf("%w: no player %q in room %s", domain.ErrNotFound, username, r.code)
	}
	r.lastActivity = now

	ev := protocol.Reconnected{
		Room:     r.Snapshot(),
		PlayerID: p.ID,
		IsHost:   p.ID == r.hostID,
	}
	if p.IsLateJoiner {
		ev.MissedCards = r.MissedRounds(p.ID)
	}
	out.send([]string{p.ID}, ev)
	return p.ID, out, nil
}

// MissedCards answers a member's catch-up request.
func (r *Room) MissedCards(actor string) (Outcome, error) {
	var out Outcome
	if _, err := r.requireMember(actor); err != nil {
		return out, err
	}
	out.send([]string{actor}, protocol.MissedCards{List: r.MissedRounds(actor)})
	return out, nil
}

// RoomData sends the current snapshot to one member.
func (r *Room) RoomData(actor string) (Outcome, error) {
	var out Outcome
	if _, err := r.requireMember(actor); err != nil {
		return out, err
	}
	out.send([]string{actor}, protocol.UpdateRoom{RoomSnapshot: r.Snapshot()})
	return out, nil
}

func copyChoices(m map[string]domain.Choice) map[string]domain.Choice {
	out := make(map[string]domain.Choice, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
