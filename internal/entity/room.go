package entity

import (
	"time"

	"github.com/YoonKyungHan/baseball/internal/apperror"
	"github.com/YoonKyungHan/baseball/internal/baseball"
	"github.com/YoonKyungHan/baseball/internal/protocol"
)

const (
	PhaseWaiting  = "waiting"
	PhaseSetting  = "setting"
	PhasePlaying  = "playing"
	PhaseFinished = "finished"

	ModeSingle  = "single"
	ModeBestOf3 = "bestOf3"
	ModeSolo    = "solo"

	MaxMembers = 2
)

// GuessRecord is one scored guess, appended to the round history and never
// mutated afterwards.
type GuessRecord struct {
	Guess     baseball.Digits `json:"guess"`
	Result    baseball.Result `json:"result"`
	IsHomeRun bool            `json:"isHomeRun"`
	Timestamp time.Time       `json:"timestamp"`
}

// Room is one match: two seats, per-round secrets and histories, a turn
// pointer and the best-of-N bookkeeping. Members are referenced by id only;
// the player registry owns the records themselves.
type Room struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	HostID  string   `json:"host_id"`
	Players []string `json:"players"`
	Phase   string   `json:"phase"`
	Mode    string   `json:"mode"`

	Secrets     map[string]baseball.Digits `json:"-"`
	History     map[string][]GuessRecord   `json:"-"`
	CurrentTurn string                     `json:"current_turn,omitempty"`

	Wins         map[string]int `json:"wins"`
	CurrentRound int            `json:"current_round"`
	MaxRounds    int            `json:"max_rounds"`
	WinsNeeded   int            `json:"wins_needed"`
}

// NewRoom creates a room with the creator pre-seated as sole occupant and
// host. The mode fixes the best-of-N parameters.
func NewRoom(id, name, hostID, mode string) *Room {
	winsNeeded, maxRounds := 1, 1
	if mode == ModeBestOf3 {
		winsNeeded, maxRounds = 2, 3
	}

	return &Room{
		ID:      id,
		Name:    name,
		HostID:  hostID,
		Players: []string{hostID},
		Phase:   PhaseWaiting,
		Mode:    mode,

		Secrets: make(map[string]baseball.Digits),
		History: make(map[string][]GuessRecord),

		Wins:         map[string]int{hostID: 0},
		CurrentRound: 1,
		MaxRounds:    maxRounds,
		WinsNeeded:   winsNeeded,
	}
}

func (that *Room) IsWaiting() bool  { return that.Phase == PhaseWaiting }
func (that *Room) IsSetting() bool  { return that.Phase == PhaseSetting }
func (that *Room) IsPlaying() bool  { return that.Phase == PhasePlaying }
func (that *Room) IsFinished() bool { return that.Phase == PhaseFinished }
func (that *Room) IsSolo() bool     { return that.Mode == ModeSolo }

func (that *Room) Occupancy() int { return len(that.Players) }
func (that *Room) IsEmpty() bool  { return len(that.Players) == 0 }
func (that *Room) IsFull() bool   { return len(that.Players) >= MaxMembers }

func (that *Room) HasMember(playerID string) bool {
	for _, id := range that.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

// Opponent returns the other seat's occupant.
func (that *Room) Opponent(playerID string) (string, bool) {
	for _, id := range that.Players {
		if id != playerID {
			return id, true
		}
	}
	return "", false
}

// Join seats a new member. On the second seat filling up the room moves to
// the setting phase. The operation is atomic: a failed validation changes
// nothing.
func (that *Room) Join(playerID string) error {
	if that.HasMember(playerID) {
		return apperror.ErrAlreadyInRoom
	}

	if that.IsFull() {
		return apperror.ErrRoomFull
	}

	if !that.IsWaiting() {
		return apperror.ErrWrongPhase
	}

	that.Players = append(that.Players, playerID)
	if _, ok := that.Wins[playerID]; !ok {
		that.Wins[playerID] = 0
	}

	if that.IsFull() {
		that.Phase = PhaseSetting
	}

	return nil
}

// Leave removes a member unconditionally and reports whether an active game
// was interrupted by the departure. Host duty passes to seat 0 of whoever
// remains.
func (that *Room) Leave(playerID string) (interrupted bool) {
	remaining := that.Players[:0]
	for _, id := range that.Players {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	that.Players = remaining

	delete(that.Secrets, playerID)
	delete(that.History, playerID)

	if that.HostID == playerID && len(that.Players) > 0 {
		that.HostID = that.Players[0]
	}

	if that.IsEmpty() {
		return false
	}

	if !that.IsWaiting() {
		that.Phase = PhaseWaiting
		that.CurrentTurn = ""
		return true
	}

	return false
}

// SubmitSecret stores a member's secret for the current round. When both
// seats have submitted, the round starts: phase moves to playing, the first
// seat takes the turn and the round history is cleared.
func (that *Room) SubmitSecret(playerID string, digits baseball.Digits) (started bool, err error) {
	if !that.HasMember(playerID) {
		return false, apperror.ErrNotAMember
	}

	if !that.IsSetting() {
		return false, apperror.ErrWrongPhase
	}

	that.Secrets[playerID] = digits

	if that.IsFull() && len(that.Secrets) == len(that.Players) {
		that.Phase = PhasePlaying
		that.CurrentTurn = that.Players[0]
		that.History = make(map[string][]GuessRecord)
		return true, nil
	}

	return false, nil
}

// Guess scores a guess against the opponent's secret and appends it to the
// guesser's round history. The turn pointer is not advanced here; the caller
// broadcasts the result first and then either advances the turn or routes to
// round-win handling.
func (that *Room) Guess(playerID string, digits baseball.Digits) (GuessRecord, error) {
	var record GuessRecord

	if !that.IsPlaying() {
		return record, apperror.ErrWrongPhase
	}

	if !that.HasMember(playerID) {
		return record, apperror.ErrNotAMember
	}

	if that.CurrentTurn != playerID {
		return record, apperror.ErrNotYourTurn
	}

	opponentID, ok := that.Opponent(playerID)
	if !ok {
		return record, apperror.ErrWrongPhase
	}

	secret, ok := that.Secrets[opponentID]
	if !ok {
		return record, apperror.ErrSecretNotSet
	}

	result := baseball.Evaluate(digits, secret)
	record = GuessRecord{
		Guess:     digits,
		Result:    result,
		IsHomeRun: result.IsHomeRun(),
		Timestamp: time.Now(),
	}
	that.History[playerID] = append(that.History[playerID], record)

	return record, nil
}

// AdvanceTurn moves the turn pointer to the next seat and returns the new
// holder.
func (that *Room) AdvanceTurn() string {
	for i, id := range that.Players {
		if id == that.CurrentTurn {
			that.CurrentTurn = that.Players[(i+1)%len(that.Players)]
			return that.CurrentTurn
		}
	}

	if len(that.Players) > 0 {
		that.CurrentTurn = that.Players[0]
	}
	return that.CurrentTurn
}

// RecordWin increments the winner's round-win count and returns it.
func (that *Room) RecordWin(playerID string) int {
	that.Wins[playerID]++
	return that.Wins[playerID]
}

func (that *Room) HasWonMatch(playerID string) bool {
	return that.Wins[playerID] >= that.WinsNeeded
}

// PrepareNextRound clears per-round state while keeping cumulative wins and
// the incremented round index.
func (that *Room) PrepareNextRound() {
	that.Phase = PhaseSetting
	that.Secrets = make(map[string]baseball.Digits)
	that.History = make(map[string][]GuessRecord)
	that.CurrentTurn = ""
}

// Restart resets the whole match: phase back to setting, wins and round
// counter zeroed, mode preserved.
func (that *Room) Restart() {
	that.Phase = PhaseSetting
	that.Secrets = make(map[string]baseball.Digits)
	that.History = make(map[string][]GuessRecord)
	that.CurrentTurn = ""
	that.CurrentRound = 1

	for _, id := range that.Players {
		that.Wins[id] = 0
	}
}

// Finish closes the match.
func (that *Room) Finish() {
	that.Phase = PhaseFinished
	that.CurrentTurn = ""
}

func (that *Room) Summary() protocol.RoomSummary {
	return protocol.RoomSummary{
		ID:          that.ID,
		Name:        that.Name,
		PlayerCount: len(that.Players),
		MaxPlayers:  MaxMembers,
		GameState:   that.Phase,
		GameMode:    that.Mode,
	}
}

// WinsByPlayer copies the cumulative win counts for notification payloads.
func (that *Room) WinsByPlayer() map[string]int {
	wins := make(map[string]int, len(that.Wins))
	for id, count := range that.Wins {
		wins[id] = count
	}
	return wins
}

// RevealedSecrets copies the submitted secrets for the end-of-match reveal.
func (that *Room) RevealedSecrets() map[string]baseball.Digits {
	secrets := make(map[string]baseball.Digits, len(that.Secrets))
	for id, digits := range that.Secrets {
		secrets[id] = digits
	}
	return secrets
}
