package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/YoonKyungHan/baseball/internal/baseball"
)

// Sender delivers notifications to one client connection. The transport owns
// the connection; the engine only holds this handle.
type Sender interface {
	Send(notification Notification) error
}

// Notification is one server-to-client message. The set of implementations
// is closed; Type returns the wire tag.
type Notification interface {
	Type() string
}

// PlayerRef is the public identity of a player inside notifications.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomSummary is one row of the room directory.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	GameState   string `json:"gameState"`
	GameMode    string `json:"gameMode"`
}

type Joined struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

type RoomCreated struct {
	Room RoomSummary `json:"room"`
}

type JoinRoomResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Room    *RoomSummary `json:"room,omitempty"`
}

type SetNumberResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GuessRejected is the direct reply to an invalid guess; it shares the
// guessResult tag with the broadcast, as the original wire protocol does.
type GuessRejected struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GuessReply is the direct acknowledgement of a scored guess, delivered to
// the guesser after the room-wide broadcast under the same guessResult tag.
type GuessReply struct {
	Success   bool            `json:"success"`
	Result    baseball.Result `json:"result"`
	IsHomeRun bool            `json:"isHomeRun"`
}

// ActionRejected is the failure reply for intents without a dedicated
// result tag.
type ActionRejected struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PlayerJoined struct {
	Player      PlayerRef `json:"player"`
	PlayerCount int       `json:"playerCount"`
}

type PlayerLeft struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	PlayerCount int    `json:"playerCount"`
}

type GameStart struct {
	Message string `json:"message"`
}

type PlayerReady struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type GameStarted struct {
	IsMyTurn     bool   `json:"isMyTurn"`
	OpponentName string `json:"opponentName"`
	GameMode     string `json:"gameMode"`
}

type GuessResult struct {
	PlayerID   string          `json:"playerId"`
	PlayerName string          `json:"playerName"`
	Guess      baseball.Digits `json:"guess"`
	Result     baseball.Result `json:"result"`
	IsHomeRun  bool            `json:"isHomeRun"`
}

type TurnChanged struct {
	CurrentTurn string `json:"currentTurn"`
}

type RoundWin struct {
	Winner       string         `json:"winner"`
	WinnerName   string         `json:"winnerName"`
	CurrentRound int            `json:"currentRound"`
	Wins         map[string]int `json:"wins"`
}

type NextRound struct {
	CurrentRound int            `json:"currentRound"`
	Wins         map[string]int `json:"wins"`
}

type GameEnded struct {
	WinnerID      string                     `json:"winnerId"`
	WinnerName    string                     `json:"winnerName"`
	SecretNumbers map[string]baseball.Digits `json:"secretNumbers"`
	FinalWins     map[string]int             `json:"finalWins"`
	TotalRounds   int                        `json:"totalRounds"`
}

type GameRestarted struct{}

type GameInterrupted struct {
	Message string `json:"message"`
}

type EmojiReceived struct {
	Emoji      string `json:"emoji"`
	Message    string `json:"message"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

type OnlineUsers struct {
	Users []PlayerRef `json:"users"`
}

func (Joined) Type() string          { return "joined" }
func (RoomList) Type() string        { return "roomList" }
func (RoomCreated) Type() string     { return "roomCreated" }
func (JoinRoomResult) Type() string  { return "joinRoomResult" }
func (SetNumberResult) Type() string { return "setNumberResult" }
func (GuessRejected) Type() string   { return "guessResult" }
func (GuessReply) Type() string      { return "guessResult" }
func (ActionRejected) Type() string  { return "error" }
func (PlayerJoined) Type() string    { return "playerJoined" }
func (PlayerLeft) Type() string      { return "playerLeft" }
func (GameStart) Type() string       { return "gameStart" }
func (PlayerReady) Type() string     { return "playerReady" }
func (GameStarted) Type() string     { return "gameStarted" }
func (GuessResult) Type() string     { return "guessResult" }
func (TurnChanged) Type() string     { return "turnChanged" }
func (RoundWin) Type() string        { return "roundWin" }
func (NextRound) Type() string       { return "nextRound" }
func (GameEnded) Type() string       { return "gameEnded" }
func (GameRestarted) Type() string   { return "gameRestarted" }
func (GameInterrupted) Type() string { return "gameInterrupted" }
func (EmojiReceived) Type() string   { return "emojiReceived" }
func (OnlineUsers) Type() string     { return "onlineUsers" }

// Encode flattens a notification into its wire form with the type tag
// injected alongside the payload fields.
func Encode(notification Notification) ([]byte, error) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err = json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten notification: %w", err)
	}

	fields["type"] = json.RawMessage(fmt.Sprintf("%q", notification.Type()))

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification envelope: %w", err)
	}

	return encoded, nil
}
