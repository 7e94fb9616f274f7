package entity

import "time"

// MatchRecord is the flat end-of-match record handed to the history sink.
type MatchRecord struct {
	At         time.Time `json:"at"`
	RoomID     string    `json:"roomId"`
	RoomName   string    `json:"roomName"`
	WinnerName string    `json:"winnerName"`
	LoserName  string    `json:"loserName"`
	GameMode   string    `json:"gameMode"`
}

// UserRecord is one join/leave event for the user history stream.
type UserRecord struct {
	At         time.Time `json:"at"`
	Event      string    `json:"event"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
}
