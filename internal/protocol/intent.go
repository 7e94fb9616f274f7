package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrUnknownIntent is returned for a message whose type tag is not part of
// the intent vocabulary.
var ErrUnknownIntent = fmt.Errorf("unknown intent type")

// Intent is one parsed client action. The set of implementations is closed;
// the engine matches them exhaustively.
type Intent interface {
	isIntent()
}

type JoinIntent struct {
	PlayerName string `json:"playerName"`
}

type CreateRoomIntent struct {
	RoomName string `json:"roomName"`
	GameMode string `json:"gameMode"`
}

type JoinRoomIntent struct {
	RoomID string `json:"roomId"`
}

type SetNumberIntent struct {
	Numbers []int `json:"numbers"`
}

type MakeGuessIntent struct {
	Numbers []int `json:"numbers"`
}

type LeaveRoomIntent struct{}

type RestartGameIntent struct{}

type SendEmojiIntent struct {
	Emoji   string `json:"emoji"`
	Message string `json:"message"`
}

type GetRoomsIntent struct{}

func (JoinIntent) isIntent()        {}
func (CreateRoomIntent) isIntent()  {}
func (JoinRoomIntent) isIntent()    {}
func (SetNumberIntent) isIntent()   {}
func (MakeGuessIntent) isIntent()   {}
func (LeaveRoomIntent) isIntent()   {}
func (RestartGameIntent) isIntent() {}
func (SendEmojiIntent) isIntent()   {}
func (GetRoomsIntent) isIntent()    {}

// ParseIntent decodes one wire message of the form {"type": "...", ...} into
// its concrete intent.
func ParseIntent(data []byte) (Intent, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intent envelope: %w", err)
	}

	var intent Intent
	switch envelope.Type {
	case "join":
		intent = &JoinIntent{}
	case "createRoom":
		intent = &CreateRoomIntent{}
	case "joinRoom":
		intent = &JoinRoomIntent{}
	case "setNumber":
		intent = &SetNumberIntent{}
	case "makeGuess":
		intent = &MakeGuessIntent{}
	case "leaveRoom":
		intent = &LeaveRoomIntent{}
	case "restartGame":
		intent = &RestartGameIntent{}
	case "sendEmoji":
		intent = &SendEmojiIntent{}
	case "getRooms":
		intent = &GetRoomsIntent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, envelope.Type)
	}

	if err := json.Unmarshal(data, intent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q intent: %w", envelope.Type, err)
	}

	return intent, nil
}
