package entity

import (
	"strings"

	"github.com/YoonKyungHan/baseball/internal/baseball"
	"github.com/YoonKyungHan/baseball/internal/protocol"
)

const botIDPrefix = "bot_"

// Player is one registered identity. The connection is owned by the
// transport layer; Conn is only a delivery handle and may be nil while the
// player is disconnected and waiting out the eviction grace period.
type Player struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	RoomID string           `json:"room_id,omitempty"`
	Secret *baseball.Digits `json:"-"`
	Ready  bool             `json:"-"`

	Conn protocol.Sender `json:"-"`
}

func BotID(roomID string) string {
	return botIDPrefix + roomID
}

func (that *Player) IsBot() bool {
	return strings.HasPrefix(that.ID, botIDPrefix)
}

func (that *Player) IsConnected() bool {
	return that.Conn != nil
}

func (that *Player) InRoom() bool {
	return that.RoomID != ""
}

func (that *Player) Ref() protocol.PlayerRef {
	return protocol.PlayerRef{ID: that.ID, Name: that.Name}
}

// ClearRoomState resets everything tied to room membership while keeping the
// identity itself alive.
func (that *Player) ClearRoomState() {
	that.RoomID = ""
	that.Secret = nil
	that.Ready = false
}
