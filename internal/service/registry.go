package service

import (
	"fmt"
	"log/slog"

	"github.com/YoonKyungHan/baseball/internal/entity"
	"github.com/YoonKyungHan/baseball/internal/protocol"
)

type playerStore interface {
	Save(player *entity.Player)
	GetByID(id string) (*entity.Player, error)
	FindDisconnectedByName(name string) (*entity.Player, bool)
	DeleteByID(id string)
	All() []*entity.Player
}

// Registry tracks who is online and hands out player identities.
type Registry struct {
	logger  *slog.Logger
	players playerStore
	counter int
}

func NewRegistry(logger *slog.Logger, players playerStore) *Registry {
	return &Registry{
		logger:  logger.With("component", "registry"),
		players: players,
	}
}

// Register binds a connection to a player. A connection that already joined
// keeps its identity, a disconnected player with the same name is reattached,
// anyone else gets a fresh id.
func (that *Registry) Register(conn protocol.Sender, boundID, name string) *entity.Player {
	log := that.logger.With("method", "Register")

	if boundID != "" {
		if player, err := that.players.GetByID(boundID); err == nil {
			player.Name = name
			player.Conn = conn

			return player
		}
	}

	if player, ok := that.players.FindDisconnectedByName(name); ok {
		player.Conn = conn

		log.Info("player reconnected", "playerID", player.ID, "name", name)

		return player
	}

	that.counter++
	player := &entity.Player{
		ID:   fmt.Sprintf("player_%d", that.counter),
		Name: name,
		Conn: conn,
	}
	that.players.Save(player)

	log.Info("player registered", "playerID", player.ID, "name", name)

	return player
}

// RegisterBot creates the computer opponent for a room.
func (that *Registry) RegisterBot(roomID, name string) *entity.Player {
	bot := &entity.Player{
		ID:     entity.BotID(roomID),
		Name:   name,
		RoomID: roomID,
	}
	that.players.Save(bot)

	return bot
}

// Disconnect detaches the connection but keeps the player record so a
// later connection with the same name can pick it up.
func (that *Registry) Disconnect(player *entity.Player) {
	player.Conn = nil
}

// EvictIfDisconnected removes the player unless they reconnected in the
// meantime. Reports whether the record was actually dropped.
func (that *Registry) EvictIfDisconnected(id string) bool {
	player, err := that.players.GetByID(id)
	if err != nil {
		return false
	}

	if player.IsConnected() {
		return false
	}

	that.players.DeleteByID(id)
	that.logger.Info("evicted disconnected player", "playerID", id, "name", player.Name)

	return true
}

// Online lists every player with a live connection.
func (that *Registry) Online() []*entity.Player {
	all := that.players.All()

	online := make([]*entity.Player, 0, len(all))
	for _, player := range all {
		if player.IsConnected() {
			online = append(online, player)
		}
	}

	return online
}
