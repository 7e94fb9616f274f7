package repository

import (
	"sync"

	"github.com/YoonKyungHan/baseball/internal/apperror"
	"github.com/YoonKyungHan/baseball/internal/entity"
)

// PlayerStore owns every player record. It is an explicit in-memory store so
// multiple independent engines can run side by side in tests.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]*entity.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		players: make(map[string]*entity.Player),
	}
}

func (that *PlayerStore) Save(player *entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.players[player.ID] = player
}

func (that *PlayerStore) GetByID(id string) (*entity.Player, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	player, ok := that.players[id]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	return player, nil
}

// FindDisconnectedByName returns a player with the given name whose
// connection has dropped, used for the reconnection path.
func (that *PlayerStore) FindDisconnectedByName(name string) (*entity.Player, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, player := range that.players {
		if player.Name == name && !player.IsConnected() && !player.IsBot() {
			return player, true
		}
	}

	return nil, false
}

func (that *PlayerStore) DeleteByID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.players, id)
}

func (that *PlayerStore) All() []*entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	players := make([]*entity.Player, 0, len(that.players))
	for _, player := range that.players {
		players = append(players, player)
	}

	return players
}
