package repository

import (
	"sort"
	"sync"

	"github.com/YoonKyungHan/baseball/internal/apperror"
	"github.com/YoonKyungHan/baseball/internal/entity"
)

// RoomStore owns every live room. Rooms reference players by id only; the
// registry resolves them on each access.
type RoomStore struct {
	mu      sync.RWMutex
	rooms   map[string]*entity.Room
	ordinal map[string]int
	counter int
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms:   make(map[string]*entity.Room),
		ordinal: make(map[string]int),
	}
}

func (that *RoomStore) Save(room *entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[room.ID]; !ok {
		that.counter++
		that.ordinal[room.ID] = that.counter
	}
	that.rooms[room.ID] = room
}

func (that *RoomStore) GetByID(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *RoomStore) DeleteByID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	delete(that.rooms, id)
	delete(that.ordinal, id)
}

// All returns every room in creation order, so the broadcast directory is
// stable across recomputes.
func (that *RoomStore) All() []*entity.Room {
	that.mu.RLock()
	defer that.mu.RUnlock()

	rooms := make([]*entity.Room, 0, len(that.rooms))
	for _, room := range that.rooms {
		rooms = append(rooms, room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return that.ordinal[rooms[i].ID] < that.ordinal[rooms[j].ID]
	})

	return rooms
}
