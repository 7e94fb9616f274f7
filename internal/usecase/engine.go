package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/YoonKyungHan/baseball/internal/entity"
	"github.com/YoonKyungHan/baseball/internal/protocol"
	"github.com/YoonKyungHan/baseball/internal/repository"
	"github.com/YoonKyungHan/baseball/internal/service"
)

const taskQueueSize = 256

// Timing groups the grace periods and pacing delays of a match.
type Timing struct {
	PlayerEviction time.Duration
	RoomDeletion   time.Duration
	MatchEndDelay  time.Duration
	NextRoundDelay time.Duration
}

type historySink interface {
	RecordMatch(record *entity.MatchRecord)
	RecordUser(record *entity.UserRecord)
}

// Engine orchestrates every match. All state access happens on the single
// goroutine draining the task queue; transports and timers only enqueue.
type Engine struct {
	logger   *slog.Logger
	players  *repository.PlayerStore
	rooms    *repository.RoomStore
	registry *service.Registry
	bots     *service.BotService
	history  historySink
	timing   Timing

	tasks    chan func()
	sessions map[protocol.Sender]string

	// schedule defers a task back onto the engine goroutine after a delay.
	// Tests swap it out to fire timers synchronously.
	schedule func(delay time.Duration, task func())
}

func NewEngine(
	logger *slog.Logger,
	players *repository.PlayerStore,
	rooms *repository.RoomStore,
	registry *service.Registry,
	bots *service.BotService,
	history historySink,
	timing Timing,
) *Engine {
	engine := &Engine{
		logger:   logger.With("component", "engine"),
		players:  players,
		rooms:    rooms,
		registry: registry,
		bots:     bots,
		history:  history,
		timing:   timing,

		tasks:    make(chan func(), taskQueueSize),
		sessions: make(map[protocol.Sender]string),
	}

	engine.schedule = func(delay time.Duration, task func()) {
		time.AfterFunc(delay, func() {
			engine.enqueue(task)
		})
	}

	return engine
}

// Run drains the task queue until the context is cancelled.
func (that *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			that.logger.Info("engine stopped")
			return
		case task := <-that.tasks:
			task()
		}
	}
}

// Submit hands a parsed client intent to the engine goroutine.
func (that *Engine) Submit(conn protocol.Sender, intent protocol.Intent) {
	that.enqueue(func() {
		that.dispatch(conn, intent)
	})
}

// Disconnect reports that a client connection dropped.
func (that *Engine) Disconnect(conn protocol.Sender) {
	that.enqueue(func() {
		that.handleDisconnect(conn)
	})
}

func (that *Engine) enqueue(task func()) {
	that.tasks <- task
}

func (that *Engine) dispatch(conn protocol.Sender, intent protocol.Intent) {
	if join, ok := intent.(*protocol.JoinIntent); ok {
		that.handleJoin(conn, join)
		return
	}

	player, ok := that.sessionPlayer(conn)
	if !ok {
		that.logger.Warn("intent from a connection that never joined")
		return
	}

	switch it := intent.(type) {
	case *protocol.CreateRoomIntent:
		that.handleCreateRoom(conn, player, it)
	case *protocol.JoinRoomIntent:
		that.handleJoinRoom(conn, player, it)
	case *protocol.SetNumberIntent:
		that.handleSetNumber(conn, player, it)
	case *protocol.MakeGuessIntent:
		that.handleMakeGuess(conn, player, it)
	case *protocol.LeaveRoomIntent:
		that.handleLeaveRoom(player)
	case *protocol.RestartGameIntent:
		that.handleRestart(player)
	case *protocol.SendEmojiIntent:
		that.handleEmoji(player, it)
	case *protocol.GetRoomsIntent:
		that.handleGetRooms(conn)
	default:
		that.logger.Warn("unhandled intent", "intent", intent)
	}
}

func (that *Engine) sessionPlayer(conn protocol.Sender) (*entity.Player, bool) {
	id, ok := that.sessions[conn]
	if !ok {
		return nil, false
	}

	player, err := that.players.GetByID(id)
	if err != nil {
		return nil, false
	}

	return player, true
}

func (that *Engine) reply(conn protocol.Sender, notification protocol.Notification) {
	if err := conn.Send(notification); err != nil {
		that.logger.Error("failed to send reply", "type", notification.Type(), "error", err)
	}
}

func (that *Engine) sendTo(player *entity.Player, notification protocol.Notification) {
	if !player.IsConnected() {
		return
	}

	if err := player.Conn.Send(notification); err != nil {
		that.logger.Error("failed to send notification",
			"type", notification.Type(), "playerID", player.ID, "error", err)
	}
}

// broadcastToRoom delivers a notification to every human member, optionally
// skipping one of them.
func (that *Engine) broadcastToRoom(room *entity.Room, notification protocol.Notification, excludeID string) {
	for _, member := range that.memberPlayers(room) {
		if member.ID == excludeID || member.IsBot() {
			continue
		}
		that.sendTo(member, notification)
	}
}

func (that *Engine) memberPlayers(room *entity.Room) []*entity.Player {
	members := make([]*entity.Player, 0, len(room.Players))
	for _, id := range room.Players {
		player, err := that.players.GetByID(id)
		if err != nil {
			continue
		}
		members = append(members, player)
	}

	return members
}

func (that *Engine) roomList() protocol.RoomList {
	rooms := that.rooms.All()

	summaries := make([]protocol.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}

	return protocol.RoomList{Rooms: summaries}
}

// broadcastRoomList refreshes the directory for everyone still in the lobby.
// Players inside a room don't care about it and are skipped.
func (that *Engine) broadcastRoomList() {
	list := that.roomList()

	for _, player := range that.players.All() {
		if player.IsBot() || player.InRoom() || !player.IsConnected() {
			continue
		}
		that.sendTo(player, list)
	}
}

func (that *Engine) broadcastOnlineUsers() {
	online := that.registry.Online()

	users := make([]protocol.PlayerRef, 0, len(online))
	for _, player := range online {
		users = append(users, player.Ref())
	}

	notification := protocol.OnlineUsers{Users: users}
	for _, player := range online {
		that.sendTo(player, notification)
	}
}
