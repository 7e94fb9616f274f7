package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/YoonKyungHan/baseball/internal/baseball"
	"github.com/YoonKyungHan/baseball/internal/entity"
	"github.com/YoonKyungHan/baseball/internal/protocol"
)

const botName = "AI"

func (that *Engine) handleJoin(conn protocol.Sender, intent *protocol.JoinIntent) {
	boundID := that.sessions[conn]

	player := that.registry.Register(conn, boundID, intent.PlayerName)
	that.sessions[conn] = player.ID

	that.reply(conn, protocol.Joined{PlayerID: player.ID, PlayerName: player.Name})
	that.reply(conn, that.roomList())

	that.history.RecordUser(&entity.UserRecord{
		At:         time.Now(),
		Event:      "join",
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})

	that.broadcastOnlineUsers()
}

func (that *Engine) handleCreateRoom(conn protocol.Sender, player *entity.Player, intent *protocol.CreateRoomIntent) {
	if player.InRoom() {
		that.leaveCurrentRoom(player)
	}

	mode := intent.GameMode
	switch mode {
	case entity.ModeSingle, entity.ModeBestOf3, entity.ModeSolo:
	default:
		mode = entity.ModeSingle
	}

	room := entity.NewRoom(uuid.NewString(), intent.RoomName, player.ID, mode)
	that.rooms.Save(room)
	player.RoomID = room.ID

	that.logger.Info("room created", "roomID", room.ID, "mode", mode, "hostID", player.ID)

	that.reply(conn, protocol.RoomCreated{Room: room.Summary()})

	if room.IsSolo() {
		that.seatBot(room)
	}

	that.broadcastRoomList()
}

// seatBot fills the second seat of a solo room with the computer opponent,
// which submits its secret right away.
func (that *Engine) seatBot(room *entity.Room) {
	bot := that.registry.RegisterBot(room.ID, botName)

	if err := room.Join(bot.ID); err != nil {
		that.logger.Error("failed to seat bot", "roomID", room.ID, "error", err)
		return
	}

	that.bots.StartRound(room.ID)

	that.broadcastToRoom(room, protocol.PlayerJoined{Player: bot.Ref(), PlayerCount: room.Occupancy()}, "")
	that.broadcastToRoom(room, protocol.GameStart{Message: "Both players are in. Set your secret number."}, "")

	if _, err := room.SubmitSecret(bot.ID, that.bots.Secret()); err != nil {
		that.logger.Error("failed to submit bot secret", "roomID", room.ID, "error", err)
	}
}

func (that *Engine) handleJoinRoom(conn protocol.Sender, player *entity.Player, intent *protocol.JoinRoomIntent) {
	if player.RoomID == intent.RoomID {
		that.reply(conn, protocol.JoinRoomResult{Success: false, Message: "already in this room"})
		return
	}

	room, err := that.rooms.GetByID(intent.RoomID)
	if err != nil {
		that.reply(conn, protocol.JoinRoomResult{Success: false, Message: "room not found"})
		return
	}

	if player.InRoom() {
		that.leaveCurrentRoom(player)
	}

	if err = room.Join(player.ID); err != nil {
		that.reply(conn, protocol.JoinRoomResult{Success: false, Message: err.Error()})
		return
	}
	player.RoomID = room.ID

	summary := room.Summary()
	that.reply(conn, protocol.JoinRoomResult{Success: true, Room: &summary})

	that.broadcastToRoom(room, protocol.PlayerJoined{Player: player.Ref(), PlayerCount: room.Occupancy()}, "")

	if room.IsSetting() {
		that.broadcastToRoom(room, protocol.GameStart{Message: "Both players are in. Set your secret number."}, "")
	}

	that.broadcastRoomList()
}

func (that *Engine) handleSetNumber(conn protocol.Sender, player *entity.Player, intent *protocol.SetNumberIntent) {
	digits, err := baseball.NewDigits(intent.Numbers)
	if err != nil {
		that.reply(conn, protocol.SetNumberResult{Success: false, Message: err.Error()})
		return
	}

	room, err := that.rooms.GetByID(player.RoomID)
	if err != nil {
		that.reply(conn, protocol.SetNumberResult{Success: false, Message: "you are not in a room"})
		return
	}

	started, err := room.SubmitSecret(player.ID, digits)
	if err != nil {
		that.reply(conn, protocol.SetNumberResult{Success: false, Message: err.Error()})
		return
	}

	player.Secret = &digits
	player.Ready = true

	that.broadcastToRoom(room, protocol.PlayerReady{PlayerID: player.ID, PlayerName: player.Name}, player.ID)

	if started {
		that.announceRoundStart(room)
	}

	// The direct reply goes out after the broadcasts, matching the order
	// clients already rely on.
	that.reply(conn, protocol.SetNumberResult{Success: true})
}

// announceRoundStart tells each seat whose turn it is and who they face.
func (that *Engine) announceRoundStart(room *entity.Room) {
	for _, member := range that.memberPlayers(room) {
		if member.IsBot() {
			continue
		}

		opponentName := ""
		if opponentID, ok := room.Opponent(member.ID); ok {
			if opponent, err := that.players.GetByID(opponentID); err == nil {
				opponentName = opponent.Name
			}
		}

		that.sendTo(member, protocol.GameStarted{
			IsMyTurn:     room.CurrentTurn == member.ID,
			OpponentName: opponentName,
			GameMode:     room.Mode,
		})
	}
}

func (that *Engine) handleMakeGuess(conn protocol.Sender, player *entity.Player, intent *protocol.MakeGuessIntent) {
	digits, err := baseball.NewDigits(intent.Numbers)
	if err != nil {
		that.reply(conn, protocol.GuessRejected{Success: false, Message: err.Error()})
		return
	}

	room, err := that.rooms.GetByID(player.RoomID)
	if err != nil {
		that.reply(conn, protocol.GuessRejected{Success: false, Message: "you are not in a room"})
		return
	}

	record, err := room.Guess(player.ID, digits)
	if err != nil {
		that.reply(conn, protocol.GuessRejected{Success: false, Message: err.Error()})
		return
	}

	that.broadcastToRoom(room, protocol.GuessResult{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Guess:      record.Guess,
		Result:     record.Result,
		IsHomeRun:  record.IsHomeRun,
	}, "")

	if record.IsHomeRun {
		that.handleRoundWin(room, player)
	} else {
		next := room.AdvanceTurn()
		that.broadcastToRoom(room, protocol.TurnChanged{CurrentTurn: next}, "")

		if room.IsSolo() && next == entity.BotID(room.ID) {
			that.playBotTurn(room)
		}
	}

	// The guesser also gets a direct acknowledgement, after the broadcasts.
	that.reply(conn, protocol.GuessReply{
		Success:   true,
		Result:    record.Result,
		IsHomeRun: record.IsHomeRun,
	})
}

func (that *Engine) playBotTurn(room *entity.Room) {
	botID := entity.BotID(room.ID)

	guess, err := that.bots.NextGuess(room.ID)
	if err != nil {
		that.logger.Error("bot has no solver", "roomID", room.ID, "error", err)
		return
	}

	record, err := room.Guess(botID, guess)
	if err != nil {
		that.logger.Error("bot guess rejected", "roomID", room.ID, "error", err)
		return
	}

	that.broadcastToRoom(room, protocol.GuessResult{
		PlayerID:   botID,
		PlayerName: botName,
		Guess:      record.Guess,
		Result:     record.Result,
		IsHomeRun:  record.IsHomeRun,
	}, "")

	if record.IsHomeRun {
		bot, err := that.players.GetByID(botID)
		if err != nil {
			return
		}
		that.handleRoundWin(room, bot)
		return
	}

	that.bots.Observe(room.ID, guess, record.Result)

	next := room.AdvanceTurn()
	that.broadcastToRoom(room, protocol.TurnChanged{CurrentTurn: next}, "")
}

func (that *Engine) handleRoundWin(room *entity.Room, winner *entity.Player) {
	room.RecordWin(winner.ID)
	room.CurrentTurn = ""

	that.broadcastToRoom(room, protocol.RoundWin{
		Winner:       winner.ID,
		WinnerName:   winner.Name,
		CurrentRound: room.CurrentRound,
		Wins:         room.WinsByPlayer(),
	}, "")

	if room.HasWonMatch(winner.ID) {
		that.finishMatch(room, winner)
		return
	}

	roomID := room.ID
	room.CurrentRound++
	that.schedule(that.timing.NextRoundDelay, func() {
		that.startNextRound(roomID)
	})
}

// finishMatch decides the match at round-win time: the room is closed and
// the result recorded immediately, so a leave during the notification delay
// cannot revoke the outcome. Only the gameEnded broadcast waits, giving
// clients time to show the round win first.
func (that *Engine) finishMatch(room *entity.Room, winner *entity.Player) {
	loserName := ""
	if loserID, ok := room.Opponent(winner.ID); ok {
		if loser, err := that.players.GetByID(loserID); err == nil {
			loserName = loser.Name
		}
	}

	ended := protocol.GameEnded{
		WinnerID:      winner.ID,
		WinnerName:    winner.Name,
		SecretNumbers: room.RevealedSecrets(),
		FinalWins:     room.WinsByPlayer(),
		TotalRounds:   room.CurrentRound,
	}

	room.Finish()

	that.history.RecordMatch(&entity.MatchRecord{
		At:         time.Now(),
		RoomID:     room.ID,
		RoomName:   room.Name,
		WinnerName: winner.Name,
		LoserName:  loserName,
		GameMode:   room.Mode,
	})

	that.bots.Forget(room.ID)
	that.broadcastRoomList()

	that.logger.Info("match ended", "roomID", room.ID, "winnerID", winner.ID)

	roomID := room.ID
	that.schedule(that.timing.MatchEndDelay, func() {
		endedRoom, err := that.rooms.GetByID(roomID)
		if err != nil {
			return
		}
		that.broadcastToRoom(endedRoom, ended, "")
	})
}

// startNextRound fires after the round pacing delay and is skipped when the
// game got interrupted while the timer was pending.
func (that *Engine) startNextRound(roomID string) {
	room, err := that.rooms.GetByID(roomID)
	if err != nil || !room.IsPlaying() {
		return
	}

	room.PrepareNextRound()

	for _, member := range that.memberPlayers(room) {
		member.Secret = nil
		member.Ready = false
	}

	that.broadcastToRoom(room, protocol.NextRound{
		CurrentRound: room.CurrentRound,
		Wins:         room.WinsByPlayer(),
	}, "")

	if room.IsSolo() {
		that.bots.StartRound(room.ID)
		if _, err = room.SubmitSecret(entity.BotID(room.ID), that.bots.Secret()); err != nil {
			that.logger.Error("failed to submit bot secret", "roomID", room.ID, "error", err)
		}
	}
}

func (that *Engine) handleLeaveRoom(player *entity.Player) {
	if !player.InRoom() {
		return
	}

	that.leaveCurrentRoom(player)
}

func (that *Engine) leaveCurrentRoom(player *entity.Player) {
	room, err := that.rooms.GetByID(player.RoomID)
	if err != nil {
		player.ClearRoomState()
		return
	}

	interrupted := room.Leave(player.ID)
	player.ClearRoomState()

	// A solo room is dead once its human leaves; drop the bot with it.
	if room.IsSolo() && room.Occupancy() == 1 && room.Players[0] == entity.BotID(room.ID) {
		room.Leave(entity.BotID(room.ID))
		that.players.DeleteByID(entity.BotID(room.ID))
		that.bots.Forget(room.ID)
	}

	if room.IsEmpty() {
		roomID := room.ID
		that.schedule(that.timing.RoomDeletion, func() {
			that.deleteRoomIfEmpty(roomID)
		})
	} else {
		that.broadcastToRoom(room, protocol.PlayerLeft{
			PlayerID:    player.ID,
			PlayerName:  player.Name,
			PlayerCount: room.Occupancy(),
		}, "")

		if interrupted {
			that.broadcastToRoom(room, protocol.GameInterrupted{Message: "Opponent left the game."}, "")

			for _, member := range that.memberPlayers(room) {
				member.Secret = nil
				member.Ready = false
			}
		}
	}

	that.broadcastRoomList()
}

// deleteRoomIfEmpty fires after the deletion grace period; a rejoin in the
// meantime keeps the room alive.
func (that *Engine) deleteRoomIfEmpty(roomID string) {
	room, err := that.rooms.GetByID(roomID)
	if err != nil || !room.IsEmpty() {
		return
	}

	that.rooms.DeleteByID(roomID)
	that.bots.Forget(roomID)
	that.broadcastRoomList()

	that.logger.Info("empty room deleted", "roomID", roomID)
}

// handleRestart resets the whole match for the sender's room. Any member
// may restart from any phase.
func (that *Engine) handleRestart(player *entity.Player) {
	room, err := that.rooms.GetByID(player.RoomID)
	if err != nil || !room.HasMember(player.ID) {
		that.sendTo(player, protocol.ActionRejected{Success: false, Message: "you are not in a room"})
		return
	}

	room.Restart()

	for _, member := range that.memberPlayers(room) {
		member.Secret = nil
		member.Ready = false
	}

	that.broadcastToRoom(room, protocol.GameRestarted{}, "")

	if room.IsSolo() {
		that.bots.StartRound(room.ID)
		if _, err = room.SubmitSecret(entity.BotID(room.ID), that.bots.Secret()); err != nil {
			that.logger.Error("failed to submit bot secret", "roomID", room.ID, "error", err)
		}
	}

	that.broadcastRoomList()
}

func (that *Engine) handleEmoji(player *entity.Player, intent *protocol.SendEmojiIntent) {
	room, err := that.rooms.GetByID(player.RoomID)
	if err != nil {
		return
	}

	that.broadcastToRoom(room, protocol.EmojiReceived{
		Emoji:      intent.Emoji,
		Message:    intent.Message,
		SenderID:   player.ID,
		SenderName: player.Name,
	}, player.ID)
}

func (that *Engine) handleGetRooms(conn protocol.Sender) {
	that.reply(conn, that.roomList())
}

func (that *Engine) handleDisconnect(conn protocol.Sender) {
	playerID, ok := that.sessions[conn]
	delete(that.sessions, conn)
	if !ok {
		return
	}

	player, err := that.players.GetByID(playerID)
	if err != nil {
		return
	}

	// A newer connection may already own this player.
	if player.Conn != conn {
		return
	}

	if player.InRoom() {
		that.leaveCurrentRoom(player)
	}

	that.registry.Disconnect(player)

	that.history.RecordUser(&entity.UserRecord{
		At:         time.Now(),
		Event:      "leave",
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})

	that.broadcastOnlineUsers()

	that.schedule(that.timing.PlayerEviction, func() {
		that.registry.EvictIfDisconnected(playerID)
	})
}
