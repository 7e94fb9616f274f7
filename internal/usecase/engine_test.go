package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/YoonKyungHan/baseball/internal/baseball"
	"github.com/YoonKyungHan/baseball/internal/entity"
	"github.com/YoonKyungHan/baseball/internal/protocol"
	"github.com/YoonKyungHan/baseball/internal/repository"
	"github.com/YoonKyungHan/baseball/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every notification delivered to one client.
type fakeConn struct {
	notes []protocol.Notification
}

func (that *fakeConn) Send(notification protocol.Notification) error {
	that.notes = append(that.notes, notification)
	return nil
}

func lastOfType[T protocol.Notification](conn *fakeConn) (T, bool) {
	var last T
	found := false
	for _, note := range conn.notes {
		if typed, ok := note.(T); ok {
			last = typed
			found = true
		}
	}
	return last, found
}

func countOfType[T protocol.Notification](conn *fakeConn) int {
	count := 0
	for _, note := range conn.notes {
		if _, ok := note.(T); ok {
			count++
		}
	}
	return count
}

type recordedSink struct {
	matches []*entity.MatchRecord
	users   []*entity.UserRecord
}

func (that *recordedSink) RecordMatch(record *entity.MatchRecord) {
	that.matches = append(that.matches, record)
}

func (that *recordedSink) RecordUser(record *entity.UserRecord) {
	that.users = append(that.users, record)
}

// testBench runs the engine synchronously: intents dispatch inline and
// scheduled tasks are captured so tests fire them by hand.
type testBench struct {
	engine *Engine
	sink   *recordedSink
	timers []func()
}

func newTestBench() *testBench {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	players := repository.NewPlayerStore()
	rooms := repository.NewRoomStore()
	registry := service.NewRegistry(logger, players)
	sink := &recordedSink{}

	engine := NewEngine(logger, players, rooms, registry, service.NewBotService(), sink, Timing{
		PlayerEviction: 20 * time.Minute,
		RoomDeletion:   5 * time.Second,
		MatchEndDelay:  2 * time.Second,
		NextRoundDelay: 3 * time.Second,
	})

	bench := &testBench{engine: engine, sink: sink}
	engine.schedule = func(_ time.Duration, task func()) {
		bench.timers = append(bench.timers, task)
	}

	return bench
}

func (that *testBench) fireTimers() {
	pending := that.timers
	that.timers = nil
	for _, task := range pending {
		task()
	}
}

func (that *testBench) join(t *testing.T, name string) (*fakeConn, string) {
	t.Helper()

	conn := &fakeConn{}
	that.engine.dispatch(conn, &protocol.JoinIntent{PlayerName: name})

	joined, ok := lastOfType[protocol.Joined](conn)
	require.True(t, ok, "expected a joined reply for %s", name)

	return conn, joined.PlayerID
}

func (that *testBench) createRoom(t *testing.T, conn *fakeConn, mode string) string {
	t.Helper()

	that.engine.dispatch(conn, &protocol.CreateRoomIntent{RoomName: "test room", GameMode: mode})

	created, ok := lastOfType[protocol.RoomCreated](conn)
	require.True(t, ok, "expected a roomCreated reply")

	return created.Room.ID
}

func (that *testBench) room(t *testing.T, roomID string) *entity.Room {
	t.Helper()

	room, err := that.engine.rooms.GetByID(roomID)
	require.NoError(t, err)

	return room
}

func digits(t *testing.T, numbers ...int) baseball.Digits {
	t.Helper()

	d, err := baseball.NewDigits(numbers)
	require.NoError(t, err)

	return d
}

func TestEngine_SingleMatch(t *testing.T) {
	bench := newTestBench()

	// Given: two players in one single-mode room
	aliceConn, aliceID := bench.join(t, "alice")
	bobConn, bobID := bench.join(t, "bob")

	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})

	joinResult, ok := lastOfType[protocol.JoinRoomResult](bobConn)
	require.True(t, ok)
	require.True(t, joinResult.Success)

	// Both get the call to set their numbers.
	_, ok = lastOfType[protocol.GameStart](aliceConn)
	assert.True(t, ok)

	// When: both submit secrets
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// Then: the round starts and the room creator moves first
	aliceStart, ok := lastOfType[protocol.GameStarted](aliceConn)
	require.True(t, ok)
	assert.True(t, aliceStart.IsMyTurn)
	assert.Equal(t, "bob", aliceStart.OpponentName)

	bobStart, ok := lastOfType[protocol.GameStarted](bobConn)
	require.True(t, ok)
	assert.False(t, bobStart.IsMyTurn)

	// And: a guess out of turn is rejected without side effects
	bench.engine.dispatch(bobConn, &protocol.MakeGuessIntent{Numbers: []int{1, 2, 3, 4}})
	rejected, ok := lastOfType[protocol.GuessRejected](bobConn)
	require.True(t, ok)
	assert.False(t, rejected.Success)
	assert.Equal(t, aliceID, bench.room(t, roomID).CurrentTurn)

	// When: alice misses, the turn passes to bob
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 8, 7}})
	turn, ok := lastOfType[protocol.TurnChanged](bobConn)
	require.True(t, ok)
	assert.Equal(t, bobID, turn.CurrentTurn)

	// When: bob hits the home run
	bench.engine.dispatch(bobConn, &protocol.MakeGuessIntent{Numbers: []int{1, 2, 3, 4}})

	roundWin, ok := lastOfType[protocol.RoundWin](aliceConn)
	require.True(t, ok)
	assert.Equal(t, bobID, roundWin.Winner)

	// Then: after the end-of-match delay the game is over for both
	bench.fireTimers()

	ended, ok := lastOfType[protocol.GameEnded](aliceConn)
	require.True(t, ok)
	assert.Equal(t, "bob", ended.WinnerName)
	assert.Equal(t, digits(t, 5, 6, 7, 8), ended.SecretNumbers[bobID])
	assert.True(t, bench.room(t, roomID).IsFinished())

	// And: exactly one match lands in the history sink
	require.Len(t, bench.sink.matches, 1)
	assert.Equal(t, "bob", bench.sink.matches[0].WinnerName)
	assert.Equal(t, "alice", bench.sink.matches[0].LoserName)

	// And: a restart brings the room back to the setting phase with clean wins
	bench.engine.dispatch(aliceConn, &protocol.RestartGameIntent{})
	_, ok = lastOfType[protocol.GameRestarted](bobConn)
	require.True(t, ok)
	assert.True(t, bench.room(t, roomID).IsSetting())
	assert.Equal(t, 0, bench.room(t, roomID).Wins[bobID])
}

func TestEngine_SetNumberReplyComesAfterBroadcasts(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})

	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// The second submitter sees gameStarted before its own setNumberResult.
	startedAt, resultAt := -1, -1
	for i, note := range bobConn.notes {
		switch note.(type) {
		case protocol.GameStarted:
			startedAt = i
		case protocol.SetNumberResult:
			resultAt = i
		}
	}

	require.GreaterOrEqual(t, startedAt, 0)
	require.GreaterOrEqual(t, resultAt, 0)
	assert.Less(t, startedAt, resultAt)
}

func TestEngine_LeaveInterruptsAndRejoinRestores(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// When: bob walks out mid-game
	bench.engine.dispatch(bobConn, &protocol.LeaveRoomIntent{})

	// Then: alice is told twice over and the room resets to waiting
	left, ok := lastOfType[protocol.PlayerLeft](aliceConn)
	require.True(t, ok)
	assert.Equal(t, "bob", left.PlayerName)
	_, ok = lastOfType[protocol.GameInterrupted](aliceConn)
	assert.True(t, ok)
	assert.True(t, bench.room(t, roomID).IsWaiting())

	// When: bob comes back
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})

	// Then: both seats are filled and secrets are asked for again
	assert.True(t, bench.room(t, roomID).IsSetting())
	assert.Empty(t, bench.room(t, roomID).Secrets)
}

func TestEngine_BestOfThree(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeBestOf3)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})

	winRound := func(round int) {
		bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
		bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

		// Alice moves first each round and wins outright.
		bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 7, 8}})

		roundWin, ok := lastOfType[protocol.RoundWin](bobConn)
		require.True(t, ok)
		require.Equal(t, aliceID, roundWin.Winner)
		require.Equal(t, round, roundWin.CurrentRound)
	}

	// Round one: not enough for the match, the next round starts
	winRound(1)
	assert.Empty(t, bench.sink.matches)

	bench.fireTimers()

	next, ok := lastOfType[protocol.NextRound](aliceConn)
	require.True(t, ok)
	assert.Equal(t, 2, next.CurrentRound)
	assert.Equal(t, map[string]int{aliceID: 1, bench.room(t, roomID).Players[1]: 0}, next.Wins)

	// Round two: second win takes the match
	winRound(2)
	bench.fireTimers()

	ended, ok := lastOfType[protocol.GameEnded](bobConn)
	require.True(t, ok)
	assert.Equal(t, aliceID, ended.WinnerID)
	assert.Equal(t, 2, ended.FinalWins[aliceID])
	require.Len(t, bench.sink.matches, 1)
	assert.Equal(t, entity.ModeBestOf3, bench.sink.matches[0].GameMode)
}

func TestEngine_GuessAcknowledgedDirectly(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// When: alice guesses two in place and two misplaced
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 8, 7}})

	// Then: the guesser gets her own scored acknowledgement on top of the
	// room broadcast, and nobody else does
	reply, ok := lastOfType[protocol.GuessReply](aliceConn)
	require.True(t, ok)
	assert.True(t, reply.Success)
	assert.Equal(t, baseball.Result{Strikes: 2, Balls: 2}, reply.Result)
	assert.False(t, reply.IsHomeRun)
	assert.Zero(t, countOfType[protocol.GuessReply](bobConn))
}

func TestEngine_MatchDecisionSurvivesLoserLeaving(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")
	bobConn, bobID := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// Given: alice takes the match
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 7, 8}})

	// Then: the result is recorded the moment the match is decided
	require.Len(t, bench.sink.matches, 1)
	assert.Equal(t, "alice", bench.sink.matches[0].WinnerName)
	assert.Equal(t, "bob", bench.sink.matches[0].LoserName)

	// When: bob leaves before the end-of-match delay elapses
	bench.engine.dispatch(bobConn, &protocol.LeaveRoomIntent{})
	bench.fireTimers()

	// Then: the winner still receives the full end-of-match reveal
	ended, ok := lastOfType[protocol.GameEnded](aliceConn)
	require.True(t, ok)
	assert.Equal(t, aliceID, ended.WinnerID)
	assert.Equal(t, digits(t, 5, 6, 7, 8), ended.SecretNumbers[bobID])
	require.Len(t, bench.sink.matches, 1)
}

func TestEngine_RestartFromAnyPhase(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")
	bobConn, bobID := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 8, 7}})

	// When: a restart arrives mid-game
	bench.engine.dispatch(bobConn, &protocol.RestartGameIntent{})

	// Then: the room resets to the setting phase with everything cleared
	_, ok := lastOfType[protocol.GameRestarted](aliceConn)
	require.True(t, ok)

	room := bench.room(t, roomID)
	assert.True(t, room.IsSetting())
	assert.Empty(t, room.Secrets)
	assert.Equal(t, 1, room.CurrentRound)
	assert.Equal(t, 0, room.Wins[aliceID])
	assert.Equal(t, 0, room.Wins[bobID])
}

func TestEngine_RestartOutsideARoomIsRejected(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")

	bench.engine.dispatch(aliceConn, &protocol.RestartGameIntent{})

	rejected, ok := lastOfType[protocol.ActionRejected](aliceConn)
	require.True(t, ok)
	assert.False(t, rejected.Success)
	assert.NotEmpty(t, rejected.Message)
}

func TestEngine_InterruptCancelsPendingRound(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeBestOf3)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})
	bench.engine.dispatch(bobConn, &protocol.SetNumberIntent{Numbers: []int{5, 6, 7, 8}})

	// Given: a round win with the next-round timer pending
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: []int{5, 6, 7, 8}})

	// When: bob leaves before the timer fires
	bench.engine.dispatch(bobConn, &protocol.LeaveRoomIntent{})
	nextRoundsBefore := countOfType[protocol.NextRound](aliceConn)

	bench.fireTimers()

	// Then: the stale timer is a no-op
	assert.Equal(t, nextRoundsBefore, countOfType[protocol.NextRound](aliceConn))
	assert.True(t, bench.room(t, roomID).IsWaiting())
}

func TestEngine_ReconnectByName(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")

	// When: the connection drops and a new one joins under the same name
	bench.engine.handleDisconnect(aliceConn)
	_, againID := bench.join(t, "alice")

	// Then: the identity is reclaimed
	assert.Equal(t, aliceID, againID)

	// And: the eviction timer from the disconnect is a no-op now
	bench.fireTimers()
	_, err := bench.engine.players.GetByID(aliceID)
	assert.NoError(t, err)
}

func TestEngine_DisconnectEvictsAfterGrace(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")

	bench.engine.handleDisconnect(aliceConn)
	bench.fireTimers()

	_, err := bench.engine.players.GetByID(aliceID)
	assert.Error(t, err)

	require.Len(t, bench.sink.users, 2)
	assert.Equal(t, "join", bench.sink.users[0].Event)
	assert.Equal(t, "leave", bench.sink.users[1].Event)
}

func TestEngine_EmptyRoomDeletedAfterGrace(t *testing.T) {
	bench := newTestBench()

	t.Run("Deleted when nobody returns", func(t *testing.T) {
		aliceConn, _ := bench.join(t, "alice")
		roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)

		bench.engine.dispatch(aliceConn, &protocol.LeaveRoomIntent{})
		bench.fireTimers()

		_, err := bench.engine.rooms.GetByID(roomID)
		assert.Error(t, err)
	})

	t.Run("Kept alive by a rejoin within the grace period", func(t *testing.T) {
		aliceConn, _ := bench.join(t, "alice")
		bobConn, _ := bench.join(t, "bob")
		roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)

		bench.engine.dispatch(aliceConn, &protocol.LeaveRoomIntent{})
		bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})
		bench.fireTimers()

		_, err := bench.engine.rooms.GetByID(roomID)
		assert.NoError(t, err)
	})
}

func TestEngine_EmojiReachesOnlyTheOpponent(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSingle)
	bench.engine.dispatch(bobConn, &protocol.JoinRoomIntent{RoomID: roomID})

	bench.engine.dispatch(aliceConn, &protocol.SendEmojiIntent{Emoji: "🔥", Message: "nice"})

	received, ok := lastOfType[protocol.EmojiReceived](bobConn)
	require.True(t, ok)
	assert.Equal(t, "🔥", received.Emoji)
	assert.Equal(t, "alice", received.SenderName)
	assert.Zero(t, countOfType[protocol.EmojiReceived](aliceConn))
}

func TestEngine_SoloMatchAgainstTheBot(t *testing.T) {
	bench := newTestBench()

	aliceConn, aliceID := bench.join(t, "alice")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSolo)
	room := bench.room(t, roomID)
	botID := entity.BotID(roomID)

	// The bot takes the second seat and is already committed to a secret.
	require.True(t, room.HasMember(botID))
	require.True(t, room.IsSetting())
	require.Contains(t, room.Secrets, botID)

	// When: alice sets her number, the round starts with her turn
	bench.engine.dispatch(aliceConn, &protocol.SetNumberIntent{Numbers: []int{1, 2, 3, 4}})

	started, ok := lastOfType[protocol.GameStarted](aliceConn)
	require.True(t, ok)
	assert.True(t, started.IsMyTurn)
	assert.Equal(t, "AI", started.OpponentName)

	// When: alice misses with a scrambled copy of the bot's secret
	botSecret := room.Secrets[botID].Slice()
	miss := []int{botSecret[1], botSecret[0], botSecret[2], botSecret[3]}
	bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: miss})

	// Then: the bot answers on its own turn right away
	require.GreaterOrEqual(t, countOfType[protocol.GuessResult](aliceConn), 2)

	if room.IsPlaying() {
		// The bot missed too; alice finishes it off.
		require.Equal(t, aliceID, room.CurrentTurn)
		bench.engine.dispatch(aliceConn, &protocol.MakeGuessIntent{Numbers: botSecret})

		roundWin, ok := lastOfType[protocol.RoundWin](aliceConn)
		require.True(t, ok)
		assert.Equal(t, aliceID, roundWin.Winner)
	}

	bench.fireTimers()

	ended, ok := lastOfType[protocol.GameEnded](aliceConn)
	require.True(t, ok)
	assert.NotEmpty(t, ended.WinnerID)
	require.Len(t, bench.sink.matches, 1)
	assert.Equal(t, entity.ModeSolo, bench.sink.matches[0].GameMode)
}

func TestEngine_LeavingSoloRoomRemovesTheBot(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	roomID := bench.createRoom(t, aliceConn, entity.ModeSolo)
	botID := entity.BotID(roomID)

	bench.engine.dispatch(aliceConn, &protocol.LeaveRoomIntent{})
	bench.fireTimers()

	_, err := bench.engine.rooms.GetByID(roomID)
	assert.Error(t, err)
	_, err = bench.engine.players.GetByID(botID)
	assert.Error(t, err)
}

func TestEngine_RoomListOnlyReachesTheLobby(t *testing.T) {
	bench := newTestBench()

	aliceConn, _ := bench.join(t, "alice")
	bobConn, _ := bench.join(t, "bob")

	bench.createRoom(t, aliceConn, entity.ModeSingle)

	// Bob sits in the lobby and sees the new room; alice is inside it and
	// gets no directory update beyond her join-time snapshot.
	list, ok := lastOfType[protocol.RoomList](bobConn)
	require.True(t, ok)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, 1, list.Rooms[0].PlayerCount)

	aliceLists := countOfType[protocol.RoomList](aliceConn)
	assert.Equal(t, 1, aliceLists)
}
