package service

import (
	"errors"

	"github.com/YoonKyungHan/baseball/internal/baseball"
)

var ErrBotNotPlaying = errors.New("no bot solver for this room")

// BotService keeps a solver per room the computer opponent plays in.
type BotService struct {
	solvers map[string]*baseball.Solver
}

func NewBotService() *BotService {
	return &BotService{
		solvers: make(map[string]*baseball.Solver),
	}
}

// StartRound resets the solver state for a fresh round.
func (that *BotService) StartRound(roomID string) {
	solver, ok := that.solvers[roomID]
	if !ok {
		that.solvers[roomID] = baseball.NewSolver()
		return
	}

	solver.Reset()
}

// Secret picks the number the bot defends with.
func (that *BotService) Secret() baseball.Digits {
	return baseball.RandomDigits()
}

func (that *BotService) NextGuess(roomID string) (baseball.Digits, error) {
	solver, ok := that.solvers[roomID]
	if !ok {
		return baseball.Digits{}, ErrBotNotPlaying
	}

	return solver.NextGuess(), nil
}

// Observe narrows the solver's candidates with the feedback for a guess.
func (that *BotService) Observe(roomID string, guess baseball.Digits, result baseball.Result) {
	if solver, ok := that.solvers[roomID]; ok {
		solver.Observe(guess, result)
	}
}

// Forget drops the solver once the room is done with the bot.
func (that *BotService) Forget(roomID string) {
	delete(that.solvers, roomID)
}
