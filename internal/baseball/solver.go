package baseball

import "math/rand"

// smallSetThreshold is the candidate count below which the solver stops
// picking the middle element and samples at random instead.
const smallSetThreshold = 50

// Solver guesses by candidate elimination: it keeps every sequence still
// consistent with all observed results and narrows the set after each guess.
type Solver struct {
	candidates []Digits
	attempts   int
}

func NewSolver() *Solver {
	return &Solver{
		candidates: Universe(),
	}
}

// Reset regenerates the full candidate universe for a new round.
func (that *Solver) Reset() {
	that.candidates = Universe()
	that.attempts = 0
}

// Remaining reports how many candidates are still consistent.
func (that *Solver) Remaining() int {
	return len(that.candidates)
}

// NextGuess picks the next guess. The first two attempts are sampled at
// random from the candidate set; after that the middle element is taken once
// the set is large enough. An empty set means the observed history became
// inconsistent, in which case the solver degrades to a random valid sequence
// instead of failing.
func (that *Solver) NextGuess() Digits {
	that.attempts++

	if len(that.candidates) == 0 {
		return RandomDigits()
	}

	if that.attempts <= 2 || len(that.candidates) <= smallSetThreshold {
		return that.candidates[rand.Intn(len(that.candidates))] //nolint: gosec // it's ok
	}

	return that.candidates[len(that.candidates)/2]
}

// Observe filters the candidate set down to sequences that would have
// produced the same result for the given guess. This is the only learning
// step and never removes the true secret.
func (that *Solver) Observe(guess Digits, result Result) {
	kept := that.candidates[:0]
	for _, candidate := range that.candidates {
		if Evaluate(guess, candidate) == result {
			kept = append(kept, candidate)
		}
	}
	that.candidates = kept
}
