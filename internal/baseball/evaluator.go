package baseball

// Result is the score of one guess: strikes are exact-position matches,
// balls are digits present in the secret at a different position.
type Result struct {
	Strikes int `json:"strikes"`
	Balls   int `json:"balls"`
}

func (that Result) IsHomeRun() bool {
	return that.Strikes == Length
}

// Evaluate scores a guess against a secret. It is deterministic and has no
// side effects; both arguments are assumed to hold distinct digits, so every
// secret digit can back at most one strike or ball.
func Evaluate(guess, secret Digits) Result {
	var result Result

	for i := 0; i < Length; i++ {
		if guess[i] == secret[i] {
			result.Strikes++
		}
	}

	for i := 0; i < Length; i++ {
		if guess[i] == secret[i] {
			continue
		}
		for j := 0; j < Length; j++ {
			if guess[i] == secret[j] {
				result.Balls++
				break
			}
		}
	}

	return result
}
