package baseball

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/YoonKyungHan/baseball/internal/apperror"
)

// Length is the number of digits in a secret or a guess.
const Length = 4

// Digits is an ordered sequence of four distinct digits 0-9.
type Digits [Length]int

// NewDigits validates a raw slice and converts it into Digits.
func NewDigits(values []int) (Digits, error) {
	var digits Digits

	if len(values) != Length {
		return digits, apperror.ErrInvalidDigits
	}

	seen := [10]bool{}
	for i, value := range values {
		if value < 0 || value > 9 {
			return digits, apperror.ErrInvalidDigits
		}
		if seen[value] {
			return digits, apperror.ErrInvalidDigits
		}
		seen[value] = true
		digits[i] = value
	}

	return digits, nil
}

func (that Digits) String() string {
	var builder strings.Builder
	for _, digit := range that {
		builder.WriteString(strconv.Itoa(digit))
	}
	return builder.String()
}

func (that Digits) Slice() []int {
	values := make([]int, Length)
	copy(values, that[:])
	return values
}

// RandomDigits generates a uniformly random valid sequence.
func RandomDigits() Digits {
	var digits Digits
	seen := [10]bool{}

	for i := 0; i < Length; {
		digit := rand.Intn(10) //nolint: gosec // it's ok
		if seen[digit] {
			continue
		}
		seen[digit] = true
		digits[i] = digit
		i++
	}

	return digits
}

// Universe returns all 5040 valid sequences in lexicographic order.
func Universe() []Digits {
	universe := make([]Digits, 0, 5040)

	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			if b == a {
				continue
			}
			for c := 0; c <= 9; c++ {
				if c == a || c == b {
					continue
				}
				for d := 0; d <= 9; d++ {
					if d == a || d == b || d == c {
						continue
					}
					universe = append(universe, Digits{a, b, c, d})
				}
			}
		}
	}

	return universe
}
