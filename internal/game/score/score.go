// Package score holds the pure per-category scoring function. It is stateless
// and kept apart from the state machine so the machine only sees it as an
// injected function value.
package score

// Category names, upper section first.
const (
	Ones   = "ones"
	Twos   = "twos"
	Threes = "threes"
	Fours  = "fours"
	Fives  = "fives"
	Sixes  = "sixes"

	ThreeOfAKind  = "three_of_a_kind"
	FourOfAKind   = "four_of_a_kind"
	FullHouse     = "full_house"
	SmallStraight = "small_straight"
	LargeStraight = "large_straight"
	Yahtzee       = "yahtzee"
	Chance        = "chance"
)

// Upper and Lower list every category in sheet order; the upper section
// drives the 63-point bonus.
var (
	Upper = []string{Ones, Twos, Threes, Fours, Fives, Sixes}
	Lower = []string{ThreeOfAKind, FourOfAKind, FullHouse, SmallStraight, LargeStraight, Yahtzee, Chance}
	All   = append(append([]string{}, Upper...), Lower...)
)

var faceValue = map[string]int{
	Ones: 1, Twos: 2, Threes: 3, Fours: 4, Fives: 5, Sixes: 6,
}

func Known(category string) bool {
	for _, c := range All {
		if c == category {
			return true
		}
	}
	return false
}

// Score maps five dice to the points the given category would award.
// Unknown categories score zero.
func Score(category string, dice [5]int) int {
	counts := [7]int{}
	sum := 0
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
			sum += d
		}
	}

	if face, ok := faceValue[category]; ok {
		return counts[face] * face
	}

	switch category {
	case ThreeOfAKind:
		if maxCount(counts) >= 3 {
			return sum
		}
	case FourOfAKind:
		if maxCount(counts) >= 4 {
			return sum
		}
	case FullHouse:
		if hasFullHouse(counts) {
			return 25
		}
	case SmallStraight:
		if runLength(counts) >= 4 {
			return 30
		}
	case LargeStraight:
		if runLength(counts) >= 5 {
			return 40
		}
	case Yahtzee:
		if maxCount(counts) == 5 {
			return 50
		}
	case Chance:
		return sum
	}
	return 0
}

func maxCount(counts [7]int) int {
	max := 0
	for _, c := range counts[1:] {
		if c > max {
			max = c
		}
	}
	return max
}

func hasFullHouse(counts [7]int) bool {
	three, pair := false, false
	for _, c := range counts[1:] {
		switch c {
		case 5:
			return true
		case 3:
			three = true
		case 2:
			pair = true
		}
	}
	return three && pair
}

func runLength(counts [7]int) int {
	best, run := 0, 0
	for face := 1; face <= 6; face++ {
		if counts[face] > 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
