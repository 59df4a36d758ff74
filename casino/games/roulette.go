package games

import "math/rand"

// RouletteColor is a wheel color.
type RouletteColor string

const (
	Red   RouletteColor = "red"
	Black RouletteColor = "black"
	Green RouletteColor = "green"
)

// RouletteBet is what the player wagers on.
type RouletteBet string

const (
	BetRed   RouletteBet = "red"
	BetBlack RouletteBet = "black"
	BetGreen RouletteBet = "green"
	BetOdd   RouletteBet = "odd"
	BetEven  RouletteBet = "even"
	BetHigh  RouletteBet = "high" // 19-36
	BetLow   RouletteBet = "low"  // 1-18
)

const (
	roulettePayoutColor = 2
	roulettePayoutGreen = 14
	roulettePayoutEven  = 2
)

// European wheel layout.
var (
	redNumbers   = []int{1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36}
	blackNumbers = []int{2, 4, 6, 8, 10, 11, 13, 15, 17, 20, 22, 24, 26, 28, 29, 31, 33, 35}
)

// RouletteResult is one spin, resolved against a single bet.
type RouletteResult struct {
	Color  RouletteColor
	Number int
	Payout int64
	Win    bool
}

// SpinRoulette spins the wheel with 18/18/1 color weighting, then
// picks a number matching the color. Even-money bets (odd/even,
// high/low) always lose on green zero.
func SpinRoulette(rng *rand.Rand, bet int64, choice RouletteBet) RouletteResult {
	var (
		color  RouletteColor
		number int
	)
	switch n := rng.Intn(37); {
	case n < 18:
		color = Red
		number = redNumbers[rng.Intn(len(redNumbers))]
	case n < 36:
		color = Black
		number = blackNumbers[rng.Intn(len(blackNumbers))]
	default:
		color = Green
		number = 0
	}

	result := RouletteResult{Color: color, Number: number}
	result.Win = rouletteWins(choice, color, number)
	switch {
	case !result.Win:
		result.Payout = -bet
	case choice == BetGreen:
		result.Payout = bet * roulettePayoutGreen
	case choice == BetRed || choice == BetBlack:
		result.Payout = bet * roulettePayoutColor
	default:
		result.Payout = bet * roulettePayoutEven
	}
	return result
}

func rouletteWins(choice RouletteBet, color RouletteColor, number int) bool {
	switch choice {
	case BetRed:
		return color == Red
	case BetBlack:
		return color == Black
	case BetGreen:
		return color == Green
	case BetOdd:
		return number != 0 && number%2 == 1
	case BetEven:
		return number != 0 && number%2 == 0
	case BetHigh:
		return number >= 19
	case BetLow:
		return number >= 1 && number <= 18
	default:
		return false
	}
}
