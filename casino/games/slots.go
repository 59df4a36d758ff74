package games

import "math/rand"

// Symbol is one slot reel face.
type Symbol string

const (
	SymbolCherry  Symbol = "🍒"
	SymbolLemon   Symbol = "🍋"
	SymbolStar    Symbol = "⭐"
	SymbolDiamond Symbol = "💎"
	SymbolSkull   Symbol = "💀"
)

// Reel weights and payout multipliers. The skull triple is the one
// outcome that costs more than the wager.
var (
	slotSymbols = []Symbol{SymbolCherry, SymbolLemon, SymbolStar, SymbolDiamond, SymbolSkull}
	slotWeights = []int{30, 25, 20, 15, 10}
)

const (
	slotPayoutTripleJackpot = 10 // 💎💎💎
	slotPayoutTripleHigh    = 5  // ⭐⭐⭐
	slotPayoutTripleMid     = 3  // 🍋🍋🍋 or 🍒🍒🍒
	slotPayoutDouble        = 2  // any two matching
	slotPayoutDeath         = 2  // 💀💀💀 loses double the wager
)

// SlotsResult is one spin, resolved.
type SlotsResult struct {
	Symbols [3]Symbol
	// Payout is the signed balance change: positive credit on a win,
	// negative debit on a loss.
	Payout  int64
	Summary string
}

func weightedSymbol(rng *rand.Rand) Symbol {
	total := 0
	for _, w := range slotWeights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range slotWeights {
		if n < w {
			return slotSymbols[i]
		}
		n -= w
	}
	return slotSymbols[len(slotSymbols)-1]
}

// SpinSlots spins three weighted reels and resolves the payout for
// the given wager.
func SpinSlots(rng *rand.Rand, bet int64) SlotsResult {
	var symbols [3]Symbol
	for i := range symbols {
		symbols[i] = weightedSymbol(rng)
	}
	payout, summary := slotsPayout(symbols, bet)
	return SlotsResult{Symbols: symbols, Payout: payout, Summary: summary}
}

func slotsPayout(symbols [3]Symbol, bet int64) (int64, string) {
	if symbols[0] == symbols[1] && symbols[1] == symbols[2] {
		switch symbols[0] {
		case SymbolSkull:
			return -bet * slotPayoutDeath, "💀 DEATH CURSE! Triple skulls!"
		case SymbolDiamond:
			return bet * slotPayoutTripleJackpot, "💎 JACKPOT! Triple diamonds!"
		case SymbolStar:
			return bet * slotPayoutTripleHigh, "⭐ Amazing! Triple stars!"
		default:
			return bet * slotPayoutTripleMid, "Nice! Triple " + string(symbols[0]) + "!"
		}
	}

	if symbols[0] == symbols[1] || symbols[1] == symbols[2] || symbols[0] == symbols[2] {
		match := symbols[0]
		if symbols[1] == symbols[2] {
			match = symbols[1]
		}
		return bet * slotPayoutDouble, "Small win! Two " + string(match)
	}

	return -bet, "No match. Better luck next time!"
}
