package games

import "math/rand"

// Deathroll duel: two players alternate rolling [1, ceiling], and
// each roll becomes the next ceiling. Rolling a 1 loses; reaching a
// ceiling of 1 loses for the player who would have to roll it. The
// loser pays the winner the full wager.

// DeathRoll is one roll in the log.
type DeathRoll struct {
	PlayerIdx int
	Ceiling   int64
	Roll      int64
}

// DeathrollResult is a finished duel.
type DeathrollResult struct {
	Rolls     []DeathRoll
	WinnerIdx int
	LoserIdx  int
}

// RunDeathroll plays a full duel to completion. The wager doubles as
// the starting ceiling. Player 0 rolls first.
func RunDeathroll(rng *rand.Rand, wager int64) DeathrollResult {
	ceiling := wager
	current := 0
	var rolls []DeathRoll

	for ceiling > 1 {
		roll := rng.Int63n(ceiling) + 1
		rolls = append(rolls, DeathRoll{PlayerIdx: current, Ceiling: ceiling, Roll: roll})

		if roll == 1 {
			return DeathrollResult{Rolls: rolls, WinnerIdx: 1 - current, LoserIdx: current}
		}

		ceiling = roll
		current = 1 - current
	}

	// Ceiling collapsed to 1: the player on turn can only roll a 1.
	return DeathrollResult{Rolls: rolls, WinnerIdx: 1 - current, LoserIdx: current}
}
