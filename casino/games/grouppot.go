package games

import (
	"errors"
	"math/rand"
)

// Group pot high-roll: every participant rolls [1, amount]. The
// unique highest roller takes (max - min) from the unique lowest
// roller; everyone else keeps their coins. Ties within the top or
// bottom subset re-roll among themselves until unique, capped so a
// pathological ceiling cannot spin forever.

const groupPotMaxRerolls = 100

// ErrRerollCapExceeded means ties never resolved within the cap. The
// caller should void the round with no balance movement.
var ErrRerollCapExceeded = errors.New("tie re-roll cap exceeded")

// GroupPotRoll is one participant's final roll.
type GroupPotRoll struct {
	PlayerIdx int
	Roll      int64
}

// GroupPotResult is a settled round.
type GroupPotResult struct {
	Rolls     []GroupPotRoll
	WinnerIdx int
	LoserIdx  int
	// Transfer is max roll minus min roll, the amount moved from
	// loser to winner. Zero when every roll tied at once (winner and
	// loser indexes are still distinct).
	Transfer int64
}

// RunGroupPot rolls for n participants with the pot amount as the
// roll ceiling.
func RunGroupPot(rng *rand.Rand, n int, amount int64) (GroupPotResult, error) {
	if n < 2 {
		return GroupPotResult{}, errors.New("group pot needs at least 2 participants")
	}
	if amount < 1 {
		return GroupPotResult{}, errors.New("pot amount must be at least 1")
	}

	rolls := make([]GroupPotRoll, n)
	for i := range rolls {
		rolls[i] = GroupPotRoll{PlayerIdx: i, Roll: rng.Int63n(amount) + 1}
	}

	maxRoll, minRoll := rolls[0].Roll, rolls[0].Roll
	for _, r := range rolls[1:] {
		if r.Roll > maxRoll {
			maxRoll = r.Roll
		}
		if r.Roll < minRoll {
			minRoll = r.Roll
		}
	}

	winners := filterRolls(rolls, maxRoll)
	losers := filterRolls(rolls, minRoll)

	winnerIdx, err := resolveTie(rng, winners, amount, true)
	if err != nil {
		return GroupPotResult{}, err
	}
	loserIdx, err := resolveTie(rng, losers, amount, false)
	if err != nil {
		return GroupPotResult{}, err
	}
	if winnerIdx == loserIdx {
		// Everyone rolled the same number; pick a distinct loser.
		for _, r := range rolls {
			if r.PlayerIdx != winnerIdx {
				loserIdx = r.PlayerIdx
				break
			}
		}
	}

	return GroupPotResult{
		Rolls:     rolls,
		WinnerIdx: winnerIdx,
		LoserIdx:  loserIdx,
		Transfer:  maxRoll - minRoll,
	}, nil
}

func filterRolls(rolls []GroupPotRoll, value int64) []GroupPotRoll {
	var out []GroupPotRoll
	for _, r := range rolls {
		if r.Roll == value {
			out = append(out, r)
		}
	}
	return out
}

// resolveTie re-rolls a tied subset until exactly one remains. For
// the winner subset the highest re-roll survives; for the loser
// subset the lowest does.
func resolveTie(rng *rand.Rand, tied []GroupPotRoll, amount int64, keepHighest bool) (int, error) {
	for attempt := 0; len(tied) > 1; attempt++ {
		if attempt >= groupPotMaxRerolls {
			return 0, ErrRerollCapExceeded
		}
		for i := range tied {
			tied[i].Roll = rng.Int63n(amount) + 1
		}
		extreme := tied[0].Roll
		for _, r := range tied[1:] {
			if keepHighest && r.Roll > extreme {
				extreme = r.Roll
			}
			if !keepHighest && r.Roll < extreme {
				extreme = r.Roll
			}
		}
		tied = filterRolls(tied, extreme)
	}
	return tied[0].PlayerIdx, nil
}
