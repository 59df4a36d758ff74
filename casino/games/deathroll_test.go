package games

import (
	"math/rand"
	"testing"
)

func TestRunDeathrollInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		wager := rng.Int63n(10_000) + 2
		res := RunDeathroll(rng, wager)

		if res.WinnerIdx == res.LoserIdx {
			t.Fatalf("RunDeathroll() winner == loser == %d", res.WinnerIdx)
		}
		if res.WinnerIdx != 1-res.LoserIdx {
			t.Fatalf("RunDeathroll() winner = %d, loser = %d, want opposite players",
				res.WinnerIdx, res.LoserIdx)
		}

		ceiling := wager
		turn := 0
		for j, r := range res.Rolls {
			if r.PlayerIdx != turn {
				t.Fatalf("roll %d by player %d, want %d", j, r.PlayerIdx, turn)
			}
			if r.Ceiling != ceiling {
				t.Fatalf("roll %d ceiling = %d, want %d", j, r.Ceiling, ceiling)
			}
			if r.Roll < 1 || r.Roll > r.Ceiling {
				t.Fatalf("roll %d = %d out of [1, %d]", j, r.Roll, r.Ceiling)
			}
			ceiling = r.Roll
			turn = 1 - turn
		}

		last := res.Rolls[len(res.Rolls)-1]
		if last.Roll == 1 {
			if res.LoserIdx != last.PlayerIdx {
				t.Fatalf("loser = %d, want the player who rolled the 1 (%d)",
					res.LoserIdx, last.PlayerIdx)
			}
		} else if last.Roll > 1 {
			t.Fatalf("duel ended on a roll of %d with ceiling above 1", last.Roll)
		}
	}
}

func TestRunDeathrollCollapsedCeiling(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	// Wager 1 means the opener can only roll a 1, so player 0 loses
	// without a single roll being logged.
	res := RunDeathroll(rng, 1)
	if len(res.Rolls) != 0 {
		t.Errorf("RunDeathroll(1) rolls = %d, want 0", len(res.Rolls))
	}
	if res.LoserIdx != 0 || res.WinnerIdx != 1 {
		t.Errorf("RunDeathroll(1) winner = %d, loser = %d, want 1, 0",
			res.WinnerIdx, res.LoserIdx)
	}
}
