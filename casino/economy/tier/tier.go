package tier

import (
	"errors"
	"fmt"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
)

// Tier is one rung of the progression ladder. Balance bounds are
// inclusive on both ends; XP bounds are inclusive-exclusive so the
// rungs tile the number line without gaps.
type Tier struct {
	Name       string
	MaxBet     int64
	MinBalance int64
	MaxBalance int64
	MinXP      int64
	MaxXP      int64
}

// The ladder, lowest to highest. The top rung is open-ended.
var tiers = []Tier{
	{"Newcomer", 5_000, 0, 100_000, 0, 5_000},
	{"Regular", 15_000, 100_001, 300_000, 5_000, 20_000},
	{"High Roller", 40_000, 300_001, 750_000, 20_000, 75_000},
	{"VIP", 100_000, 750_001, 2_000_000, 75_000, 250_000},
	{"Diamond", 300_000, 2_000_001, 5_000_000, 250_000, 750_000},
	{"Elite", 750_000, 5_000_001, 10_000_000, 750_000, 2_000_000},
	{"Legendary", config.UnlimitedMaxBet, 10_000_001, 1<<63 - 1, 2_000_000, 1<<63 - 1},
}

// ErrBetTooLarge is returned when a wager exceeds the account's
// effective maximum bet.
var ErrBetTooLarge = errors.New("bet exceeds tier limit")

// ErrBetNotPositive is returned for zero or negative wagers.
var ErrBetNotPositive = errors.New("bet must be positive")

// Limits controls whether tier caps apply at all.
type Limits struct {
	Enabled bool
}

// ByBalance returns the tier whose balance band contains b.
func ByBalance(b int64) Tier {
	for _, t := range tiers {
		if b >= t.MinBalance && b <= t.MaxBalance {
			return t
		}
	}
	return tiers[0]
}

// ByXP returns the tier whose XP band contains x.
func ByXP(x int64) Tier {
	for _, t := range tiers {
		if x >= t.MinXP && x < t.MaxXP {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// All returns a copy of the ladder, lowest tier first.
func All() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// EffectiveMaxBet is the stricter of the balance-derived and
// XP-derived caps. With limits disabled every bet up to the sentinel
// is allowed.
func EffectiveMaxBet(account *models.Account, limits Limits) int64 {
	if !limits.Enabled {
		return config.UnlimitedMaxBet
	}
	byBal := ByBalance(account.Balance).MaxBet
	byXP := ByXP(account.ExperiencePoints).MaxBet
	if byXP < byBal {
		return byXP
	}
	return byBal
}

// ValidateBet checks a wager against the account's effective cap. The
// over-limit error names whichever ladder produced the binding cap.
func ValidateBet(account *models.Account, bet int64, limits Limits) error {
	if bet <= 0 {
		return ErrBetNotPositive
	}
	max := EffectiveMaxBet(account, limits)
	if bet > max {
		binding := ByBalance(account.Balance)
		if xpTier := ByXP(account.ExperiencePoints); xpTier.MaxBet < binding.MaxBet {
			binding = xpTier
		}
		return fmt.Errorf("%w: max %d for %s", ErrBetTooLarge, max, binding.Name)
	}
	return nil
}

// XPReward converts a wagered amount into experience.
func XPReward(wager int64) int64 {
	if wager <= 0 {
		return 0
	}
	return wager / config.XPDivisor
}

// Level derives the display level from total XP: the 1-based index of
// the XP tier.
func Level(totalXP int64) int {
	for i, t := range tiers {
		if totalXP >= t.MinXP && totalXP < t.MaxXP {
			return i + 1
		}
	}
	return len(tiers)
}

// TierUp reports whether the XP gain crossed into a higher tier.
func TierUp(oldXP, newXP int64) bool {
	return Level(newXP) > Level(oldXP)
}

// Progress describes how far an account is through its current XP
// tier, for display.
type Progress struct {
	Current Tier
	Next    *Tier
	// XPIntoTier and XPForTier are both zero at the top rung.
	XPIntoTier int64
	XPForTier  int64
}

// XPProgress computes tier progress from total experience.
func XPProgress(totalXP int64) Progress {
	for i, t := range tiers {
		if totalXP >= t.MinXP && totalXP < t.MaxXP {
			p := Progress{Current: t}
			if i+1 < len(tiers) {
				next := tiers[i+1]
				p.Next = &next
				p.XPIntoTier = totalXP - t.MinXP
				p.XPForTier = t.MaxXP - t.MinXP
			}
			return p
		}
	}
	return Progress{Current: tiers[len(tiers)-1]}
}
