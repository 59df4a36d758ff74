package tier

import (
	"errors"
	"strings"
	"testing"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
)

func TestByBalance(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		want    string
	}{
		{"Zero", 0, "Newcomer"},
		{"TopOfNewcomer", 100_000, "Newcomer"},
		{"BottomOfRegular", 100_001, "Regular"},
		{"HighRoller", 500_000, "High Roller"},
		{"VIP", 1_000_000, "VIP"},
		{"Diamond", 3_000_000, "Diamond"},
		{"Elite", 7_000_000, "Elite"},
		{"Legendary", 10_000_001, "Legendary"},
		{"WayPastTheTop", 1_000_000_000, "Legendary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByBalance(tt.balance); got.Name != tt.want {
				t.Errorf("ByBalance(%d) = %s, want %s", tt.balance, got.Name, tt.want)
			}
		})
	}
}

func TestByXP(t *testing.T) {
	tests := []struct {
		name string
		xp   int64
		want string
	}{
		{"Zero", 0, "Newcomer"},
		{"JustBelowRegular", 4_999, "Newcomer"},
		{"ExactRegularBound", 5_000, "Regular"},
		{"Legendary", 2_000_000, "Legendary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ByXP(tt.xp); got.Name != tt.want {
				t.Errorf("ByXP(%d) = %s, want %s", tt.xp, got.Name, tt.want)
			}
		})
	}
}

func TestEffectiveMaxBet(t *testing.T) {
	enabled := Limits{Enabled: true}

	tests := []struct {
		name    string
		balance int64
		xp      int64
		limits  Limits
		want    int64
	}{
		{"BothNewcomer", 1_000, 0, enabled, 5_000},
		{"RichButGreen", 5_000_000, 0, enabled, 5_000},
		{"SeasonedButBroke", 1_000, 100_000, enabled, 5_000},
		{"BothHighRoller", 400_000, 30_000, enabled, 40_000},
		{"XPLagsBalance", 1_000_000, 30_000, enabled, 40_000},
		{"Disabled", 1_000, 0, Limits{}, config.UnlimitedMaxBet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := &models.Account{Balance: tt.balance, ExperiencePoints: tt.xp}
			if got := EffectiveMaxBet(acct, tt.limits); got != tt.want {
				t.Errorf("EffectiveMaxBet() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateBet(t *testing.T) {
	acct := &models.Account{Balance: 1_000, ExperiencePoints: 0}
	limits := Limits{Enabled: true}

	if err := ValidateBet(acct, 0, limits); !errors.Is(err, ErrBetNotPositive) {
		t.Errorf("ValidateBet(0) error = %v, want ErrBetNotPositive", err)
	}
	if err := ValidateBet(acct, -5, limits); !errors.Is(err, ErrBetNotPositive) {
		t.Errorf("ValidateBet(-5) error = %v, want ErrBetNotPositive", err)
	}
	if err := ValidateBet(acct, 5_001, limits); !errors.Is(err, ErrBetTooLarge) {
		t.Errorf("ValidateBet(above cap) error = %v, want ErrBetTooLarge", err)
	}
	if err := ValidateBet(acct, 5_000, limits); err != nil {
		t.Errorf("ValidateBet(at cap) error = %v, want nil", err)
	}
	if err := ValidateBet(acct, 1_000_000, Limits{}); err != nil {
		t.Errorf("ValidateBet(limits off) error = %v, want nil", err)
	}
}

func TestValidateBetNamesBindingLadder(t *testing.T) {
	limits := Limits{Enabled: true}

	// Deep pockets, no experience: the XP ladder binds.
	rich := &models.Account{Balance: 5_000_000, ExperiencePoints: 0}
	err := ValidateBet(rich, 10_000, limits)
	if !errors.Is(err, ErrBetTooLarge) {
		t.Fatalf("ValidateBet(rich but green) error = %v, want ErrBetTooLarge", err)
	}
	if !strings.Contains(err.Error(), "Newcomer") {
		t.Errorf("ValidateBet(rich but green) error = %q, want the XP tier named", err)
	}

	// Seasoned but broke: the balance ladder binds.
	broke := &models.Account{Balance: 1_000, ExperiencePoints: 100_000}
	err = ValidateBet(broke, 10_000, limits)
	if !errors.Is(err, ErrBetTooLarge) {
		t.Fatalf("ValidateBet(seasoned but broke) error = %v, want ErrBetTooLarge", err)
	}
	if !strings.Contains(err.Error(), "Newcomer") {
		t.Errorf("ValidateBet(seasoned but broke) error = %q, want the balance tier named", err)
	}
}

func TestXPReward(t *testing.T) {
	tests := []struct {
		name  string
		wager int64
		want  int64
	}{
		{"Zero", 0, 0},
		{"Negative", -100, 0},
		{"BelowDivisor", 99, 0},
		{"ExactDivisor", 100, 1},
		{"Large", 12_345, 123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := XPReward(tt.wager); got != tt.want {
				t.Errorf("XPReward(%d) = %d, want %d", tt.wager, got, tt.want)
			}
		})
	}
}

func TestLevelAndTierUp(t *testing.T) {
	if got := Level(0); got != 1 {
		t.Errorf("Level(0) = %d, want 1", got)
	}
	if got := Level(5_000); got != 2 {
		t.Errorf("Level(5000) = %d, want 2", got)
	}
	if got := Level(1 << 62); got != len(All()) {
		t.Errorf("Level(huge) = %d, want %d", got, len(All()))
	}

	if !TierUp(4_999, 5_000) {
		t.Errorf("TierUp(4999, 5000) = false, want true")
	}
	if TierUp(5_000, 19_999) {
		t.Errorf("TierUp within a tier = true, want false")
	}
}

func TestXPProgress(t *testing.T) {
	p := XPProgress(6_000)
	if p.Current.Name != "Regular" {
		t.Fatalf("XPProgress(6000) current = %s, want Regular", p.Current.Name)
	}
	if p.Next == nil || p.Next.Name != "High Roller" {
		t.Fatalf("XPProgress(6000) next = %v, want High Roller", p.Next)
	}
	if p.XPIntoTier != 1_000 || p.XPForTier != 15_000 {
		t.Errorf("XPProgress(6000) = %d/%d, want 1000/15000", p.XPIntoTier, p.XPForTier)
	}

	top := XPProgress(3_000_000)
	if top.Next != nil {
		t.Errorf("XPProgress(top rung) next = %v, want nil", top.Next)
	}
	if top.XPIntoTier != 0 || top.XPForTier != 0 {
		t.Errorf("XPProgress(top rung) = %d/%d, want 0/0", top.XPIntoTier, top.XPForTier)
	}
}
