package streak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
)

// Kind is the claim cadence a streak tracks.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindHourly Kind = "hourly"
)

var (
	// ErrOnCooldown means the current window was already claimed.
	ErrOnCooldown = errors.New("already claimed this window")
	// ErrStreakNotBroken means insurance was requested for a streak
	// that is still alive.
	ErrStreakNotBroken = errors.New("streak is not broken")
)

// Params tunes one claim ladder.
type Params struct {
	BaseReward    int64
	BonusPerStep  float64
	CapStep       int
	MaxReward     int64
	InsuranceCost int64
	// GraceMissed only applies to hourly streaks: how many whole
	// missed hours are forgiven before the streak breaks.
	GraceMissed int
}

// Config carries both ladders plus the reset clock.
type Config struct {
	Daily     Params
	Hourly    Params
	ResetHour int
	Location  *time.Location
}

// ClaimResult describes a successful claim.
type ClaimResult struct {
	Reward    int64
	Streak    int
	Best      int
	WasBroken bool
	Account   *models.Account
}

// Status is a read-only view of one streak ladder.
type Status struct {
	Streak     int
	Best       int
	Claimable  bool
	Broken     bool
	NextWindow time.Time
	NextReward int64
}

// Engine owns the claim and insurance flows for both cadences.
type Engine struct {
	accounts repositories.AccountRepository
	ledger   *ledger.Ledger
	cfg      Config
	now      func() time.Time
}

func NewEngine(accounts repositories.AccountRepository, lgr *ledger.Ledger, cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		accounts: accounts,
		ledger:   lgr,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (e *Engine) params(kind Kind) Params {
	if kind == KindDaily {
		return e.cfg.Daily
	}
	return e.cfg.Hourly
}

func (e *Engine) lastClaim(account *models.Account, kind Kind) time.Time {
	if kind == KindDaily {
		return account.LastDailyClaim
	}
	return account.LastHourlyClaim
}

func (e *Engine) streak(account *models.Account, kind Kind) (current, best int) {
	if kind == KindDaily {
		return account.DailyStreak, account.DailyStreakBest
	}
	return account.HourlyStreak, account.HourlyStreakBest
}

// windowsSince counts full windows between the last claim and now.
// 0 = same window (on cooldown), 1 = consecutive, more = missed some.
func (e *Engine) windowsSince(last, now time.Time, kind Kind) int {
	if kind == KindDaily {
		return DailyWindowsBetween(last, now, e.cfg.ResetHour, e.cfg.Location)
	}
	return HourlyWindowsBetween(last, now, e.cfg.Location)
}

// broken reports whether the gap in windows kills the streak. Daily
// streaks die after one full missed window; hourly streaks get a
// configured grace.
func (e *Engine) broken(windows int, kind Kind) bool {
	if windows <= 1 {
		return false
	}
	missed := windows - 1
	if kind == KindDaily {
		return missed >= 1
	}
	return missed >= e.params(kind).GraceMissed
}

// Reward computes the payout for a given streak position. The bonus
// ladder climbs until CapStep, then the reward is flat MaxReward.
func Reward(p Params, streak int) int64 {
	if streak < 1 {
		streak = 1
	}
	if streak >= p.CapStep {
		return p.MaxReward
	}
	reward := p.BaseReward + int64(float64(p.BaseReward)*p.BonusPerStep*float64(streak-1))
	if reward > p.MaxReward {
		reward = p.MaxReward
	}
	return reward
}

// Claim attempts a reward claim for the account's streak of the given
// kind. Never-claimed accounts start at streak 1. The whole
// read-check-grant sequence holds the account lock so two racing
// claims cannot both see the window as unclaimed.
func (e *Engine) Claim(ctx context.Context, accountID int64, kind Kind) (*ClaimResult, error) {
	var result *ClaimResult
	err := e.ledger.WithAccount(accountID, func() error {
		account, err := e.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		now := e.now()
		last := e.lastClaim(account, kind)
		current, best := e.streak(account, kind)

		var (
			streak    int
			wasBroken bool
		)
		switch {
		case last.IsZero():
			streak = 1
		default:
			windows := e.windowsSince(last, now, kind)
			if windows == 0 {
				return ErrOnCooldown
			}
			if e.broken(windows, kind) {
				streak = 1
				wasBroken = true
			} else {
				streak = current + 1
			}
		}

		if streak > best {
			best = streak
		}

		p := e.params(kind)
		reward := Reward(p, streak)

		updated, err := e.ledger.AdjustLocked(ctx, accountID, reward, claimReason(kind), nil)
		if err != nil {
			return err
		}
		if err := e.accounts.SetClaimState(ctx, accountID, claimKind(kind), now, streak, best); err != nil {
			return fmt.Errorf("reward granted but claim state not saved: %w", err)
		}
		if kind == KindDaily {
			updated.LastDailyClaim = now.UTC()
			updated.DailyStreak = streak
			updated.DailyStreakBest = best
		} else {
			updated.LastHourlyClaim = now.UTC()
			updated.HourlyStreak = streak
			updated.HourlyStreakBest = best
		}

		slog.Info("Claim granted",
			slog.String("type", "eco"),
			slog.String("kind", string(kind)),
			slog.Int64("account_id", accountID),
			slog.Int64("reward", reward),
			slog.Int("streak", streak),
			slog.Bool("was_broken", wasBroken))

		result = &ClaimResult{
			Reward:    reward,
			Streak:    streak,
			Best:      best,
			WasBroken: wasBroken,
			Account:   updated,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PurchaseInsurance repairs a broken streak for a fee. The last-claim
// timestamp is rewritten to just inside the previous window, so the
// next Claim continues the old streak. No reward is granted here. Like
// Claim, the check-charge-repair sequence runs under the account lock
// so a double press cannot charge twice.
func (e *Engine) PurchaseInsurance(ctx context.Context, accountID int64, kind Kind) (*models.Account, error) {
	var repairedAccount *models.Account
	err := e.ledger.WithAccount(accountID, func() error {
		account, err := e.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		now := e.now()
		last := e.lastClaim(account, kind)
		if last.IsZero() {
			return ErrStreakNotBroken
		}
		windows := e.windowsSince(last, now, kind)
		if !e.broken(windows, kind) {
			return ErrStreakNotBroken
		}

		p := e.params(kind)
		updated, err := e.ledger.AdjustLocked(ctx, accountID, -p.InsuranceCost, models.ReasonStreakInsurance, nil)
		if err != nil {
			return err
		}

		var repaired time.Time
		if kind == KindDaily {
			repaired = PreviousDailyWindowStart(now, e.cfg.ResetHour, e.cfg.Location).Add(time.Second)
		} else {
			repaired = PreviousHourlyWindowStart(now, e.cfg.Location).Add(time.Second)
		}
		if err := e.accounts.SetLastClaim(ctx, accountID, claimKind(kind), repaired); err != nil {
			return fmt.Errorf("insurance charged but claim not repaired: %w", err)
		}

		slog.Info("Streak insurance purchased",
			slog.String("type", "eco"),
			slog.String("kind", string(kind)),
			slog.Int64("account_id", accountID),
			slog.Int64("cost", p.InsuranceCost))

		if kind == KindDaily {
			updated.LastDailyClaim = repaired.UTC()
		} else {
			updated.LastHourlyClaim = repaired.UTC()
		}
		repairedAccount = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repairedAccount, nil
}

// Status reports the current state of a streak ladder without
// mutating anything.
func (e *Engine) Status(account *models.Account, kind Kind) Status {
	now := e.now()
	last := e.lastClaim(account, kind)
	current, best := e.streak(account, kind)
	p := e.params(kind)

	st := Status{Streak: current, Best: best}
	if last.IsZero() {
		st.Claimable = true
		st.NextReward = Reward(p, 1)
		return st
	}

	windows := e.windowsSince(last, now, kind)
	st.Claimable = windows > 0
	st.Broken = e.broken(windows, kind)

	next := current + 1
	if st.Broken {
		next = 1
	}
	st.NextReward = Reward(p, next)

	if kind == KindDaily {
		st.NextWindow = DailyWindowStart(now, e.cfg.ResetHour, e.cfg.Location).AddDate(0, 0, 1)
	} else {
		st.NextWindow = HourlyWindowStart(now, e.cfg.Location).Add(time.Hour)
	}
	return st
}

// InsuranceCost exposes the configured repair fee for a ladder.
func (e *Engine) InsuranceCost(kind Kind) int64 {
	return e.params(kind).InsuranceCost
}

func claimReason(kind Kind) models.Reason {
	if kind == KindDaily {
		return models.ReasonDailyReward
	}
	return models.ReasonHourlyReward
}

func claimKind(kind Kind) repositories.ClaimKind {
	if kind == KindDaily {
		return repositories.ClaimDaily
	}
	return repositories.ClaimHourly
}
