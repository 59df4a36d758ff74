package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account is a registered user's economy record. Accounts are never
// deleted; an admin reset zeroes the economy fields but keeps identity.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID          int64  `bun:"id,pk,autoincrement"`
	DiscordID   string `bun:"discord_id,notnull,unique"`
	DisplayName string `bun:"display_name,notnull"`

	Balance        int64 `bun:"balance,notnull,default:0"`
	LifetimeEarned int64 `bun:"lifetime_earned,notnull,default:0"`
	LifetimeLost   int64 `bun:"lifetime_lost,notnull,default:0"`

	// Claim timestamps are stored in UTC. Zero value means never claimed.
	LastDailyClaim  time.Time `bun:"last_daily_claim,nullzero"`
	LastHourlyClaim time.Time `bun:"last_hourly_claim,nullzero"`

	DailyStreak      int `bun:"daily_streak,notnull,default:0"`
	DailyStreakBest  int `bun:"daily_streak_best,notnull,default:0"`
	HourlyStreak     int `bun:"hourly_streak,notnull,default:0"`
	HourlyStreakBest int `bun:"hourly_streak_best,notnull,default:0"`

	ExperiencePoints int64 `bun:"experience_points,notnull,default:0"`
	Level            int   `bun:"level,notnull,default:1"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// NetProfit is lifetime earned minus lifetime lost.
func (a *Account) NetProfit() int64 {
	return a.LifetimeEarned - a.LifetimeLost
}
