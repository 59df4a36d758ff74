package commands

import (
	"context"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Commands = []discord.ApplicationCommandCreate{
	Balance,
	Daily,
	Hourly,
	Insurance,
	Slots,
	Roulette,
	Duel,
	GroupPot,
	Blackjack,
	Race,
	Stats,
	Leaderboard,
	TierInfo,
	History,
	Admin,
}

// account resolves the invoking user's account, registering them with
// the starting balance on first contact.
func account(ctx context.Context, b *casino.Bot, e *handler.CommandEvent) (*models.Account, bool, error) {
	return b.AccountRepository.GetOrCreate(ctx, e.User().ID.String(), e.User().EffectiveName())
}
