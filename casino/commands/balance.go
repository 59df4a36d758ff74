package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/economy/tier"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your balance, tier and lifetime record",
}

func BalanceHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		acct, created, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to fetch your balance. Please try again later.")
		}

		currentTier := tier.ByBalance(acct.Balance)
		maxBet := tier.EffectiveMaxBet(acct, tier.Limits{Enabled: b.Cfg.Economy.BetLimits})

		description := fmt.Sprintf("```ansi\n"+
			"\x1b[1;36mBalance:\x1b[0m %s coins\n"+
			"\x1b[0;37m%s\x1b[0m\n"+
			"\n"+
			"\x1b[1;35mTier:\x1b[0m %s (max bet %s)\n"+
			"\x1b[1;32mLifetime earned:\x1b[0m %s\n"+
			"\x1b[1;31mLifetime lost:\x1b[0m %s\n"+
			"\x1b[1;33mNet profit:\x1b[0m %s\n"+
			"```",
			utils.FormatNumber(acct.Balance),
			createBalanceBar(acct.Balance),
			currentTier.Name,
			utils.FormatNumber(maxBet),
			utils.FormatNumber(acct.LifetimeEarned),
			utils.FormatNumber(acct.LifetimeLost),
			utils.FormatSigned(acct.NetProfit()),
		)

		if created {
			description += fmt.Sprintf("\n> 🎁 Welcome! You received a starting grant of %s.",
				utils.FormatCoins(config.StartingBalance))
		}

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 Balance",
				Description: description,
				Color:       config.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

func createBalanceBar(balance int64) string {
	const barLength = 10

	var milestone int64 = 10_000_000
	if balance < 100_000 {
		milestone = 100_000
	} else if balance < 1_000_000 {
		milestone = 1_000_000
	}

	progress := float64(balance) / float64(milestone)
	if progress > 1.0 {
		progress = 1.0
	}
	filled := int(progress * float64(barLength))

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barLength; i++ {
		if i < filled {
			bar.WriteString("■")
		} else {
			bar.WriteString("□")
		}
	}
	bar.WriteString(fmt.Sprintf("] %.1f%%", progress*100))

	return bar.String()
}
