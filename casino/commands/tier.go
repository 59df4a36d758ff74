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

var TierInfo = discord.SlashCommandCreate{
	Name:        "tier",
	Description: "🎖️ Your tier, bet limit and progress to the next rung",
}

func TierInfoHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		limits := tier.Limits{Enabled: b.Cfg.Economy.BetLimits}
		balanceTier := tier.ByBalance(acct.Balance)
		xpTier := tier.ByXP(acct.ExperiencePoints)
		maxBet := tier.EffectiveMaxBet(acct, limits)
		progress := tier.XPProgress(acct.ExperiencePoints)

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf(
			"💰 Balance tier: **%s**\n"+
				"✨ XP tier: **%s** (level %d, %s XP)\n"+
				"🎯 Effective max bet: **%s**\n\n",
			balanceTier.Name,
			xpTier.Name, acct.Level, utils.FormatNumber(acct.ExperiencePoints),
			utils.FormatNumber(maxBet)))

		if progress.Next != nil {
			sb.WriteString(fmt.Sprintf("Next rung: **%s** at %s XP\n%s %s/%s\n\n",
				progress.Next.Name,
				utils.FormatNumber(progress.Next.MinXP),
				xpBar(progress.XPIntoTier, progress.XPForTier),
				utils.FormatNumber(progress.XPIntoTier),
				utils.FormatNumber(progress.XPForTier)))
		} else {
			sb.WriteString("You sit at the top of the ladder. 👑\n\n")
		}

		sb.WriteString("```\n")
		sb.WriteString(fmt.Sprintf("%-12s %11s %15s %12s\n", "tier", "max bet", "balance from", "xp from"))
		for _, t := range tier.All() {
			sb.WriteString(fmt.Sprintf("%-12s %11s %15s %12s\n",
				t.Name,
				utils.FormatNumber(t.MaxBet),
				utils.FormatNumber(t.MinBalance),
				utils.FormatNumber(t.MinXP)))
		}
		sb.WriteString("```")

		if !limits.Enabled {
			sb.WriteString("\n> ⚠️ Bet limits are currently disabled on this server.")
		}

		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🎖️ Tier",
				Description: sb.String(),
				Color:       config.InfoColor,
			}},
		})
	}
}

func xpBar(into, total int64) string {
	const barLength = 10
	if total <= 0 {
		return strings.Repeat("▓", barLength)
	}
	filled := int(float64(into) / float64(total) * barLength)
	if filled > barLength {
		filled = barLength
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", barLength-filled)
}
