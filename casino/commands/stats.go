package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Stats = discord.SlashCommandCreate{
	Name:        "stats",
	Description: "📊 Your win/loss record across every game",
}

func StatsHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		stats, err := b.StatsService.GetPlayerStats(ctx, acct.ID)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to aggregate your stats")
		}

		var sb strings.Builder
		sb.WriteString("```\n")
		sb.WriteString(fmt.Sprintf("%-10s %5s %5s %7s %12s\n", "game", "won", "lost", "rate", "net"))
		for _, g := range stats.Games {
			if g.Rounds() == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("%-10s %5d %5d %6.1f%% %12s\n",
				g.Type, g.Wins, g.Losses, g.WinRate(), utils.FormatSigned(g.Net)))
		}
		sb.WriteString("```\n")
		sb.WriteString(fmt.Sprintf(
			"🏅 Rank: **#%d**\n"+
				"💰 Balance: %s\n"+
				"🎯 Net game profit: %s\n"+
				"📈 Biggest win: %s\n"+
				"📉 Biggest loss: %s\n"+
				"🎁 Claim income: %s",
			stats.Rank,
			utils.FormatCoins(stats.Account.Balance),
			utils.FormatSigned(stats.NetGameProfit()),
			utils.FormatSigned(stats.BiggestWin),
			utils.FormatSigned(stats.BiggestLoss),
			utils.FormatNumber(stats.ClaimIncome)))

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       fmt.Sprintf("📊 Stats for %s", stats.Account.DisplayName),
				Description: sb.String(),
				Color:       config.InfoColor,
				Timestamp:   &now,
			}},
		})
	}
}
