package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
)

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 The richest players",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionBool{
			Name:        "snapshot",
			Description: "Render the top 10 as an image",
			Required:    false,
		},
	},
}

func LeaderboardHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if snapshot, _ := e.SlashCommandInteractionData().OptBool("snapshot"); snapshot {
			return leaderboardSnapshot(ctx, b, e)
		}

		// The paginator renders cached pages lazily, so page count
		// comes from the full account roster.
		all, err := b.AccountRepository.GetAll(ctx)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to fetch the leaderboard")
		}
		if len(all) == 0 {
			return utils.EH.CreateInfoEmbed(e, "Nobody is playing yet.")
		}
		totalPages := int(math.Ceil(float64(len(all)) / float64(config.LeaderboardPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				entries, err := b.StatsService.GetLeaderboardPage(ctx, page)
				if err != nil {
					embed.SetTitle("🏆 Leaderboard").SetDescription("Failed to load this page.")
					return
				}

				var sb strings.Builder
				sb.WriteString("```\n")
				for _, entry := range entries {
					sb.WriteString(fmt.Sprintf("#%-3d %-20s %14s\n",
						entry.Rank,
						entry.Account.DisplayName,
						utils.FormatNumber(entry.Account.Balance)))
				}
				sb.WriteString("```")

				embed.
					SetTitle("🏆 Leaderboard").
					SetDescription(sb.String()).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d players", page+1, totalPages, len(all)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func leaderboardSnapshot(ctx context.Context, b *casino.Bot, e *handler.CommandEvent) error {
	if b.SnapshotService == nil || b.SpacesService == nil {
		return utils.EH.CreateUserError(e, "Snapshots are not configured on this server.")
	}

	if err := e.DeferCreateMessage(false); err != nil {
		return err
	}

	entries, err := b.StatsService.GetLeaderboardPage(ctx, 0)
	if err != nil || len(entries) == 0 {
		return utils.EH.UpdateInteractionResponse(e, "Snapshot failed", "No leaderboard data available")
	}

	image, err := b.SnapshotService.RenderLeaderboard(ctx, "🏆 Casino Leaderboard", entries, utils.FormatNumber)
	if err != nil {
		return utils.EH.UpdateInteractionResponse(e, "Snapshot failed", "Image rendering failed")
	}

	url, err := b.SpacesService.UploadSnapshot(ctx, "leaderboard", image)
	if err != nil {
		return utils.EH.UpdateInteractionResponse(e, "Snapshot failed", "Upload failed")
	}

	now := time.Now()
	_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:     "🏆 Leaderboard",
			Color:     config.SuccessColor,
			Image:     &discord.EmbedResource{URL: url},
			Timestamp: &now,
		}},
	})
	return err
}
