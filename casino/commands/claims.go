package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/streak"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Daily = discord.SlashCommandCreate{
	Name:        "daily",
	Description: "📅 Claim your daily reward and keep the streak alive",
}

var Hourly = discord.SlashCommandCreate{
	Name:        "hourly",
	Description: "⏱️ Claim your hourly reward",
}

var Insurance = discord.SlashCommandCreate{
	Name:        "insurance",
	Description: "🛡️ Repair a broken claim streak for a fee",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "kind",
			Description: "Which streak to repair",
			Required:    true,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "daily", Value: string(streak.KindDaily)},
				{Name: "hourly", Value: string(streak.KindHourly)},
			},
		},
	},
}

func DailyHandler(b *casino.Bot) handler.CommandHandler {
	return claimHandler(b, streak.KindDaily, "📅 Daily Reward")
}

func HourlyHandler(b *casino.Bot) handler.CommandHandler {
	return claimHandler(b, streak.KindHourly, "⏱️ Hourly Reward")
}

func claimHandler(b *casino.Bot, kind streak.Kind, title string) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		result, err := b.StreakEngine.Claim(ctx, acct.ID, kind)
		if errors.Is(err, streak.ErrOnCooldown) {
			status := b.StreakEngine.Status(acct, kind)
			return utils.EH.CreateEconomyError(e, fmt.Sprintf(
				"Already claimed. Next claim in **%s**.",
				utils.FormatDuration(time.Until(status.NextWindow))))
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to process your claim")
		}

		description := fmt.Sprintf(
			"You received %s!\n\n"+
				"🔥 Streak: **%d** (best %d)\n"+
				"💰 Balance: %s",
			utils.FormatCoins(result.Reward),
			result.Streak,
			result.Best,
			utils.FormatCoins(result.Account.Balance),
		)
		if result.WasBroken {
			description += fmt.Sprintf(
				"\n\n💔 Your previous streak broke. Next time, `/insurance kind:%s` within the grace period keeps it alive for %s.",
				kind, utils.FormatCoins(b.StreakEngine.InsuranceCost(kind)))
		}

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       title,
				Description: description,
				Color:       config.SuccessColor,
				Timestamp:   &now,
			}},
		})
	}
}

func InsuranceHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		kind := streak.Kind(e.SlashCommandInteractionData().String("kind"))

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		updated, err := b.StreakEngine.PurchaseInsurance(ctx, acct.ID, kind)
		if errors.Is(err, streak.ErrStreakNotBroken) {
			return utils.EH.CreateEconomyError(e, "Your streak is not broken, nothing to repair.")
		}
		if ledger.IsInsufficientFunds(err) {
			return utils.EH.CreateEconomyError(e, fmt.Sprintf(
				"Insurance costs %s and you can't cover it.",
				utils.FormatCoins(b.StreakEngine.InsuranceCost(kind))))
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to purchase insurance")
		}

		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"🛡️ %s streak repaired for %s. Claim now to continue it!\n💰 Balance: %s",
			kind,
			utils.FormatCoins(b.StreakEngine.InsuranceCost(kind)),
			utils.FormatCoins(updated.Balance)))
	}
}
