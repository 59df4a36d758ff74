package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/tier"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Slots = discord.SlashCommandCreate{
	Name:        "slots",
	Description: "🎰 Spin the slot machine",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "Amount to wager",
			Required:    true,
			MinValue:    intPtr(1),
		},
	},
}

func intPtr(v int) *int {
	return &v
}

// respondWagerError maps the standard pre-game check failures to user
// facing messages. Returns false when err wasn't one of them.
func respondWagerError(b *casino.Bot, e *handler.CommandEvent, acct *models.Account, err error) (bool, error) {
	switch {
	case errors.Is(err, tier.ErrBetNotPositive):
		return true, utils.EH.CreateUserError(e, "Your bet must be positive.")
	case errors.Is(err, tier.ErrBetTooLarge):
		maxBet := tier.EffectiveMaxBet(acct, tier.Limits{Enabled: b.Cfg.Economy.BetLimits})
		return true, utils.EH.CreateEconomyError(e, fmt.Sprintf(
			"That bet is over your tier limit of %s.", utils.FormatCoins(maxBet)))
	case ledger.IsInsufficientFunds(err):
		return true, utils.EH.CreateEconomyError(e, fmt.Sprintf(
			"You can't cover that bet. Balance: %s.", utils.FormatCoins(acct.Balance)))
	}
	return false, nil
}

// tierUpLine appends a promotion note to game result embeds.
func tierUpLine(solo games.SoloResult) string {
	if !solo.TierUp {
		return ""
	}
	return fmt.Sprintf("\n\n🎖️ Tier up! You are now **%s** (max bet %s).",
		solo.NewTier.Name, utils.FormatNumber(solo.NewTier.MaxBet))
}

func SlotsHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		bet := int64(e.SlashCommandInteractionData().Int("bet"))

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		result, solo, err := b.GameManager.PlaySlots(ctx, acct, bet)
		if err != nil {
			if handled, respErr := respondWagerError(b, e, acct, err); handled {
				return respErr
			}
			return utils.EH.CreateSystemError(e, "The machine jammed. Try again.")
		}

		color := config.ErrorColor
		if result.Payout > 0 {
			color = config.SuccessColor
		}

		description := fmt.Sprintf(
			"# %s %s %s\n\n"+
				"%s\n\n"+
				"**%s** coins\n"+
				"💰 Balance: %s  ✨ +%d XP%s",
			result.Symbols[0], result.Symbols[1], result.Symbols[2],
			result.Summary,
			utils.FormatSigned(result.Payout),
			utils.FormatCoins(solo.Account.Balance),
			solo.XPEarned,
			tierUpLine(solo),
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🎰 Slots",
				Description: description,
				Color:       color,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Bet: %s", utils.FormatNumber(bet)),
				},
				Timestamp: &now,
			}},
		})
	}
}
