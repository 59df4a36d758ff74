package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Roulette = discord.SlashCommandCreate{
	Name:        "roulette",
	Description: "🎡 Bet on the roulette wheel",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "Amount to wager",
			Required:    true,
			MinValue:    intPtr(1),
		},
		discord.ApplicationCommandOptionString{
			Name:        "choice",
			Description: "What to bet on",
			Required:    true,
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "🔴 red (2x)", Value: string(games.BetRed)},
				{Name: "⚫ black (2x)", Value: string(games.BetBlack)},
				{Name: "🟢 green (14x)", Value: string(games.BetGreen)},
				{Name: "odd (2x)", Value: string(games.BetOdd)},
				{Name: "even (2x)", Value: string(games.BetEven)},
				{Name: "high 19-36 (2x)", Value: string(games.BetHigh)},
				{Name: "low 1-18 (2x)", Value: string(games.BetLow)},
			},
		},
	},
}

func colorEmoji(c games.RouletteColor) string {
	switch c {
	case games.Red:
		return "🔴"
	case games.Black:
		return "⚫"
	default:
		return "🟢"
	}
}

func RouletteHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		bet := int64(data.Int("bet"))
		choice := games.RouletteBet(data.String("choice"))

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}

		result, solo, err := b.GameManager.PlayRoulette(ctx, acct, bet, choice)
		if err != nil {
			if handled, respErr := respondWagerError(b, e, acct, err); handled {
				return respErr
			}
			return utils.EH.CreateSystemError(e, "The wheel stuck. Try again.")
		}

		color := config.ErrorColor
		verdict := "You lose."
		if result.Win {
			color = config.SuccessColor
			verdict = "You win!"
		}

		description := fmt.Sprintf(
			"The ball lands on %s **%d**.\n\n"+
				"%s **%s** coins\n"+
				"💰 Balance: %s  ✨ +%d XP%s",
			colorEmoji(result.Color), result.Number,
			verdict,
			utils.FormatSigned(result.Payout),
			utils.FormatCoins(solo.Account.Balance),
			solo.XPEarned,
			tierUpLine(solo),
		)

		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🎡 Roulette",
				Description: description,
				Color:       color,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Bet: %s on %s", utils.FormatNumber(bet), choice),
				},
				Timestamp: &now,
			}},
		})
	}
}
