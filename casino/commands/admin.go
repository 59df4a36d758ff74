package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"
)

var Admin = discord.SlashCommandCreate{
	Name:        "admin",
	Description: "🔧 Economy administration",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "adjust",
			Description: "Credit or debit a player's balance",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose balance to adjust",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "Signed amount, negative to debit",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "find",
			Description: "Find an account by display name",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "query",
					Description: "Name fragment to search for",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "verify",
			Description: "Check a player's balance against their transaction log",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Whose ledger to verify",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reset",
			Description: "Reset the whole economy to starting balances",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "confirm",
					Description: "Type RESET to confirm",
					Required:    true,
				},
			},
		},
	},
}

func AdminHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !b.IsAdmin(e.User().ID) {
			return utils.EH.CreatePermissionError(e, "run admin commands")
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "adjust":
			return adminAdjust(b, e)
		case "find":
			return adminFind(b, e)
		case "verify":
			return adminVerify(b, e)
		case "reset":
			return adminReset(b, e)
		default:
			return utils.EH.CreateUserError(e, "Unknown subcommand.")
		}
	}
}

func adminAdjust(b *casino.Bot, e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := e.SlashCommandInteractionData()
	target := data.User("user")
	amount := int64(data.Int("amount"))

	acct, _, err := b.AccountRepository.GetOrCreate(ctx, target.ID.String(), target.EffectiveName())
	if err != nil {
		return utils.EH.CreateSystemError(e, "Failed to load the target account")
	}

	updated, err := b.Ledger.Adjust(ctx, acct.ID, amount, models.ReasonAdminAdjustment, nil)
	if err != nil {
		return utils.EH.CreateEconomyError(e, "Adjustment failed; a debit may not exceed the balance.")
	}
	b.StatsService.InvalidateLeaderboard()

	return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
		"Adjusted %s by **%s**. New balance: %s.",
		target.Mention(), utils.FormatSigned(amount), utils.FormatCoins(updated.Balance)))
}

func adminFind(b *casino.Bot, e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := strings.TrimSpace(e.SlashCommandInteractionData().String("query"))

	accounts, err := b.AccountRepository.GetAll(ctx)
	if err != nil {
		return utils.EH.CreateSystemError(e, "Failed to fetch accounts")
	}

	names := make([]string, len(accounts))
	for i, a := range accounts {
		names[i] = a.DisplayName
	}

	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return utils.EH.CreateNotFoundError(e, "Account", query)
	}
	if len(matches) > 10 {
		matches = matches[:10]
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	for _, m := range matches {
		a := accounts[m.Index]
		sb.WriteString(fmt.Sprintf("%-20s id=%-6d discord=%s balance=%s\n",
			a.DisplayName, a.ID, a.DiscordID, utils.FormatNumber(a.Balance)))
	}
	sb.WriteString("```")
	return utils.EH.CreateInfoEmbed(e, sb.String())
}

func adminVerify(b *casino.Bot, e *handler.CommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	target := e.SlashCommandInteractionData().User("user")
	acct, err := b.AccountRepository.GetByDiscordID(ctx, target.ID.String())
	if err != nil {
		return utils.EH.CreateNotFoundError(e, "Account", target.Username)
	}

	ok, drift, err := b.StatsService.VerifyLedger(ctx, acct.ID)
	if err != nil {
		return utils.EH.CreateSystemError(e, "Verification query failed")
	}
	if ok {
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf(
			"✅ Ledger intact for %s: balance %s matches the transaction log.",
			target.Mention(), utils.FormatCoins(acct.Balance)))
	}
	return utils.EH.CreateError(e, "Ledger drift", fmt.Sprintf(
		"balance is off by %s against the transaction log", utils.FormatSigned(drift)))
}

func adminReset(b *casino.Bot, e *handler.CommandEvent) error {
	if e.SlashCommandInteractionData().String("confirm") != "RESET" {
		return utils.EH.CreateUserError(e, "Type `RESET` in the confirm field to wipe the economy.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := b.AccountRepository.ResetEconomy(ctx); err != nil {
		return utils.EH.CreateSystemError(e, "Economy reset failed")
	}
	b.StatsService.InvalidateLeaderboard()

	return utils.EH.CreateSuccessEmbed(e, "♻️ Economy reset. Everyone is back to the starting balance.")
}
