package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Duel = discord.SlashCommandCreate{
	Name:        "duel",
	Description: "⚔️ Challenge someone to a deathroll duel",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "opponent",
			Description: "Who to challenge",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "Wager, paid by the loser",
			Required:    true,
			MinValue:    intPtr(2),
		},
	},
}

func DuelHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		opponent := data.User("opponent")
		bet := int64(data.Int("bet"))

		if opponent.ID == e.User().ID {
			return utils.EH.CreateUserError(e, "You can't duel yourself.")
		}
		if opponent.Bot {
			return utils.EH.CreateUserError(e, "Bots don't gamble.")
		}

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}
		if err := b.GameManager.ValidateWager(ctx, acct, bet); err != nil {
			if handled, respErr := respondWagerError(b, e, acct, err); handled {
				return respErr
			}
			return utils.EH.CreateSystemError(e, "Failed to validate your wager")
		}

		session, err := b.GameManager.OpenSession(ctx, models.GameTypeDuel, acct, e.ChannelID().String(), bet, models.DuelState{
			Wager:          bet,
			CurrentCeiling: bet,
		})
		if errors.Is(err, games.ErrSessionOpen) {
			return utils.EH.CreateEconomyError(e, "A duel is already open in this channel.")
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to open the duel")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		expires := time.Now().Add(config.DuelJoinTimeout)
		resp, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title: "⚔️ Deathroll Duel",
				Description: fmt.Sprintf(
					"%s challenges %s for %s!\n\n"+
						"The roll starts at **%s** and shrinks with every turn. Roll a **1** and you pay up.\n\n"+
						"Expires <t:%d:R>.",
					e.User().Mention(), opponent.Mention(),
					utils.FormatCoins(bet), utils.FormatNumber(bet),
					expires.Unix()),
				Color: config.InfoColor,
			}},
			Components: &[]discord.ContainerComponent{
				discord.NewActionRow(
					discord.NewSuccessButton("⚔️ Accept", fmt.Sprintf("/duel/accept/%d/%s", session.ID, opponent.ID)),
					discord.NewDangerButton("🏳️ Decline", fmt.Sprintf("/duel/decline/%d/%s", session.ID, opponent.ID)),
				),
			},
		})
		if err != nil {
			return err
		}
		return b.SessionRepository.SetMessageID(ctx, session.ID, resp.ID.String())
	}
}

func DuelButtonHandler(b *casino.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		parts := strings.Split(strings.TrimPrefix(e.Data.CustomID(), "/duel/"), "/")
		if len(parts) != 3 {
			return fmt.Errorf("malformed duel custom id: %s", e.Data.CustomID())
		}
		action := parts[0]
		sessionID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return err
		}
		opponentID := parts[2]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		session, err := b.SessionRepository.GetByID(ctx, sessionID)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "This duel no longer exists.")
		}

		switch action {
		case "decline":
			// The challenged player or the challenger can call it off.
			clicker := e.User().ID.String()
			if clicker != opponentID && session.Creator != nil && clicker != session.Creator.DiscordID {
				return utils.EH.CreateEphemeralError(e, "This challenge isn't yours to decline.")
			}
			if err := b.GameManager.Cancel(ctx, sessionID); err != nil {
				return utils.EH.CreateEphemeralError(e, "This duel already started.")
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Description: "🏳️ Challenge declined.",
					Color:       config.ErrorColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})

		case "accept":
			if e.User().ID.String() != opponentID {
				return utils.EH.CreateEphemeralError(e, "Only the challenged player can accept.")
			}

			acct, _, err := b.AccountRepository.GetOrCreate(ctx, e.User().ID.String(), e.User().EffectiveName())
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "Failed to load your account.")
			}

			var state models.DuelState
			if err := models.DecodeState(models.GameTypeDuel, session.State, &state); err != nil {
				return err
			}

			if err := b.GameManager.Join(ctx, session, acct, state.Wager); err != nil {
				if errors.Is(err, repositories.ErrStaleAction) {
					return utils.EH.CreateEphemeralError(e, "This duel already started or expired.")
				}
				return utils.EH.CreateEphemeralError(e, "You can't cover this wager.")
			}
			if err := b.GameManager.ActivateFunded(ctx, sessionID); err != nil {
				if ledger.IsInsufficientFunds(err) {
					// The challenger may have gambled the wager away
					// since opening. Call the duel off.
					_ = b.GameManager.Cancel(ctx, sessionID)
					return e.UpdateMessage(discord.MessageUpdate{
						Embeds: &[]discord.Embed{{
							Description: "🏳️ Duel called off: a player can no longer cover the wager.",
							Color:       config.ErrorColor,
						}},
						Components: &[]discord.ContainerComponent{},
					})
				}
				return utils.EH.CreateEphemeralError(e, "Someone beat you to it.")
			}

			result, err := b.GameManager.SettleDuel(ctx, session, state.Wager)
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "The duel failed to settle.")
			}

			participants, err := b.ParticipantRepository.GetBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title:       "⚔️ Deathroll Duel",
					Description: formatDuelResult(result, participants, state.Wager),
					Color:       config.SuccessColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})

		default:
			return fmt.Errorf("unknown duel action: %s", action)
		}
	}
}

func formatDuelResult(result games.DeathrollResult, participants []*models.Participant, wager int64) string {
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Account.DisplayName
	}

	var sb strings.Builder
	sb.WriteString("```\n")
	for _, roll := range result.Rolls {
		sb.WriteString(fmt.Sprintf("%-16s rolls %d (1-%d)\n", names[roll.PlayerIdx], roll.Roll, roll.Ceiling))
	}
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("💀 **%s** hits the floor and pays **%s** to **%s**!",
		names[result.LoserIdx], utils.FormatCoins(wager), names[result.WinnerIdx]))
	return sb.String()
}
