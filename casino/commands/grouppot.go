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

var GroupPot = discord.SlashCommandCreate{
	Name:        "grouppot",
	Description: "🎲 Open a high-roll pot: lowest roll pays the highest",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "amount",
			Description: "Pot amount, also the roll ceiling",
			Required:    true,
			MinValue:    intPtr(2),
		},
	},
}

func GroupPotHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		amount := int64(e.SlashCommandInteractionData().Int("amount"))

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}
		if err := b.GameManager.ValidateWager(ctx, acct, amount); err != nil {
			if handled, respErr := respondWagerError(b, e, acct, err); handled {
				return respErr
			}
			return utils.EH.CreateSystemError(e, "Failed to validate the pot amount")
		}

		session, err := b.GameManager.OpenSession(ctx, models.GameTypeGroupPot, acct, e.ChannelID().String(), amount, models.GroupPotState{
			Amount: amount,
		})
		if errors.Is(err, games.ErrSessionOpen) {
			return utils.EH.CreateEconomyError(e, "A pot is already open in this channel.")
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to open the pot")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		resp, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title: "🎲 Group Pot",
				Description: fmt.Sprintf(
					"%s opened a **%s** pot!\n\n"+
						"Everyone rolls 1-%s. The lowest roll pays the difference between "+
						"the highest and lowest roll to the winner.\n\n"+
						"Players: 1",
					e.User().Mention(), utils.FormatCoins(amount), utils.FormatNumber(amount)),
				Color: config.InfoColor,
			}},
			Components: &[]discord.ContainerComponent{
				discord.NewActionRow(
					discord.NewPrimaryButton("🎲 Join", fmt.Sprintf("/grouppot/join/%d", session.ID)),
					discord.NewSecondaryButton("🚪 Leave", fmt.Sprintf("/grouppot/leave/%d", session.ID)),
					discord.NewSuccessButton("▶️ Roll", fmt.Sprintf("/grouppot/start/%d", session.ID)),
					discord.NewDangerButton("❌ Cancel", fmt.Sprintf("/grouppot/cancel/%d", session.ID)),
				),
			},
		})
		if err != nil {
			return err
		}
		return b.SessionRepository.SetMessageID(ctx, session.ID, resp.ID.String())
	}
}

func GroupPotButtonHandler(b *casino.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		parts := strings.Split(strings.TrimPrefix(e.Data.CustomID(), "/grouppot/"), "/")
		if len(parts) != 2 {
			return fmt.Errorf("malformed grouppot custom id: %s", e.Data.CustomID())
		}
		action := parts[0]
		sessionID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		session, err := b.SessionRepository.GetByID(ctx, sessionID)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "This pot no longer exists.")
		}

		var state models.GroupPotState
		if err := models.DecodeState(models.GameTypeGroupPot, session.State, &state); err != nil {
			return err
		}

		isCreator := session.Creator != nil && session.Creator.DiscordID == e.User().ID.String()

		switch action {
		case "join":
			acct, _, err := b.AccountRepository.GetOrCreate(ctx, e.User().ID.String(), e.User().EffectiveName())
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "Failed to load your account.")
			}
			if err := b.GameManager.Join(ctx, session, acct, state.Amount); err != nil {
				switch {
				case repositories.IsConflict(err):
					return utils.EH.CreateEphemeralError(e, "You're already in this pot.")
				case errors.Is(err, repositories.ErrStaleAction):
					return utils.EH.CreateEphemeralError(e, "This pot already rolled.")
				default:
					return utils.EH.CreateEphemeralError(e, "You can't cover the pot amount.")
				}
			}

			participants, err := b.ParticipantRepository.GetBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title: "🎲 Group Pot",
					Description: fmt.Sprintf(
						"Pot: **%s**. Everyone rolls 1-%s.\n\nPlayers: %d",
						utils.FormatCoins(state.Amount), utils.FormatNumber(state.Amount), len(participants)),
					Color: config.InfoColor,
				}},
			})

		case "leave":
			acct, err := b.AccountRepository.GetByDiscordID(ctx, e.User().ID.String())
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "You're not in this pot.")
			}
			cancelled, err := b.GameManager.Leave(ctx, session, acct.ID)
			if err != nil {
				switch {
				case errors.Is(err, repositories.ErrStaleAction):
					return utils.EH.CreateEphemeralError(e, "This pot already rolled.")
				case repositories.IsNotFound(err):
					return utils.EH.CreateEphemeralError(e, "You're not in this pot.")
				default:
					return err
				}
			}
			if cancelled {
				return e.UpdateMessage(discord.MessageUpdate{
					Embeds: &[]discord.Embed{{
						Description: "❌ Pot cancelled; the opener walked away.",
						Color:       config.ErrorColor,
					}},
					Components: &[]discord.ContainerComponent{},
				})
			}
			participants, err := b.ParticipantRepository.GetBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title: "🎲 Group Pot",
					Description: fmt.Sprintf(
						"Pot: **%s**. Everyone rolls 1-%s.\n\nPlayers: %d",
						utils.FormatCoins(state.Amount), utils.FormatNumber(state.Amount), len(participants)),
					Color: config.InfoColor,
				}},
			})

		case "cancel":
			if !isCreator {
				return utils.EH.CreateEphemeralError(e, "Only the pot creator can cancel.")
			}
			if err := b.GameManager.Cancel(ctx, sessionID); err != nil {
				return utils.EH.CreateEphemeralError(e, "This pot already rolled.")
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Description: "❌ Pot cancelled.",
					Color:       config.ErrorColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})

		case "start":
			if !isCreator {
				return utils.EH.CreateEphemeralError(e, "Only the pot creator can roll.")
			}
			if joined, err := b.ParticipantRepository.GetBySession(ctx, sessionID); err != nil {
				return err
			} else if len(joined) < config.GroupPotMinPlayers {
				return utils.EH.CreateEphemeralError(e, fmt.Sprintf(
					"Need at least %d players.", config.GroupPotMinPlayers))
			}
			if err := b.GameManager.ActivateFunded(ctx, sessionID); err != nil {
				if ledger.IsInsufficientFunds(err) {
					return utils.EH.CreateEphemeralError(e, "A player can no longer cover the pot amount.")
				}
				return utils.EH.CreateEphemeralError(e, "This pot already rolled.")
			}

			result, participants, err := b.GameManager.SettleGroupPot(ctx, session, state.Amount)
			if errors.Is(err, games.ErrRerollCapExceeded) {
				return e.UpdateMessage(discord.MessageUpdate{
					Embeds: &[]discord.Embed{{
						Title:       "🎲 Group Pot",
						Description: "The dice refused to break the tie. Round void, nobody pays.",
						Color:       config.WarningColor,
					}},
					Components: &[]discord.ContainerComponent{},
				})
			}
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "The pot failed to settle.")
			}

			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title:       "🎲 Group Pot",
					Description: formatGroupPotResult(result, participants),
					Color:       config.SuccessColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})

		default:
			return fmt.Errorf("unknown grouppot action: %s", action)
		}
	}
}

func formatGroupPotResult(result games.GroupPotResult, participants []*models.Participant) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	for _, roll := range result.Rolls {
		sb.WriteString(fmt.Sprintf("%-16s rolls %s\n",
			participants[roll.PlayerIdx].Account.DisplayName, utils.FormatNumber(roll.Roll)))
	}
	sb.WriteString("```\n")
	if result.Transfer == 0 {
		sb.WriteString("Dead heat. Nothing moves.")
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("🏆 **%s** takes **%s** from **%s**!",
		participants[result.WinnerIdx].Account.DisplayName,
		utils.FormatCoins(result.Transfer),
		participants[result.LoserIdx].Account.DisplayName))
	return sb.String()
}
