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

var Race = discord.SlashCommandCreate{
	Name:        "race",
	Description: "🏁 Bet on an animal race; winners split the pot",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "Entry bet, same for every player",
			Required:    true,
			MinValue:    intPtr(1),
		},
		discord.ApplicationCommandOptionString{
			Name:        "racer",
			Description: "Your pick",
			Required:    true,
			Choices:     racerChoices(),
		},
	},
}

func racerChoices() []discord.ApplicationCommandOptionChoiceString {
	var choices []discord.ApplicationCommandOptionChoiceString
	for _, r := range games.RaceField() {
		choices = append(choices, discord.ApplicationCommandOptionChoiceString{
			Name:  fmt.Sprintf("%s %s", r.Emoji, r.Name),
			Value: r.Name,
		})
	}
	return choices
}

func RaceHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		bet := int64(data.Int("bet"))
		pick := data.String("racer")
		racer, ok := games.RacerByName(pick)
		if !ok {
			return utils.EH.CreateUserError(e, "Unknown racer.")
		}

		acct, _, err := account(ctx, b, e)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your account")
		}
		if err := b.GameManager.ValidateWager(ctx, acct, bet); err != nil {
			if handled, respErr := respondWagerError(b, e, acct, err); handled {
				return respErr
			}
			return utils.EH.CreateSystemError(e, "Failed to validate your bet")
		}

		state := models.RaceState{
			BetAmount:    bet,
			RacerChoices: map[string]string{strconv.FormatInt(acct.ID, 10): racer.Name},
		}
		session, err := b.GameManager.OpenSession(ctx, models.GameTypeRace, acct, e.ChannelID().String(), bet, state)
		if errors.Is(err, games.ErrSessionOpen) {
			return utils.EH.CreateEconomyError(e, "A race is already forming in this channel.")
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to open the race")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		components := append(raceJoinRows(session.ID),
			discord.NewActionRow(
				discord.NewSuccessButton("🏁 Start", fmt.Sprintf("/race/start/%d/-", session.ID)),
				discord.NewDangerButton("❌ Cancel", fmt.Sprintf("/race/cancel/%d/-", session.ID)),
			))
		resp, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "🏁 Animal Race",
				Description: raceLobbyDescription(bet, state.RacerChoices, map[string]string{strconv.FormatInt(acct.ID, 10): acct.DisplayName}),
				Color:       config.InfoColor,
			}},
			Components: &components,
		})
		if err != nil {
			return err
		}
		return b.SessionRepository.SetMessageID(ctx, session.ID, resp.ID.String())
	}
}

// raceJoinRows lays the six join buttons out three per row; action
// rows cap out at five buttons.
func raceJoinRows(sessionID int64) []discord.ContainerComponent {
	var buttons []discord.InteractiveComponent
	for _, r := range games.RaceField() {
		buttons = append(buttons, discord.NewSecondaryButton(
			fmt.Sprintf("%s %s", r.Emoji, r.Name),
			fmt.Sprintf("/race/join/%d/%s", sessionID, r.Name)))
	}
	return []discord.ContainerComponent{
		discord.NewActionRow(buttons[:3]...),
		discord.NewActionRow(buttons[3:]...),
	}
}

func raceLobbyDescription(bet int64, choices map[string]string, names map[string]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entry bet: **%s**. Backers of the winning racer split the whole pot.\n\n", utils.FormatCoins(bet)))
	for id, racerName := range choices {
		name := names[id]
		if name == "" {
			name = "player " + id
		}
		if r, ok := games.RacerByName(racerName); ok {
			sb.WriteString(fmt.Sprintf("%s **%s** backs %s %s\n", "•", name, r.Emoji, r.Name))
		}
	}
	return sb.String()
}

func RaceButtonHandler(b *casino.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		parts := strings.Split(strings.TrimPrefix(e.Data.CustomID(), "/race/"), "/")
		if len(parts) != 3 {
			return fmt.Errorf("malformed race custom id: %s", e.Data.CustomID())
		}
		action := parts[0]
		sessionID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return err
		}
		arg := parts[2]

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		session, err := b.SessionRepository.GetByID(ctx, sessionID)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "This race no longer exists.")
		}

		var state models.RaceState
		if err := models.DecodeState(models.GameTypeRace, session.State, &state); err != nil {
			return err
		}

		isCreator := session.Creator != nil && session.Creator.DiscordID == e.User().ID.String()

		switch action {
		case "join":
			racer, ok := games.RacerByName(arg)
			if !ok {
				return utils.EH.CreateEphemeralError(e, "Unknown racer.")
			}
			acct, _, err := b.AccountRepository.GetOrCreate(ctx, e.User().ID.String(), e.User().EffectiveName())
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "Failed to load your account.")
			}
			if err := b.GameManager.Join(ctx, session, acct, state.BetAmount); err != nil {
				switch {
				case repositories.IsConflict(err):
					return utils.EH.CreateEphemeralError(e, "You're already in this race.")
				case errors.Is(err, repositories.ErrStaleAction):
					return utils.EH.CreateEphemeralError(e, "This race already started.")
				default:
					return utils.EH.CreateEphemeralError(e, "You can't cover the entry bet.")
				}
			}

			state, err = b.GameManager.UpdateRaceChoice(ctx, sessionID, acct.ID, racer.Name)
			if err != nil {
				return err
			}

			joined, err := b.ParticipantRepository.GetBySession(ctx, sessionID)
			if err != nil {
				return err
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title:       "🏁 Animal Race",
					Description: raceLobbyDescription(state.BetAmount, state.RacerChoices, participantNames(joined)),
					Color:       config.InfoColor,
				}},
			})

		case "cancel":
			if !isCreator {
				return utils.EH.CreateEphemeralError(e, "Only the race creator can cancel.")
			}
			if err := b.GameManager.Cancel(ctx, sessionID); err != nil {
				return utils.EH.CreateEphemeralError(e, "This race already started.")
			}
			return e.UpdateMessage(discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Description: "❌ Race cancelled.",
					Color:       config.ErrorColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})

		case "start":
			if !isCreator {
				return utils.EH.CreateEphemeralError(e, "Only the race creator can start.")
			}
			if err := b.GameManager.ActivateFunded(ctx, sessionID); err != nil {
				if ledger.IsInsufficientFunds(err) {
					return utils.EH.CreateEphemeralError(e, "A player can no longer cover the entry bet.")
				}
				return utils.EH.CreateEphemeralError(e, "This race already started.")
			}

			// Re-read the state so picks that landed between the lobby
			// fetch and activation still settle.
			if session, err = b.SessionRepository.GetByID(ctx, sessionID); err != nil {
				return err
			}
			if err := models.DecodeState(models.GameTypeRace, session.State, &state); err != nil {
				return err
			}

			result := b.GameManager.RunRace()
			if err := animateRace(ctx, b, e, result); err != nil {
				return err
			}

			choices := make(map[int64]string, len(state.RacerChoices))
			for id, racerName := range state.RacerChoices {
				accountID, err := strconv.ParseInt(id, 10, 64)
				if err != nil {
					continue
				}
				choices[accountID] = racerName
			}

			settlement, err := b.GameManager.SettleRace(ctx, session, result, state.BetAmount, choices)
			if err != nil {
				return utils.EH.CreateEphemeralError(e, "The race failed to settle.")
			}

			_, err = e.Client().Rest().UpdateMessage(e.Message.ChannelID, e.Message.ID, discord.MessageUpdate{
				Embeds: &[]discord.Embed{{
					Title:       "🏁 Animal Race",
					Description: formatRaceResult(result, settlement),
					Color:       config.SuccessColor,
				}},
				Components: &[]discord.ContainerComponent{},
			})
			return err

		default:
			return fmt.Errorf("unknown race action: %s", action)
		}
	}
}

func participantNames(participants []*models.Participant) map[string]string {
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		if p.Account != nil {
			names[strconv.FormatInt(p.AccountID, 10)] = p.Account.DisplayName
		}
	}
	return names
}

// animateRace replays a few frames of the pre-rolled race before the
// result is revealed.
func animateRace(ctx context.Context, b *casino.Bot, e *handler.ComponentEvent, result games.RaceResult) error {
	frame := func(tick games.RaceTick) string {
		var sb strings.Builder
		sb.WriteString("```\n")
		for i, r := range games.RaceField() {
			sb.WriteString(fmt.Sprintf("%s %-7s %s\n", r.Emoji, r.Name, games.FormatProgressBar(tick.Positions[i])))
		}
		sb.WriteString("```")
		return sb.String()
	}

	// First frame replaces the lobby message.
	if err := e.UpdateMessage(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "🏁 They're off!",
			Description: frame(result.Ticks[0]),
			Color:       config.InfoColor,
		}},
		Components: &[]discord.ContainerComponent{},
	}); err != nil {
		return err
	}

	// Sample a handful of later frames so the edit rate stays polite.
	step := len(result.Ticks)/4 + 1
	for i := step; i < len(result.Ticks); i += step {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.RaceTickDelay):
		}
		if _, err := e.Client().Rest().UpdateMessage(e.Message.ChannelID, e.Message.ID, discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "🏁 Animal Race",
				Description: frame(result.Ticks[i]),
				Color:       config.InfoColor,
			}},
		}); err != nil {
			return err
		}
	}
	return nil
}

func formatRaceResult(result games.RaceResult, settlement games.RaceSettlement) string {
	final := result.Ticks[len(result.Ticks)-1]

	var sb strings.Builder
	sb.WriteString("```\n")
	for i, r := range games.RaceField() {
		marker := "  "
		if r.Name == result.Winner.Name {
			marker = "🏆"
		}
		sb.WriteString(fmt.Sprintf("%s %s %-7s %s\n", marker, r.Emoji, r.Name, games.FormatProgressBar(final.Positions[i])))
	}
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%s **%s** takes it!\n\n", result.Winner.Emoji, result.Winner.Name))

	if len(settlement.Winners) == 0 {
		sb.WriteString(fmt.Sprintf("Nobody backed the winner. The house keeps the pot of %s.",
			utils.FormatCoins(settlement.TotalPot)))
		return sb.String()
	}

	var names []string
	for _, p := range settlement.Winners {
		if p.Account != nil {
			names = append(names, p.Account.DisplayName)
		}
	}
	sb.WriteString(fmt.Sprintf("🏆 %s split the pot of %s (%s each, profit %s).",
		strings.Join(names, ", "),
		utils.FormatCoins(settlement.TotalPot),
		utils.FormatNumber(settlement.PayoutPerWinner),
		utils.FormatSigned(settlement.ProfitPerWinner)))
	return sb.String()
}
