package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/utils"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

var Blackjack = discord.SlashCommandCreate{
	Name:        "blackjack",
	Description: "🃏 Play a hand of blackjack against the dealer",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "Amount to wager",
			Required:    true,
			MinValue:    intPtr(1),
		},
	},
}

// promptRegistry routes button presses to the blocked game loop of
// the matching session.
type promptRegistry struct {
	mu sync.Mutex
	ch map[int64]chan games.BlackjackAction
}

var bjPrompts = &promptRegistry{ch: make(map[int64]chan games.BlackjackAction)}

func (r *promptRegistry) register(sessionID int64) chan games.BlackjackAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan games.BlackjackAction, 1)
	r.ch[sessionID] = ch
	return ch
}

func (r *promptRegistry) unregister(sessionID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ch, sessionID)
}

func (r *promptRegistry) push(sessionID int64, action games.BlackjackAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.ch[sessionID]
	if !ok {
		return false
	}
	select {
	case ch <- action:
		return true
	default:
		return false
	}
}

// interactionPrompter drives one player's turn over the deferred
// interaction response.
type interactionPrompter struct {
	event     *handler.CommandEvent
	sessionID int64
	bet       int64
	actions   chan games.BlackjackAction
	// splitDeclined flags that the previous turn asked for a split the
	// table refused; the next prompt tells the player.
	splitDeclined bool
}

var errPromptTimeout = errors.New("no action within the time limit")

func (p *interactionPrompter) PromptAction(ctx context.Context, _ int, hand *games.Hand, dealerUp games.Card, canDouble, canSplit bool) (games.BlackjackAction, error) {
	buttons := []discord.InteractiveComponent{
		discord.NewSuccessButton("Hit", fmt.Sprintf("/blackjack/hit/%d", p.sessionID)),
		discord.NewSecondaryButton("Stand", fmt.Sprintf("/blackjack/stand/%d", p.sessionID)),
	}
	if canDouble {
		buttons = append(buttons, discord.NewPrimaryButton("Double", fmt.Sprintf("/blackjack/double/%d", p.sessionID)))
	}
	if canSplit {
		buttons = append(buttons, discord.NewDangerButton("Split", fmt.Sprintf("/blackjack/split/%d", p.sessionID)))
	}

	description := blackjackTurnDescription(hand, dealerUp, p.splitDeclined)
	p.splitDeclined = false

	if _, err := p.event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "🃏 Blackjack",
			Description: description,
			Color:       config.InfoColor,
		}},
		Components: &[]discord.ContainerComponent{discord.NewActionRow(buttons...)},
	}); err != nil {
		return "", err
	}

	select {
	case action := <-p.actions:
		if action == games.ActionSplit {
			// The round driver refuses splits and re-prompts.
			p.splitDeclined = true
		}
		return action, nil
	case <-time.After(config.BlackjackTurnTimeout):
		return "", errPromptTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// blackjackTurnDescription renders one decision point. splitDeclined
// adds a notice that the previous split request was refused.
func blackjackTurnDescription(hand *games.Hand, dealerUp games.Card, splitDeclined bool) string {
	var sb strings.Builder
	if splitDeclined {
		sb.WriteString("✂️ This table doesn't offer splits. Pick another move.\n\n")
	}
	sb.WriteString(fmt.Sprintf(
		"**Your hand:** %s (%d)\n**Dealer shows:** %s\n\nBet: %s",
		hand.Format(false), hand.Value(), dealerUp,
		utils.FormatCoins(hand.Bet)))
	return sb.String()
}

func BlackjackHandler(b *casino.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		bet := int64(e.SlashCommandInteractionData().Int("bet"))

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

		session, err := b.GameManager.OpenSession(ctx, models.GameTypeBlackjack, acct, e.ChannelID().String(), bet, models.BlackjackState{
			BetAmount: bet,
		})
		if errors.Is(err, games.ErrSessionOpen) {
			return utils.EH.CreateEconomyError(e, "A blackjack hand is already being played in this channel.")
		}
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to open the table")
		}
		if err := b.GameManager.Activate(ctx, session.ID); err != nil {
			return utils.EH.CreateSystemError(e, "Failed to start the hand")
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		actions := bjPrompts.register(session.ID)
		defer bjPrompts.unregister(session.ID)

		prompter := &interactionPrompter{event: e, sessionID: session.ID, bet: bet, actions: actions}
		round := b.GameManager.RunBlackjackRound(ctx, 1, bet, prompter)

		if err := b.GameManager.SettleBlackjack(ctx, session, round); err != nil {
			return utils.EH.UpdateInteractionResponse(e, "Settlement failed", "The hand could not be settled")
		}

		acct, err = b.AccountRepository.GetByID(ctx, acct.ID)
		if err != nil {
			return err
		}

		result := round.Results[0]
		color := config.WarningColor
		switch {
		case result.Profit > 0:
			color = config.SuccessColor
		case result.Profit < 0:
			color = config.ErrorColor
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{{
				Title:       "🃏 Blackjack",
				Description: formatBlackjackResult(round, result, acct.Balance),
				Color:       color,
			}},
			Components: &[]discord.ContainerComponent{},
		})
		return err
	}
}

func BlackjackButtonHandler(b *casino.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		parts := strings.Split(strings.TrimPrefix(e.Data.CustomID(), "/blackjack/"), "/")
		if len(parts) != 2 {
			return fmt.Errorf("malformed blackjack custom id: %s", e.Data.CustomID())
		}
		action := games.BlackjackAction(parts[0])
		sessionID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		session, err := b.SessionRepository.GetByID(ctx, sessionID)
		if err != nil {
			return utils.EH.CreateEphemeralError(e, "This hand no longer exists.")
		}
		if session.Creator == nil || session.Creator.DiscordID != e.User().ID.String() {
			return utils.EH.CreateEphemeralError(e, "This isn't your hand.")
		}

		if !bjPrompts.push(sessionID, action) {
			return utils.EH.CreateEphemeralError(e, "This hand already finished.")
		}
		return e.DeferUpdateMessage()
	}
}

func formatBlackjackResult(round *games.BlackjackRound, result games.BlackjackHandResult, balance int64) string {
	var verdict string
	switch result.Outcome {
	case games.OutcomeBlackjack:
		verdict = "♠️ **Blackjack!** Paid 3:2."
	case games.OutcomeHandWin:
		verdict = "🏆 **You win!**"
	case games.OutcomeHandPush:
		verdict = "🤝 **Push.** Your bet comes back."
	default:
		verdict = "💀 **Dealer wins.**"
	}

	return fmt.Sprintf(
		"**Your hand:** %s (%d)\n"+
			"**Dealer:** %s (%d)\n\n"+
			"%s\n"+
			"**%s** coins\n"+
			"💰 Balance: %s",
		result.Hand.Format(false), result.Hand.Value(),
		round.DealerHand.Format(false), round.DealerHand.Value(),
		verdict,
		utils.FormatSigned(result.Profit),
		utils.FormatCoins(balance))
}
