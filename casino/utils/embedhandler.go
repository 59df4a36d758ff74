package utils

import (
	"fmt"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// ResponseHandler builds the embeds commands reply with. EH is the
// shared instance handlers use.
type ResponseHandler struct{}

var EH = &ResponseHandler{}

// ErrorType picks the emoji and color of a classified error reply.
type ErrorType int

const (
	// UserError: bad input, unknown options, malformed amounts.
	UserError ErrorType = iota
	// SystemError: database or gateway failures.
	SystemError
	// NotFoundError: account or session missing.
	NotFoundError
	// PermissionError: admin-only actions.
	PermissionError
	// EconomyError: cooldowns, bet caps, insufficient funds, table rules.
	EconomyError
)

var errorStyles = map[ErrorType]struct {
	prefix string
	color  int
}{
	UserError:       {"⚠️", config.WarningColor},
	SystemError:     {"🔧", config.ErrorColor},
	NotFoundError:   {"🔍", config.InfoColor},
	PermissionError: {"🚫", config.ErrorColor},
	EconomyError:    {"⏰", config.WarningColor},
}

func (h *ResponseHandler) classified(event *handler.CommandEvent, t ErrorType, message string) error {
	style, ok := errorStyles[t]
	if !ok {
		style.prefix, style.color = "❌", config.ErrorColor
	}
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: style.prefix + " " + message,
			Color:       style.color,
		}},
	})
}

func (h *ResponseHandler) CreateUserError(event *handler.CommandEvent, message string) error {
	return h.classified(event, UserError, message)
}

func (h *ResponseHandler) CreateSystemError(event *handler.CommandEvent, message string) error {
	return h.classified(event, SystemError, message)
}

func (h *ResponseHandler) CreateNotFoundError(event *handler.CommandEvent, resource, identifier string) error {
	return h.classified(event, NotFoundError, fmt.Sprintf("%s '%s' not found", resource, identifier))
}

func (h *ResponseHandler) CreatePermissionError(event *handler.CommandEvent, action string) error {
	return h.classified(event, PermissionError, "You don't have permission to "+action)
}

func (h *ResponseHandler) CreateEconomyError(event *handler.CommandEvent, message string) error {
	return h.classified(event, EconomyError, message)
}

func (h *ResponseHandler) CreateSuccessEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.SuccessColor,
		}},
	})
}

func (h *ResponseHandler) CreateInfoEmbed(event *handler.CommandEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Description: message,
			Color:       config.InfoColor,
		}},
	})
}

// CreateError is the loud variant with a titled diff block, for
// failures that deserve attention in-channel.
func (h *ResponseHandler) CreateError(event *handler.CommandEvent, title, description string) error {
	return event.CreateMessage(discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "❌ " + title,
			Description: fmt.Sprintf("```diff\n- %s\n```", description),
			Color:       config.ErrorColor,
		}},
	})
}

// UpdateInteractionResponse rewrites an already-deferred response into
// an error embed.
func (h *ResponseHandler) UpdateInteractionResponse(event *handler.CommandEvent, title, description string) error {
	_, err := event.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{{
			Title:       "❌ " + title,
			Description: fmt.Sprintf("```diff\n- %s\n```", description),
			Color:       config.ErrorColor,
		}},
	})
	return err
}

// CreateEphemeralError replies privately to a button press.
func (h *ResponseHandler) CreateEphemeralError(event *handler.ComponentEvent, message string) error {
	return event.CreateMessage(discord.MessageCreate{
		Content: message,
		Flags:   discord.MessageFlagEphemeral,
	})
}
