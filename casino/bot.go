package casino

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/casino-template/casino/database"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/stats"
	"github.com/disgoorg/casino-template/casino/economy/streak"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/services"
	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB                    *database.DB
	AccountRepository     repositories.AccountRepository
	TransactionRepository repositories.TransactionRepository
	SessionRepository     repositories.SessionRepository
	ParticipantRepository repositories.ParticipantRepository

	Ledger       *ledger.Ledger
	StreakEngine *streak.Engine
	GameManager  *games.Manager
	StatsService *stats.Service

	SnapshotService *services.SnapshotService
	SpacesService   *services.SpacesService
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

// IsAdmin reports whether a user may run admin commands.
func (b *Bot) IsAdmin(userID snowflake.ID) bool {
	for _, id := range b.Cfg.Bot.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Casino bot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the house edge"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
