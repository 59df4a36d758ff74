package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/casino-template/casino"
	"github.com/disgoorg/casino-template/casino/commands"
	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/stats"
	"github.com/disgoorg/casino-template/casino/economy/streak"
	"github.com/disgoorg/casino-template/casino/economy/tier"
	"github.com/disgoorg/casino-template/casino/games"
	"github.com/disgoorg/casino-template/casino/handlers"
	"github.com/disgoorg/casino-template/casino/logger"
	"github.com/disgoorg/casino-template/casino/migration"
	"github.com/disgoorg/casino-template/casino/services"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting Casino Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	shouldMigrateLegacy := flag.Bool("migrate-legacy", false, "Import the previous bot generation's economy from MongoDB and exit")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := casino.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	if *shouldMigrateLegacy {
		runLegacyImport(ctx, cfg, db)
		return
	}

	b := casino.New(*cfg, version, commit)
	b.DB = db

	b.AccountRepository = repositories.NewAccountRepository(db.BunDB())
	b.TransactionRepository = repositories.NewTransactionRepository(db.BunDB())
	b.SessionRepository = repositories.NewSessionRepository(db.BunDB())
	b.ParticipantRepository = repositories.NewParticipantRepository(db.BunDB())

	b.Ledger = ledger.New(b.AccountRepository, ledger.NewLocker())

	loc := time.UTC
	if cfg.Economy.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Economy.Timezone); err != nil {
			slog.Error("Invalid economy timezone",
				slog.String("timezone", cfg.Economy.Timezone),
				slog.Any("error", err))
			os.Exit(-1)
		}
	}
	b.StreakEngine = streak.NewEngine(b.AccountRepository, b.Ledger, streak.Config{
		Daily: streak.Params{
			BaseReward:    config.DailyBaseReward,
			BonusPerStep:  config.DailyBonusPerStep,
			CapStep:       config.DailyCapStep,
			MaxReward:     config.DailyMaxReward,
			InsuranceCost: config.DailyInsuranceCost,
		},
		Hourly: streak.Params{
			BaseReward:    config.HourlyBaseReward,
			BonusPerStep:  config.HourlyBonusPerStep,
			CapStep:       config.HourlyCapStep,
			MaxReward:     config.HourlyMaxReward,
			InsuranceCost: config.HourlyInsuranceCost,
			GraceMissed:   config.HourlyGraceMissed,
		},
		ResetHour: config.DailyResetHour,
		Location:  loc,
	})

	b.GameManager = games.NewManager(
		b.SessionRepository,
		b.ParticipantRepository,
		b.AccountRepository,
		b.Ledger,
		tier.Limits{Enabled: cfg.Economy.BetLimits},
	)

	b.StatsService = stats.NewService(b.AccountRepository, b.TransactionRepository, b.ParticipantRepository)

	// Snapshot rendering and uploads are optional; both halves must be
	// configured for /leaderboard snapshot to work.
	if cfg.Spaces.Bucket != "" {
		b.SpacesService = services.NewSpacesService(
			cfg.Spaces.Key,
			cfg.Spaces.Secret,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.SnapshotRoot,
		)
		b.SnapshotService = services.NewSnapshotService()
	}

	h := handler.New()

	// Economy commands
	h.Command("/balance", handlers.WrapWithLogging("balance", commands.BalanceHandler(b)))
	h.Command("/daily", handlers.WrapWithLogging("daily", commands.DailyHandler(b)))
	h.Command("/hourly", handlers.WrapWithLogging("hourly", commands.HourlyHandler(b)))
	h.Command("/insurance", handlers.WrapWithLogging("insurance", commands.InsuranceHandler(b)))
	h.Command("/tier", handlers.WrapWithLogging("tier", commands.TierInfoHandler(b)))
	h.Command("/history", handlers.WrapWithLogging("history", commands.HistoryHandler(b)))

	// Game commands
	h.Command("/slots", handlers.WrapWithLogging("slots", commands.SlotsHandler(b)))
	h.Command("/roulette", handlers.WrapWithLogging("roulette", commands.RouletteHandler(b)))
	h.Command("/duel", handlers.WrapWithLogging("duel", commands.DuelHandler(b)))
	h.Component("/duel/", handlers.WrapComponentWithLogging("duel", commands.DuelButtonHandler(b)))
	h.Command("/grouppot", handlers.WrapWithLogging("grouppot", commands.GroupPotHandler(b)))
	h.Component("/grouppot/", handlers.WrapComponentWithLogging("grouppot", commands.GroupPotButtonHandler(b)))
	h.Command("/blackjack", handlers.WrapWithLogging("blackjack", commands.BlackjackHandler(b)))
	h.Component("/blackjack/", handlers.WrapComponentWithLogging("blackjack", commands.BlackjackButtonHandler(b)))
	h.Command("/race", handlers.WrapWithLogging("race", commands.RaceHandler(b)))
	h.Component("/race/", handlers.WrapComponentWithLogging("race", commands.RaceButtonHandler(b)))

	// Social and admin commands
	h.Command("/stats", handlers.WrapWithLogging("stats", commands.StatsHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))
	h.Command("/admin", handlers.WrapWithLogging("admin", commands.AdminHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	b.GameManager.StartSweeper(sweepCtx)

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("error_details", fmt.Sprintf("%+v", err)))
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}

func runLegacyImport(ctx context.Context, cfg *casino.Config, db *database.DB) {
	m := migration.New(db.BunDB())
	if err := m.Connect(ctx, cfg.Legacy.URI, cfg.Legacy.Database); err != nil {
		slog.Error("Legacy import connection failed", slog.Any("error", err))
		os.Exit(-1)
	}
	defer func() {
		if err := m.Close(context.Background()); err != nil {
			slog.Error("Failed to close legacy mongo connection", slog.Any("error", err))
		}
	}()

	if _, err := m.ImportAll(ctx); err != nil {
		slog.Error("Legacy import failed", slog.Any("error", err))
		os.Exit(-1)
	}
}
