package config

import "time"

// Application-wide constants organized by domain

// UI and Display Constants
const (
	// Pagination
	LeaderboardPerPage = 10
	HistoryPerPage     = 10
	MaxPageSize        = 25

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	// Discord UI Colors
	BackgroundColor   = 0x2B2D31
	EmbedDefaultColor = 0x2B2D31
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout     = 30 * time.Second
	StatsQueryTimeout       = 10 * time.Second
	BatchQueryTimeout       = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	NetworkDialTimeout      = 5 * time.Second

	// Cache settings
	LeaderboardCacheTTL  = 1 * time.Minute
	LeaderboardCacheSize = 128

	// Batch processing
	DefaultBatchSize = 50
	MaxRetries       = 3
)

// Economy Constants
const (
	// Every new account starts with this balance as a single
	// initial_grant transaction.
	StartingBalance = 10_000

	// Experience granted per wagered amount.
	XPDivisor = 100

	// Sentinel max bet when tier limits are disabled.
	UnlimitedMaxBet = 999_999_999
)

// Claim System Constants
const (
	DailyBaseReward    = 1000
	DailyBonusPerStep  = 0.10
	DailyCapStep       = 10
	DailyMaxReward     = 2500
	DailyResetHour     = 3
	DailyInsuranceCost = 2000

	HourlyBaseReward    = 250
	HourlyBonusPerStep  = 0.05
	HourlyCapStep       = 12
	HourlyMaxReward     = 500
	HourlyGraceMissed   = 2
	HourlyInsuranceCost = 500
)

// Game Constants
const (
	// Deathroll duel
	DuelStartingCeiling = 100
	DuelJoinTimeout     = 60 * time.Second
	DuelTurnTimeout     = 30 * time.Second

	// Group pot
	GroupPotJoinTimeout  = 45 * time.Second
	GroupPotMinPlayers   = 2
	GroupPotMaxRerolls   = 100
	GroupPotRollCeiling  = 100

	// Blackjack
	BlackjackTurnTimeout = 30 * time.Second
	BlackjackDealerStand = 17

	// Race
	RaceTrackLength = 100
	RaceMaxTicks    = 50
	RaceTickDelay   = 2 * time.Second
	RaceJoinTimeout = 45 * time.Second

	// Session hygiene
	StaleSessionAge      = 10 * time.Minute
	SessionSweepInterval = 1 * time.Minute
)
