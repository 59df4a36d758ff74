package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
)

// Service aggregates per-player and leaderboard statistics from the
// transaction and participant tables. Leaderboard pages are cached
// because they hit every account row.
type Service struct {
	accounts     repositories.AccountRepository
	transactions repositories.TransactionRepository
	participants repositories.ParticipantRepository

	cache    *lru.Cache
	cacheTTL time.Duration
}

// GameStats is one game's win/loss record for a player.
type GameStats struct {
	Type   models.GameType
	Wins   int64
	Losses int64
	// Net is the signed coin total across the game's win and loss
	// transactions.
	Net int64
}

// Rounds is the number of decided rounds. Pushes don't count.
func (g GameStats) Rounds() int64 {
	return g.Wins + g.Losses
}

// WinRate returns the win percentage, 0 when no rounds were played.
func (g GameStats) WinRate() float64 {
	rounds := g.Rounds()
	if rounds == 0 {
		return 0
	}
	return float64(g.Wins) / float64(rounds) * 100
}

// PlayerStats is the full aggregate for one account.
type PlayerStats struct {
	Account *models.Account
	Rank    int
	Games   []GameStats
	// TotalWon and TotalLost are the summed game transaction amounts,
	// wins positive and losses negative.
	TotalWon  int64
	TotalLost int64
	// BiggestWin and BiggestLoss are the single largest win and loss
	// transactions, 0 with no game history.
	BiggestWin  int64
	BiggestLoss int64
	// ClaimIncome is everything earned from daily and hourly claims.
	ClaimIncome int64
}

// NetGameProfit is the signed total across all games.
func (p PlayerStats) NetGameProfit() int64 {
	return p.TotalWon + p.TotalLost
}

type cachedPage struct {
	entries   []LeaderboardEntry
	timestamp time.Time
}

// LeaderboardEntry is one row of the balance leaderboard.
type LeaderboardEntry struct {
	Rank    int
	Account *models.Account
}

func NewService(
	accounts repositories.AccountRepository,
	transactions repositories.TransactionRepository,
	participants repositories.ParticipantRepository,
) *Service {
	cache, _ := lru.New(config.LeaderboardCacheSize)
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		participants: participants,
		cache:        cache,
		cacheTTL:     config.LeaderboardCacheTTL,
	}
}

var statGameTypes = []models.GameType{
	models.GameTypeDuel,
	models.GameTypeSlots,
	models.GameTypeRoulette,
	models.GameTypeGroupPot,
	models.GameTypeBlackjack,
	models.GameTypeRace,
}

// GetPlayerStats fans the per-game and per-reason aggregations out in
// parallel and assembles the result.
func (s *Service) GetPlayerStats(ctx context.Context, accountID int64) (*PlayerStats, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	stats := &PlayerStats{
		Account: account,
		Games:   make([]GameStats, len(statGameTypes)),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rank, err := s.accounts.GetRank(gctx, accountID)
		if err != nil {
			return fmt.Errorf("rank: %w", err)
		}
		stats.Rank = rank
		return nil
	})

	for i, gameType := range statGameTypes {
		g.Go(func() error {
			wins, losses, err := s.participants.CountWinsLosses(gctx, accountID, gameType)
			if err != nil {
				return fmt.Errorf("%s record: %w", gameType, err)
			}

			win, loss := models.GameReasons(gameType)
			totals, err := s.transactions.SumByReason(gctx, accountID, []models.Reason{win, loss})
			if err != nil {
				return fmt.Errorf("%s totals: %w", gameType, err)
			}

			var net int64
			for _, t := range totals {
				net += t.Total
			}
			stats.Games[i] = GameStats{Type: gameType, Wins: wins, Losses: losses, Net: net}
			return nil
		})
	}

	g.Go(func() error {
		totals, err := s.transactions.SumByReason(gctx, accountID, append(models.WinReasons(), models.LossReasons()...))
		if err != nil {
			return fmt.Errorf("game totals: %w", err)
		}
		var won, lost int64
		for _, t := range totals {
			if t.Total >= 0 {
				won += t.Total
			} else {
				lost += t.Total
			}
		}
		stats.TotalWon = won
		stats.TotalLost = lost
		return nil
	})

	g.Go(func() error {
		biggest, err := s.transactions.ExtremeByReason(gctx, accountID, models.WinReasons(), true)
		if err != nil {
			return fmt.Errorf("biggest win: %w", err)
		}
		stats.BiggestWin = biggest
		return nil
	})

	g.Go(func() error {
		worst, err := s.transactions.ExtremeByReason(gctx, accountID, models.LossReasons(), false)
		if err != nil {
			return fmt.Errorf("biggest loss: %w", err)
		}
		stats.BiggestLoss = worst
		return nil
	})

	g.Go(func() error {
		totals, err := s.transactions.SumByReason(gctx, accountID, []models.Reason{
			models.ReasonDailyReward,
			models.ReasonHourlyReward,
		})
		if err != nil {
			return fmt.Errorf("claim income: %w", err)
		}
		for _, t := range totals {
			stats.ClaimIncome += t.Total
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetLeaderboardPage returns one page of accounts ordered by balance.
// Pages are zero-indexed. Results are cached for a short TTL.
func (s *Service) GetLeaderboardPage(ctx context.Context, page int) ([]LeaderboardEntry, error) {
	if page < 0 {
		page = 0
	}

	if cached, ok := s.cache.Get(page); ok {
		entry := cached.(cachedPage)
		if time.Since(entry.timestamp) < s.cacheTTL {
			return entry.entries, nil
		}
		s.cache.Remove(page)
	}

	offset := page * config.LeaderboardPerPage
	accounts, err := s.accounts.GetTopByBalance(ctx, config.LeaderboardPerPage, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(accounts))
	for i, account := range accounts {
		entries[i] = LeaderboardEntry{Rank: offset + i + 1, Account: account}
	}

	s.cache.Add(page, cachedPage{entries: entries, timestamp: time.Now()})
	return entries, nil
}

// InvalidateLeaderboard drops all cached pages. Called after admin
// adjustments and economy resets.
func (s *Service) InvalidateLeaderboard() {
	s.cache.Purge()
}

// VerifyLedger checks that an account's balance matches the sum of
// its transaction records.
func (s *Service) VerifyLedger(ctx context.Context, accountID int64) (bool, int64, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, 0, err
	}
	sum, err := s.transactions.SumByAccount(ctx, accountID)
	if err != nil {
		return false, 0, err
	}
	return account.Balance == sum, account.Balance - sum, nil
}
