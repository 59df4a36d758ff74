package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/economy/tier"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultBatchSize = 500

// Migrator performs the one-off import of the previous bot
// generation's economy from MongoDB into Postgres. Imported balances
// are booked as initial grants so the transaction log still sums to
// the account balance afterwards.
type Migrator struct {
	pgDB      *bun.DB
	client    *mongo.Client
	mongoDB   *mongo.Database
	batchSize int
	collNames map[string]string
	stats     ImportStats
}

func New(pgDB *bun.DB) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		batchSize: defaultBatchSize,
		collNames: map[string]string{},
	}
}

// Connect opens the legacy MongoDB and pings it before any import work.
func (m *Migrator) Connect(ctx context.Context, uri, dbName string) error {
	if uri == "" || dbName == "" {
		return fmt.Errorf("legacy mongo uri and database must be configured")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to legacy mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping legacy mongo: %w", err)
	}

	m.client = client
	m.mongoDB = client.Database(dbName)
	return nil
}

func (m *Migrator) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *Migrator) SetBatchSize(n int) {
	if n > 0 {
		m.batchSize = n
	}
}

// SetCollectionName overrides the source collection name for a given
// kind (currently only "users").
func (m *Migrator) SetCollectionName(kind, name string) {
	if kind != "" && name != "" {
		m.collNames[kind] = name
	}
}

func (m *Migrator) getColl(kind, defaultName string) *mongo.Collection {
	name := defaultName
	if v, ok := m.collNames[kind]; ok {
		name = v
	}
	return m.mongoDB.Collection(name)
}

// ImportAll runs the full legacy import and returns run statistics.
func (m *Migrator) ImportAll(ctx context.Context) (*ImportStats, error) {
	if m.mongoDB == nil {
		return nil, fmt.Errorf("not connected; call Connect first")
	}

	m.stats = ImportStats{StartTime: time.Now()}
	slog.Info("Starting legacy economy import",
		slog.String("type", "db"),
		slog.String("database", m.mongoDB.Name()))

	if err := m.importUsers(ctx); err != nil {
		return nil, fmt.Errorf("legacy import failed: %w", err)
	}

	m.stats.EndTime = time.Now()
	slog.Info("Legacy economy import finished",
		slog.String("type", "db"),
		slog.Int("processed", m.stats.Processed),
		slog.Int("imported", m.stats.Imported),
		slog.Int("skipped", m.stats.Skipped),
		slog.Int("errors", m.stats.Errors),
		slog.Duration("took", m.stats.EndTime.Sub(m.stats.StartTime)))
	return &m.stats, nil
}

func (m *Migrator) importUsers(ctx context.Context) error {
	cur, err := m.getColl("users", "users").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy users: %w", err)
	}
	defer cur.Close(ctx)

	var batch []LegacyUser
	for cur.Next(ctx) {
		var lu LegacyUser
		if err := cur.Decode(&lu); err != nil {
			m.stats.Errors++
			continue
		}
		m.stats.Processed++

		if lu.DiscordID == "" || lu.Banned {
			m.stats.Skipped++
			continue
		}

		batch = append(batch, lu)
		if len(batch) >= m.batchSize {
			if err := m.flushUsers(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return m.flushUsers(ctx, batch)
	}
	return nil
}

// flushUsers inserts one batch of accounts plus their opening-balance
// transactions. Accounts that already exist are left untouched, so
// re-running the import is safe.
func (m *Migrator) flushUsers(ctx context.Context, batch []LegacyUser) error {
	accounts := make([]*models.Account, len(batch))
	for i, lu := range batch {
		accounts[i] = convertUser(lu)
	}

	return m.pgDB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// ON CONFLICT DO NOTHING with RETURNING only fills IDs on rows
		// that were actually inserted.
		if _, err := tx.NewInsert().
			Model(&accounts).
			On("CONFLICT (discord_id) DO NOTHING").
			Returning("id").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert accounts: %w", err)
		}

		var txs []*models.Transaction
		for _, acct := range accounts {
			if acct.ID == 0 {
				m.stats.Skipped++
				continue
			}
			m.stats.Imported++
			if acct.Balance == 0 {
				continue
			}
			txs = append(txs, &models.Transaction{
				AccountID: acct.ID,
				Amount:    acct.Balance,
				Reason:    models.ReasonInitialGrant,
				Timestamp: acct.CreatedAt,
			})
		}
		if len(txs) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&txs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert opening transactions: %w", err)
		}
		return nil
	})
}

func convertUser(lu LegacyUser) *models.Account {
	balance := int64(lu.Balance)
	if balance < 0 {
		balance = 0
	}
	xp := int64(lu.Exp)
	if xp < 0 {
		xp = 0
	}

	streak := int(lu.DailyStreak)
	best := int(lu.BestStreak)
	if best < streak {
		best = streak
	}

	now := time.Now()
	created := lu.Joined
	if created.IsZero() {
		created = now
	}

	return &models.Account{
		DiscordID:        lu.DiscordID,
		DisplayName:      lu.Username,
		Balance:          balance,
		LifetimeEarned:   balance,
		LastDailyClaim:   lu.LastDaily,
		DailyStreak:      streak,
		DailyStreakBest:  best,
		ExperiencePoints: xp,
		Level:            tier.Level(xp),
		CreatedAt:        created,
		UpdatedAt:        now,
	}
}
