package casino

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/casino-template/casino/database"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	Bot     BotConfig         `toml:"bot"`
	DB      database.DBConfig `toml:"db"`
	Economy EconomyConfig     `toml:"economy"`
	Spaces  SpacesConfig      `toml:"spaces"`
	Legacy  LegacyConfig      `toml:"legacy"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
	// Discord user IDs allowed to run admin commands.
	Admins []snowflake.ID `toml:"admins"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type EconomyConfig struct {
	// Tier bet caps apply unless disabled.
	BetLimits bool `toml:"bet_limits"`
	// IANA timezone for daily reset windows, e.g. "Europe/Berlin".
	// Empty means UTC.
	Timezone string `toml:"timezone"`
}

// SpacesConfig targets the S3-compatible bucket that leaderboard
// snapshot images are uploaded to.
type SpacesConfig struct {
	Key          string `toml:"key"`
	Secret       string `toml:"secret"`
	Region       string `toml:"region"`
	Bucket       string `toml:"bucket"`
	SnapshotRoot string `toml:"snapshot_root"`
}

// LegacyConfig points at the MongoDB of the previous bot generation
// for the one-off economy import.
type LegacyConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}
