package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegacyUser mirrors the previous bot generation's MongoDB user
// document. Numeric fields are float64 because the old bot stored
// amounts as doubles.
type LegacyUser struct {
	ID          primitive.ObjectID `bson:"_id"`
	DiscordID   string             `bson:"discord_id"`
	Username    string             `bson:"username"`
	Balance     float64            `bson:"balance"`
	Exp         float64            `bson:"exp"`
	DailyStreak float64            `bson:"dailystreak"`
	BestStreak  float64            `bson:"beststreak"`
	LastDaily   time.Time          `bson:"lastdaily"`
	Joined      time.Time          `bson:"joined"`
	Banned      bool               `bson:"banned"`
}

// ImportStats tracks progress of a legacy import run.
type ImportStats struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Processed int       `json:"processed"`
	Imported  int       `json:"imported"`
	Skipped   int       `json:"skipped"`
	Errors    int       `json:"errors"`
}
