package games

import (
	"math/rand"
	"strings"
)

// Animal race: a fixed field of racers with different per-tick speed
// ranges runs down a shared track. Players bet on a racer before the
// start; everyone who picked the winning racer splits the total pot.

const (
	RaceTrackLength = 100
	raceMaxTicks    = 50
	raceBarLength   = 10
)

// Racer is one animal in the field.
type Racer struct {
	Name     string
	Emoji    string
	MinSpeed int
	MaxSpeed int
}

// The field. Wider ranges are swingier but average out the same.
var raceField = []Racer{
	{"Turtle", "🐢", 2, 7},
	{"Rabbit", "🐇", 0, 12},
	{"Horse", "🐎", 3, 8},
	{"Dog", "🐕", 1, 10},
	{"Cat", "🐈", 1, 11},
	{"Frog", "🐸", 0, 14},
}

// RaceField returns a copy of the racer lineup.
func RaceField() []Racer {
	out := make([]Racer, len(raceField))
	copy(out, raceField)
	return out
}

// RacerByName finds a racer case-insensitively.
func RacerByName(name string) (Racer, bool) {
	for _, r := range raceField {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Racer{}, false
}

// RaceTick is one frame of the race.
type RaceTick struct {
	Positions []int
}

// RaceResult is a finished race.
type RaceResult struct {
	Ticks  []RaceTick
	Winner Racer
	// Finished is false when no racer reached the line within the
	// tick cap; the leader still wins.
	Finished bool
}

// RunRace simulates the whole race up front so the caller can replay
// the ticks as an animation without touching the RNG again.
func RunRace(rng *rand.Rand) RaceResult {
	positions := make([]int, len(raceField))
	var result RaceResult

	for tick := 0; tick < raceMaxTicks; tick++ {
		for i, r := range raceField {
			positions[i] += r.MinSpeed + rng.Intn(r.MaxSpeed-r.MinSpeed+1)
		}
		snapshot := make([]int, len(positions))
		copy(snapshot, positions)
		result.Ticks = append(result.Ticks, RaceTick{Positions: snapshot})

		if best := leader(positions); positions[best] >= RaceTrackLength {
			result.Winner = raceField[best]
			result.Finished = true
			return result
		}
	}

	result.Winner = raceField[leader(positions)]
	return result
}

// leader picks the furthest racer; on a distance tie the earlier lane
// wins, matching the order rolls were applied.
func leader(positions []int) int {
	best := 0
	for i, p := range positions {
		if p > positions[best] {
			best = i
		}
	}
	return best
}

// FormatProgressBar renders a racer's progress as a fixed-width bar.
func FormatProgressBar(position int) string {
	progress := float64(position) / float64(RaceTrackLength)
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * raceBarLength)
	return strings.Repeat("▓", filled) + strings.Repeat("░", raceBarLength-filled)
}

// SplitPot divides the total pot evenly among winners using integer
// division; the remainder stays in the house.
func SplitPot(totalPot int64, winners int) int64 {
	if winners <= 0 {
		return 0
	}
	return totalPot / int64(winners)
}
