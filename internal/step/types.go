// Package step implements PerformStep, the fixed pipeline that
// advances a GameState by one height given the set of validated moves
// carried by that height's block.
package step

import (
	"fmt"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
	"github.com/smartmonsters/alifecore/internal/move"
)

// Data is everything about the block being stepped into that the
// engine needs beyond the predecessor state and chain parameters.
type Data struct {
	NewHash      [32]byte
	Height       int32
	NameUpdates  []move.NameUpdate
	BlockSubsidy int64
}

// FatalError wraps an invariant violation detected inside a step; the
// host must reject the block. It is the only error PerformStep ever
// returns; move-level errors are absorbed internally.
type FatalError struct {
	msg string
}

func (e *FatalError) Error() string { return "game: fatal: " + e.msg }

func fatalf(format string, args ...any) *FatalError {
	return &FatalError{msg: fmt.Sprintf(format, args...)}
}

// killSchedule accumulates the reasons a player is to be killed this
// step, keyed by player name, before finaliseKills finalises them.
type killSchedule struct {
	byPlayer map[string][]entities.KilledByInfo
}

func newKillSchedule() *killSchedule {
	return &killSchedule{byPlayer: map[string][]entities.KilledByInfo{}}
}

func (k *killSchedule) add(player string, reason entities.KillReason, killers []entities.CharacterID) {
	k.byPlayer[player] = append(k.byPlayer[player], entities.KilledByInfo{Reason: reason, Killers: killers})
}

func (k *killSchedule) isScheduled(player string) bool {
	_, ok := k.byPlayer[player]
	return ok
}

// spawnStripSize is the side length (in tiles) of each colour's
// protected spawn strip, measured inward from its map corner.
const spawnStripSize = 16

const (
	// treasureDivisor is the share of the block subsidy entering the
	// game as map loot: subsidy / treasureDivisor per step.
	treasureDivisor = 10

	// crownBonusPermille of the step's treasure goes straight into the
	// crown holder's carried loot instead of onto the map.
	crownBonusPermille = 150

	// carryCapacityUnits bounds carried loot post life-steal fork, in
	// multiples of the name-coin unit. Pre-fork carrying is unbounded.
	carryCapacityUnits = 10

	// deathTaxDivisor: destruct-kill drops lose amount/deathTaxDivisor
	// to the miner.
	deathTaxDivisor = 25

	// bankCount is the constant number of banks kept on the map;
	// bankLifeMin/bankLifeRange bound a fresh bank's lifetime draw.
	bankCount     = 12
	bankLifeMin   = 25
	bankLifeRange = 50

	// heartSpawnChance: a heart spawns with probability 1/heartSpawnChance
	// per step, pre hearts-removal fork.
	heartSpawnChance = 10

	// initialCharactersPreFork is the number of characters a spawn
	// creates before the life-steal fork (general plus two); after the
	// fork only the general spawns.
	initialCharactersPreFork = 3

	maxCharactersPerPlayer = 20
)

// scratch carries the per-step constants precomputed from (state,
// height) before any pass runs: fork gates, the life-steal unit and
// population counters. It is rebuilt each step and never outlives one
// PerformStep call.
type scratch struct {
	lifeSteal     bool
	poisonRefund  bool
	meleeRanged   bool
	heartsRemoved bool

	unit int64

	population int
	teamCounts [4]int

	// spawned marks players created this step; their characters settle
	// on the spawn strip and start walking next block.
	spawned map[string]bool
}

// mapHalfExtent bounds the playable square map, matching the waypoint
// bounds the move validator enforces.
const mapHalfExtent = 2000

// spawnCorner returns the outward corner a colour's spawn strip hugs.
func spawnCorner(c entities.Colour) geo.Coord {
	switch c {
	case entities.ColourRed:
		return geo.Coord{X: -mapHalfExtent, Y: -mapHalfExtent}
	case entities.ColourYellow:
		return geo.Coord{X: mapHalfExtent, Y: -mapHalfExtent}
	case entities.ColourGreen:
		return geo.Coord{X: -mapHalfExtent, Y: mapHalfExtent}
	default: // ColourBlue
		return geo.Coord{X: mapHalfExtent, Y: mapHalfExtent}
	}
}

// inSpawnArea reports whether coord lies within colour's protected
// spawn strip.
func inSpawnArea(coord geo.Coord, colour entities.Colour) bool {
	corner := spawnCorner(colour)
	dx := abs32(coord.X - corner.X)
	dy := abs32(coord.Y - corner.Y)
	return dx < spawnStripSize && dy < spawnStripSize
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
