package step

import (
	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
	"github.com/smartmonsters/alifecore/internal/move"
	"github.com/smartmonsters/alifecore/internal/rng"
)

// applyMoves runs the non-spatial effects of every move: lock changes
// (the difference between the cached lock and the move's new name
// output is the game fee, swept to the game fund), chat, address
// updates, and spawn intents. Spawn placement draws from the step RNG
// in canonical player order, so placement is deterministic regardless
// of transaction order within the block.
func applyMoves(g *entities.GameState, moves map[string]*move.Move, data *Data, params *chainparams.ChainParams, sc *scratch, r *rng.State) {
	for _, name := range sortedMoveNames(moves) {
		m := moves[name]

		if m.Spawn != nil {
			spawnPlayer(g, m, data, sc, r)
			sc.spawned[name] = true
			continue
		}

		p, ok := g.Players[name]
		if !ok {
			continue
		}

		if m.NewLocked >= 0 && m.NewLocked != p.LockedCoins {
			if fee := p.LockedCoins - m.NewLocked; fee > 0 {
				g.GameFund += fee
			}
			p.LockedCoins = m.NewLocked
		}
		applyCommon(p, m, data.Height)
	}
}

func applyCommon(p *entities.PlayerState, m *move.Move, height int32) {
	if m.ChatMessage != nil {
		p.LastChatMessage = *m.ChatMessage
		p.LastChatBlock = height
	}
	if m.RewardAddress != nil {
		p.RewardAddress = *m.RewardAddress
	}
	if m.AdminAddress != nil {
		p.AdminAddress = *m.AdminAddress
	}
}

func spawnPlayer(g *entities.GameState, m *move.Move, data *Data, sc *scratch, r *rng.State) {
	p := &entities.PlayerState{
		Colour:        m.Spawn.Colour,
		LockedCoins:   m.NewLocked,
		Characters:    map[uint32]*entities.CharacterState{},
		RemainingLife: -1,
		RewardAddress: m.Spawn.InitialAddress,
	}

	n := initialCharactersPreFork
	if sc.lifeSteal {
		n = 1
	}
	for i := 0; i < n; i++ {
		spawnCharacter(p, r)
	}

	g.Players[m.PlayerName] = p
	applyCommon(p, m, data.Height)
}

// spawnCharacter places a fresh character on a random tile of its
// colour's spawn strip and allocates the next index.
func spawnCharacter(p *entities.PlayerState, r *rng.State) {
	coord := spawnTile(p.Colour, r)
	c := &entities.CharacterState{
		Coord: coord,
		From:  coord,
		Loot:  entities.NewCollectedLoot(),
	}
	p.Characters[p.NextCharacterIndex] = c
	p.NextCharacterIndex++
}

// spawnTile picks a uniform random tile on colour's spawn strip.
func spawnTile(colour entities.Colour, r *rng.State) geo.Coord {
	corner := spawnCorner(colour)
	dx := int32(r.NextRange(spawnStripSize))
	dy := int32(r.NextRange(spawnStripSize))
	return geo.Coord{
		X: corner.X - signTo(corner.X)*dx,
		Y: corner.Y - signTo(corner.Y)*dy,
	}
}

// signTo maps a corner ordinate to the direction pointing back toward
// the map centre.
func signTo(v int32) int32 {
	if v > 0 {
		return 1
	}
	return -1
}

// applyWaypoints replaces each referenced character's waypoint list
// with the move's new list and restarts its straight-line segment.
func applyWaypoints(g *entities.GameState, moves map[string]*move.Move) {
	for _, name := range sortedMoveNames(moves) {
		m := moves[name]
		if len(m.Waypoints) == 0 {
			continue
		}
		p, ok := g.Players[name]
		if !ok {
			continue
		}
		for _, idx := range sortedCharIndices(p) {
			wps, ok := m.Waypoints[idx]
			if !ok {
				continue
			}
			c := p.Characters[idx]
			c.Waypoints = append([]geo.Coord(nil), wps...)
			c.From = c.Coord
		}
	}
}

// moveCharacters advances every character one Chebyshev step along its
// current segment. Reaching a waypoint pops it and re-targets; stepping
// onto a bank ends the path there (banks are safe stops, not walls).
func moveCharacters(g *entities.GameState, sc *scratch) {
	for _, name := range sortedPlayerNames(g) {
		if sc.spawned[name] {
			continue
		}
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			moveTowardsWaypoint(g, p.Characters[idx])
		}
	}
}

func moveTowardsWaypoint(g *entities.GameState, c *entities.CharacterState) {
	target, ok := c.NextWaypoint()
	if !ok {
		c.Dir = 5
		return
	}
	next := geo.StepToward(c.Coord, target)
	if !insideMap(next) {
		c.From = c.Coord
		c.Waypoints = nil
		c.Dir = 5
		return
	}
	c.Dir = numpadDir(c.Coord, next)
	c.Coord = next
	if c.Coord == target {
		c.PopWaypoint()
		c.From = c.Coord
	}
	if _, bank := g.Banks[c.Coord]; bank {
		c.From = c.Coord
		c.Waypoints = nil
	}
}

func insideMap(c geo.Coord) bool {
	return c.X >= -mapHalfExtent && c.X <= mapHalfExtent &&
		c.Y >= -mapHalfExtent && c.Y <= mapHalfExtent
}

// numpadDir encodes a one-tile movement as on the numeric keypad,
// with 5 meaning stationary.
func numpadDir(from, to geo.Coord) uint8 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	return uint8(5 + dx - 3*dy)
}
