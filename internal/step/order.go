package step

import (
	"sort"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

// sortedPlayerNames returns g's player names in canonical lexicographic
// order. Every pass that iterates players must use this, never a raw
// map range, so output is independent of Go's randomised map order.
func sortedPlayerNames(g *entities.GameState) []string {
	names := make([]string, 0, len(g.Players))
	for n := range g.Players {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sortedCharIndices returns a player's character indices in ascending
// numeric order.
func sortedCharIndices(p *entities.PlayerState) []uint32 {
	idxs := make([]uint32, 0, len(p.Characters))
	for idx := range p.Characters {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	return idxs
}

// sortedLootCoords returns g's loot tile coordinates in canonical
// (x,y) order.
func sortedLootCoords(g *entities.GameState) []geo.Coord {
	coords := make([]geo.Coord, 0, len(g.Loot))
	for c := range g.Loot {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// sortedBankCoords returns g's bank tile coordinates in canonical
// (x,y) order.
func sortedBankCoords(g *entities.GameState) []geo.Coord {
	coords := make([]geo.Coord, 0, len(g.Banks))
	for c := range g.Banks {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

// allCharacterIDs returns every live character id across all players,
// in canonical order.
func allCharacterIDs(g *entities.GameState) []entities.CharacterID {
	var ids []entities.CharacterID
	for _, name := range sortedPlayerNames(g) {
		for _, idx := range sortedCharIndices(g.Players[name]) {
			ids = append(ids, entities.CharacterID{PlayerName: name, Index: idx})
		}
	}
	return ids
}
