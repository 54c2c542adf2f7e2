package step

import (
	"sort"

	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/move"
	"github.com/smartmonsters/alifecore/internal/rng"
)

// PerformStep advances the game by one height. It is a pure function of
// (inState, data, params): it never mutates inState, performs no I/O
// and draws all randomness from a generator seeded by the predecessor
// block hash and the new height. All moves are logically simultaneous;
// the result does not depend on the order of data.NameUpdates beyond
// first-move-wins deduplication per player.
//
// The only error it returns is a *FatalError for an invariant violation
// that must reject the whole block. Malformed moves are dropped.
func PerformStep(in *entities.GameState, data *Data, params *chainparams.ChainParams) (*entities.GameState, *entities.StepResult, error) {
	if data.Height != in.Height+1 {
		return nil, nil, fatalf("step height %d does not follow state height %d", data.Height, in.Height)
	}

	out := cloneState(in)
	result := &entities.StepResult{KilledBy: map[string][]entities.KilledByInfo{}}
	r := rng.Seed(in.HashBlock[:], data.Height)
	kills := newKillSchedule()

	sc := buildScratch(out, data.Height, params)
	moves := parseMoves(in, data, params)

	applyMoves(out, moves, data, params, sc, &r)
	applyWaypoints(out, moves)

	destructors := collectDestructors(out, moves)

	moveCharacters(out, sc)

	if err := resolveAttacks(out, destructors, data, params, sc, &r, kills, result); err != nil {
		return nil, nil, err
	}

	updateCrown(out, &r)
	dropTreasure(out, data, &r)
	collectLoot(out, data, sc)
	bankLoot(out, data, result)
	killSpawnArea(out, data, params, kills)
	rollDisaster(out, data, params, &r)
	decrementLife(out, kills)

	if err := finaliseKills(out, data, params, kills, result); err != nil {
		return nil, nil, err
	}

	updateBanks(out, &r)
	updateHearts(out, data, params, sc, &r)

	out.Height = data.Height
	out.HashBlock = data.NewHash

	if err := checkInvariants(out, result); err != nil {
		return nil, nil, err
	}
	return out, result, nil
}

func buildScratch(g *entities.GameState, height int32, params *chainparams.ChainParams) *scratch {
	sc := &scratch{
		lifeSteal:     params.ForkInEffect(chainparams.ForkLifeSteal, height),
		poisonRefund:  params.ForkInEffect(chainparams.ForkPoisonRefund, height),
		meleeRanged:   params.ForkInEffect(chainparams.ForkMeleeRanged, height),
		heartsRemoved: params.ForkInEffect(chainparams.ForkHeartsRemoved, height),
		unit:          params.NameCoinAmount(height),
		spawned:       map[string]bool{},
	}
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		sc.population += len(p.Characters)
		sc.teamCounts[p.Colour] += len(p.Characters)
	}
	return sc
}

// parseMoves validates the block's name updates against the input
// state, dropping anything malformed and keeping only the first move
// per player in block order.
func parseMoves(in *entities.GameState, data *Data, params *chainparams.ChainParams) map[string]*move.Move {
	moves := make(map[string]*move.Move)
	for _, u := range data.NameUpdates {
		if _, dup := moves[u.PlayerName]; dup {
			continue
		}
		m, err := move.Parse(u, in, data.Height, params)
		if err != nil {
			continue
		}
		moves[m.PlayerName] = m
	}
	return moves
}

func sortedMoveNames(moves map[string]*move.Move) []string {
	names := make([]string, 0, len(moves))
	for n := range moves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// collectDestructors gathers the characters whose moves flagged a
// destruct, in canonical order. Indices that do not resolve to a live
// character are silently skipped.
func collectDestructors(g *entities.GameState, moves map[string]*move.Move) []entities.CharacterID {
	var ids []entities.CharacterID
	for _, name := range sortedMoveNames(moves) {
		m := moves[name]
		if len(m.Destruct) == 0 {
			continue
		}
		p, ok := g.Players[name]
		if !ok {
			continue
		}
		idxs := make([]uint32, 0, len(m.Destruct))
		for idx := range m.Destruct {
			idxs = append(idxs, idx)
		}
		sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
		for _, idx := range idxs {
			if _, ok := p.Characters[idx]; ok {
				ids = append(ids, entities.CharacterID{PlayerName: name, Index: idx})
			}
		}
	}
	return ids
}

func checkInvariants(g *entities.GameState, result *entities.StepResult) error {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		if p.RemainingLife == 0 {
			return fatalf("player %s survived with zero remaining life", name)
		}
		if p.LockedCoins < 0 || p.Value < 0 {
			return fatalf("player %s has negative coins", name)
		}
		if _, ok := p.Characters[0]; !ok {
			return fatalf("player %s lost its general without dying", name)
		}
		for idx := range p.Characters {
			if idx >= p.NextCharacterIndex {
				return fatalf("player %s character index %d not below next index %d", name, idx, p.NextCharacterIndex)
			}
		}
	}
	if g.GameFund < 0 {
		return fatalf("negative game fund")
	}
	if h := g.CrownHolder; h != nil {
		p, ok := g.Players[h.PlayerName]
		if !ok {
			return fatalf("crown holder %s is not a live player", h.PlayerName)
		}
		c, ok := p.Characters[h.Index]
		if !ok {
			return fatalf("crown holder %s.%d is not a live character", h.PlayerName, h.Index)
		}
		if c.Coord != g.CrownPos {
			return fatalf("crown position %v does not match holder at %v", g.CrownPos, c.Coord)
		}
	}
	for _, victim := range result.KilledPlayers {
		if _, ok := g.Players[victim]; ok {
			return fatalf("killed player %s still present", victim)
		}
	}
	return nil
}
