package step

import (
	"sort"

	"github.com/smartmonsters/alifecore/internal/attack"
	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/rng"
)

// resolveAttacks runs the melee round and, post melee/ranged fork, a
// second ranged round. Each round builds its own CharactersOnTiles
// index from the then-current state, applies the destruct attacks,
// cancels mutual attacks (post life-steal fork), draws life and credits
// the survivors.
func resolveAttacks(g *entities.GameState, destructors []entities.CharacterID, data *Data, params *chainparams.ChainParams, sc *scratch, r *rng.State, kills *killSchedule, result *entities.StepResult) error {
	if err := attackRound(g, destructors, data, params, sc, r, kills, result, false); err != nil {
		return err
	}
	if sc.meleeRanged {
		if err := attackRound(g, destructors, data, params, sc, r, kills, result, true); err != nil {
			return err
		}
	}
	return nil
}

func attackRound(g *entities.GameState, destructors []entities.CharacterID, data *Data, params *chainparams.ChainParams, sc *scratch, r *rng.State, kills *killSchedule, result *entities.StepResult, ranged bool) error {
	chars := liveCharacters(g)
	tiles := attack.NewTiles()
	if ranged {
		tiles.ApplyRangedAttacks(chars, destructors)
	} else {
		tiles.ApplyAttacks(chars, destructors)
	}
	if sc.lifeSteal {
		tiles.DefendMutualAttacks()
	}

	outcomes := tiles.DrawLife(data.Height, params, r, func(id entities.CharacterID) int64 {
		return g.Players[id.PlayerName].LockedCoins
	})

	for _, o := range outcomes {
		p, ok := g.Players[o.Victim.PlayerName]
		if !ok {
			return fatalf("attacked character %s.%d has no player", o.Victim.PlayerName, o.Victim.Index)
		}
		p.LockedCoins -= o.TotalDrawn
		if p.LockedCoins < 0 {
			return fatalf("player %s drawn below zero lock", o.Victim.PlayerName)
		}
		if !o.Killed {
			continue
		}
		if o.Victim.Index == 0 {
			if !kills.isScheduled(o.Victim.PlayerName) {
				kills.add(o.Victim.PlayerName, entities.KilledDestruct, o.AllAttackers)
			}
		} else {
			killCharacter(g, o.Victim, data.Height, true, &result.TaxAmount)
		}
	}

	creditDrawnLife(g, attack.DistributeDrawnLife(outcomes))
	return nil
}

// creditDrawnLife pays the pooled drawn life out to the attackers'
// owning players. An attacker whose player already left the state this
// step forfeits its share to the game fund so no coin goes missing.
func creditDrawnLife(g *entities.GameState, pool map[entities.CharacterID]int64) {
	ids := make([]entities.CharacterID, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	for _, id := range ids {
		if p, ok := g.Players[id.PlayerName]; ok {
			p.Value += pool[id]
		} else {
			g.GameFund += pool[id]
		}
	}
}

// killCharacter removes a non-general character from the map, dropping
// its carried loot on its tile (taxed when the death was a destruct)
// and releasing the crown if it was the holder. result tax is
// accumulated by the caller via taxSink when non-nil.
func killCharacter(g *entities.GameState, id entities.CharacterID, height int32, taxed bool, taxSink *int64) {
	p := g.Players[id.PlayerName]
	c, ok := p.Characters[id.Index]
	if !ok {
		return
	}
	if c.Loot.Amount > 0 {
		amount := c.Loot.Amount
		if taxed {
			tax := amount / deathTaxDivisor
			amount -= tax
			if taxSink != nil {
				*taxSink += tax
			}
		}
		addLoot(g, c.Coord, amount, height)
	}
	if h := g.CrownHolder; h != nil && *h == id {
		g.CrownHolder = nil
		g.CrownPos = c.Coord
	}
	delete(p.Characters, id.Index)
}

// liveCharacters lists every character with its protection status, in
// canonical order, for the attack index.
func liveCharacters(g *entities.GameState) []attack.Character {
	var chars []attack.Character
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			c := p.Characters[idx]
			chars = append(chars, attack.Character{
				ID:        entities.CharacterID{PlayerName: name, Index: idx},
				Colour:    p.Colour,
				Coord:     c.Coord,
				Protected: c.StayInSpawnArea >= 0 && inSpawnArea(c.Coord, p.Colour),
			})
		}
	}
	return chars
}

// rollDisaster draws the step's single disaster roll. The probability
// grows with the number of blocks since the last disaster; on a hit all
// un-poisoned players start the poison countdown. The roll is drawn
// every step, hit or miss, to keep the RNG call sequence fixed.
func rollDisaster(g *entities.GameState, data *Data, params *chainparams.ChainParams, r *rng.State) {
	elapsed := data.Height
	if g.DisasterHeight >= 0 {
		elapsed = data.Height - g.DisasterHeight
	}
	threshold := uint64(params.DisasterBaseProbabilityPermille) * uint64(elapsed)
	roll := uint64(r.NextRange(1000000))
	if roll >= threshold {
		return
	}
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		if p.RemainingLife == -1 {
			p.RemainingLife = params.PoisonLifeBlocks
		}
	}
	g.DisasterHeight = data.Height
}

// decrementLife advances every poisoned player's countdown and
// schedules the poison kill when it runs out.
func decrementLife(g *entities.GameState, kills *killSchedule) {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		if p.RemainingLife <= 0 {
			continue
		}
		p.RemainingLife--
		if p.RemainingLife == 0 {
			kills.add(name, entities.KilledPoison, nil)
		}
	}
}

// killSpawnArea advances the spawn-area timers. A character that leaves
// its strip stops counting for good; one that lingers past the
// threshold is killed, the general's death taking the whole player
// with a refund.
func killSpawnArea(g *entities.GameState, data *Data, params *chainparams.ChainParams, kills *killSchedule) {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			c := p.Characters[idx]
			if c.StayInSpawnArea < 0 {
				continue
			}
			if !inSpawnArea(c.Coord, p.Colour) {
				c.StayInSpawnArea = -1
				continue
			}
			c.StayInSpawnArea++
			if c.StayInSpawnArea <= params.SpawnAreaKillThreshold {
				continue
			}
			if idx == 0 {
				if !kills.isScheduled(name) {
					kills.add(name, entities.KilledSpawn, nil)
				}
			} else {
				killCharacter(g, entities.CharacterID{PlayerName: name, Index: idx}, data.Height, false, nil)
			}
		}
	}
}
