package step

import (
	"sort"

	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
	"github.com/smartmonsters/alifecore/internal/rng"
)

// addLoot merges an amount into the loot pile on a tile, widening the
// accumulation range.
func addLoot(g *entities.GameState, c geo.Coord, amount int64, height int32) {
	if amount <= 0 {
		return
	}
	li, ok := g.Loot[c]
	if !ok {
		g.Loot[c] = entities.LootInfo{Amount: amount, FirstBlock: height, LastBlock: height}
		return
	}
	li.Amount += amount
	if height < li.FirstBlock {
		li.FirstBlock = height
	}
	if height > li.LastBlock {
		li.LastBlock = height
	}
	g.Loot[c] = li
}

// updateCrown moves the crown with its holder and hands a free crown to
// a character standing on its tile. Ties between several candidates on
// the tile are broken by the step RNG, not input order.
func updateCrown(g *entities.GameState, r *rng.State) {
	if h := g.CrownHolder; h != nil {
		p, ok := g.Players[h.PlayerName]
		if ok {
			if c, ok := p.Characters[h.Index]; ok {
				g.CrownPos = c.Coord
			} else {
				g.CrownHolder = nil
			}
		} else {
			g.CrownHolder = nil
		}
	}
	if g.CrownHolder != nil {
		return
	}

	var candidates []entities.CharacterID
	for _, ch := range liveCharacters(g) {
		if ch.Protected {
			continue
		}
		if ch.Coord == g.CrownPos {
			candidates = append(candidates, ch.ID)
		}
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[0]
	if len(candidates) > 1 {
		pick = candidates[r.NextRange(uint32(len(candidates)))]
	}
	g.CrownHolder = &pick
}

// dropTreasure brings the step's share of the block subsidy into the
// game: the crown holder takes its bonus straight into carried loot,
// the rest lands on a random map tile.
func dropTreasure(g *entities.GameState, data *Data, r *rng.State) {
	treasure := data.BlockSubsidy / treasureDivisor
	if treasure <= 0 {
		return
	}
	if h := g.CrownHolder; h != nil {
		bonus := treasure * crownBonusPermille / 1000
		if bonus > 0 {
			c := g.Players[h.PlayerName].Characters[h.Index]
			c.Loot.Collect(entities.LootInfo{Amount: bonus, FirstBlock: data.Height, LastBlock: data.Height}, data.Height)
			treasure -= bonus
		}
	}
	addLoot(g, randomMapTile(r), treasure, data.Height)
}

// collectLoot lets every character on a loot tile pick up coins, up to
// its carrying capacity post life-steal fork. The remainder stays on
// the map for the next visitor.
func collectLoot(g *entities.GameState, data *Data, sc *scratch) {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			c := p.Characters[idx]
			li, ok := g.Loot[c.Coord]
			if !ok || li.Amount <= 0 {
				continue
			}
			take := li.Amount
			if sc.lifeSteal {
				room := carryCapacityUnits*sc.unit - c.Loot.Amount
				if room <= 0 {
					continue
				}
				if take > room {
					take = room
				}
			}
			c.Loot.Collect(entities.LootInfo{Amount: take, FirstBlock: li.FirstBlock, LastBlock: li.LastBlock}, data.Height)
			li.Amount -= take
			if li.Amount == 0 {
				delete(g.Loot, c.Coord)
			} else {
				g.Loot[c.Coord] = li
			}
		}
	}
}

// bankLoot converts carried loot into a paid bounty for every character
// standing on a bank. The player's current reward address is captured
// with the bounty so the payout can still be built if the player dies
// before the transaction does.
func bankLoot(g *entities.GameState, data *Data, result *entities.StepResult) {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			c := p.Characters[idx]
			if _, bank := g.Banks[c.Coord]; !bank {
				continue
			}
			if c.Loot.Amount <= 0 {
				continue
			}
			result.Bounties = append(result.Bounties, entities.CollectedBounty{
				Player:       name,
				CharacterIdx: idx,
				Loot:         c.Loot,
				Address:      p.RewardAddress,
			})
			c.Loot = entities.NewCollectedLoot()
		}
	}
}

// finaliseKills removes every scheduled victim from the state, handles
// its coins per the first (lowest-ordered) kill reason, and records the
// result. Victims are processed in canonical name order.
func finaliseKills(g *entities.GameState, data *Data, params *chainparams.ChainParams, kills *killSchedule, result *entities.StepResult) error {
	victims := make([]string, 0, len(kills.byPlayer))
	for name := range kills.byPlayer {
		victims = append(victims, name)
	}
	sort.Strings(victims)

	poisonRefund := params.ForkInEffect(chainparams.ForkPoisonRefund, data.Height)

	for _, victim := range victims {
		p, ok := g.Players[victim]
		if !ok {
			return fatalf("scheduled kill for unknown player %s", victim)
		}

		reasons := append([]entities.KilledByInfo(nil), kills.byPlayer[victim]...)
		sort.SliceStable(reasons, func(i, j int) bool { return reasons[i].Reason < reasons[j].Reason })
		first := reasons[0].Reason

		canRefund := first == entities.KilledSpawn ||
			(first == entities.KilledPoison && poisonRefund)

		for _, idx := range sortedCharIndices(p) {
			c := p.Characters[idx]
			if idx == 0 {
				switch {
				case canRefund:
					loot := entities.NewCollectedLoot()
					loot.SetRefund(p.LockedCoins, data.Height)
					result.Bounties = append(result.Bounties, entities.CollectedBounty{
						Player:  victim,
						Loot:    loot,
						Address: p.RewardAddress,
					})
					addLoot(g, c.Coord, p.Value, data.Height)
					dropCarried(g, c, first, poisonRefund, data.Height, &result.TaxAmount)
				case first == entities.KilledDestruct:
					total := p.LockedCoins + p.Value + c.Loot.Amount
					tax := total / deathTaxDivisor
					result.TaxAmount += tax
					addLoot(g, c.Coord, total-tax, data.Height)
				default: // poison, pre-refund fork
					g.GameFund += p.LockedCoins + p.Value + c.Loot.Amount
				}
			} else {
				dropCarried(g, c, first, poisonRefund, data.Height, &result.TaxAmount)
			}
			if h := g.CrownHolder; h != nil && h.PlayerName == victim && h.Index == idx {
				g.CrownHolder = nil
				g.CrownPos = c.Coord
			}
		}

		if p.LastChatMessage != "" {
			g.DeadPlayersChat[victim] = p.LastChatMessage
		}
		delete(g.Players, victim)

		result.KilledPlayers = append(result.KilledPlayers, victim)
		result.KilledBy[victim] = reasons
	}
	return nil
}

// dropCarried handles a dying character's carried loot: destruct drops
// it taxed, poison pre-refund forfeits it to the fund, everything else
// drops it whole.
func dropCarried(g *entities.GameState, c *entities.CharacterState, reason entities.KillReason, poisonRefund bool, height int32, taxSink *int64) {
	if c.Loot.Amount <= 0 {
		return
	}
	switch {
	case reason == entities.KilledDestruct:
		tax := c.Loot.Amount / deathTaxDivisor
		*taxSink += tax
		addLoot(g, c.Coord, c.Loot.Amount-tax, height)
	case reason == entities.KilledPoison && !poisonRefund:
		g.GameFund += c.Loot.Amount
	default:
		addLoot(g, c.Coord, c.Loot.Amount, height)
	}
	c.Loot = entities.NewCollectedLoot()
}

// updateBanks ages every bank one block, retires the expired ones and
// spawns replacements on random tiles off the spawn strips so the total
// stays constant.
func updateBanks(g *entities.GameState, r *rng.State) {
	for _, c := range sortedBankCoords(g) {
		life := g.Banks[c] - 1
		if life <= 0 {
			delete(g.Banks, c)
		} else {
			g.Banks[c] = life
		}
	}
	for len(g.Banks) < bankCount {
		c := randomMapTile(r)
		if onAnySpawnStrip(c) {
			continue
		}
		if _, taken := g.Banks[c]; taken {
			continue
		}
		g.Banks[c] = bankLifeMin + int32(r.NextRange(bankLifeRange))
	}
}

// updateHearts runs the pre-fork hearts mechanic: a rare random heart
// spawn, pickups that grant an extra character, and the one-shot purge
// of every spawned character at the fork height itself.
func updateHearts(g *entities.GameState, data *Data, params *chainparams.ChainParams, sc *scratch, r *rng.State) {
	if sc.heartsRemoved {
		if !params.ForkInEffect(chainparams.ForkHeartsRemoved, data.Height-1) {
			removeHeartedCharacters(g, data)
		}
		return
	}

	if r.NextRange(heartSpawnChance) == 0 {
		c := randomMapTile(r)
		if !onAnySpawnStrip(c) {
			g.Hearts[c] = struct{}{}
		}
	}

	heartCoords := make([]geo.Coord, 0, len(g.Hearts))
	for c := range g.Hearts {
		heartCoords = append(heartCoords, c)
	}
	sort.Slice(heartCoords, func(i, j int) bool { return heartCoords[i].Less(heartCoords[j]) })

	for _, hc := range heartCoords {
		var candidates []entities.CharacterID
		for _, ch := range liveCharacters(g) {
			if ch.Coord != hc {
				continue
			}
			if len(g.Players[ch.ID.PlayerName].Characters) >= maxCharactersPerPlayer {
				continue
			}
			candidates = append(candidates, ch.ID)
		}
		if len(candidates) == 0 {
			continue
		}
		pick := candidates[0]
		if len(candidates) > 1 {
			pick = candidates[r.NextRange(uint32(len(candidates)))]
		}
		p := g.Players[pick.PlayerName]
		nc := &entities.CharacterState{Coord: hc, From: hc, Loot: entities.NewCollectedLoot()}
		p.Characters[p.NextCharacterIndex] = nc
		p.NextCharacterIndex++
		delete(g.Hearts, hc)
	}
}

// removeHeartedCharacters is the one-shot cleanup at the hearts-removal
// fork height: every spawned (non-general) character leaves the map,
// dropping carried loot, and all remaining hearts vanish.
func removeHeartedCharacters(g *entities.GameState, data *Data) {
	for _, name := range sortedPlayerNames(g) {
		p := g.Players[name]
		for _, idx := range sortedCharIndices(p) {
			if idx == 0 {
				continue
			}
			killCharacter(g, entities.CharacterID{PlayerName: name, Index: idx}, data.Height, false, nil)
		}
	}
	g.Hearts = map[geo.Coord]struct{}{}
}

// randomMapTile draws a uniform tile from the playable square.
func randomMapTile(r *rng.State) geo.Coord {
	side := uint32(2*mapHalfExtent + 1)
	return geo.Coord{
		X: int32(r.NextRange(side)) - mapHalfExtent,
		Y: int32(r.NextRange(side)) - mapHalfExtent,
	}
}

func onAnySpawnStrip(c geo.Coord) bool {
	for colour := entities.ColourRed; colour <= entities.ColourBlue; colour++ {
		if inSpawnArea(c, colour) {
			return true
		}
	}
	return false
}
