// Package attack implements the CharactersOnTiles spatial index and the
// attack-resolution pass: apply the destruct attacks carried by the
// block's moves, cancel mutual attacks, deduct life and hand the drawn
// life back to the surviving attackers.
package attack

import (
	"sort"

	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
	"github.com/smartmonsters/alifecore/internal/rng"
)

// Character is the minimal view the index needs of a live character;
// the step engine constructs these from GameState after movement.
type Character struct {
	ID        entities.CharacterID
	Colour    entities.Colour
	Coord     geo.Coord
	Protected bool // spawn-area immunity: cannot attack or be attacked
}

type attackable struct {
	Character
	drawnLife int64
	attackers map[entities.CharacterID]bool
}

// Tiles is the lazy spatial index. It is built on the first call to
// ApplyAttacks and discarded at the end of the step; it has no lifetime
// beyond one PerformStep call.
type Tiles struct {
	built  bool
	byTile map[geo.Coord][]*attackable
	byID   map[entities.CharacterID]*attackable
}

// NewTiles returns an empty, unbuilt index.
func NewTiles() *Tiles {
	return &Tiles{}
}

func (t *Tiles) ensureBuilt(chars []Character) {
	if t.built {
		return
	}
	t.byTile = make(map[geo.Coord][]*attackable)
	t.byID = make(map[entities.CharacterID]*attackable, len(chars))
	for _, c := range chars {
		a := &attackable{Character: c, attackers: map[entities.CharacterID]bool{}}
		t.byID[c.ID] = a
		t.byTile[c.Coord] = append(t.byTile[c.Coord], a)
	}
	t.built = true
}

// ApplyAttacks builds the index on first use, then performs the attacks
// commanded by the block's moves: every destructing character attacks
// all distinct-coloured characters within Chebyshev distance 1 of its
// tile, and also registers itself as its own attacker (the destruct's
// self-effect). chars is the canonically-ordered list of all live
// characters this step; destructors the canonically-ordered subset that
// issued a destruct.
func (t *Tiles) ApplyAttacks(chars []Character, destructors []entities.CharacterID) {
	t.ensureBuilt(chars)
	for _, id := range destructors {
		a, ok := t.byID[id]
		if !ok || a.Protected {
			continue
		}
		a.attackers[id] = true
		for _, n := range geo.Neighbours8(a.Coord) {
			for _, target := range t.byTile[n] {
				if target.Protected {
					continue
				}
				if target.Colour == a.Colour {
					continue
				}
				target.attackers[id] = true
			}
		}
	}
}

// ApplyRangedAttacks is the ranged counterpart of ApplyAttacks: every
// destructing character attacks the distinct-coloured characters at
// Chebyshev distance exactly 2. Used for the post-fork ranged round,
// which runs on its own Tiles instance after the melee round resolves.
func (t *Tiles) ApplyRangedAttacks(chars []Character, destructors []entities.CharacterID) {
	t.ensureBuilt(chars)
	for _, id := range destructors {
		a, ok := t.byID[id]
		if !ok || a.Protected {
			continue
		}
		for _, n := range geo.Ring2(a.Coord) {
			for _, target := range t.byTile[n] {
				if target.Protected {
					continue
				}
				if target.Colour == a.Colour {
					continue
				}
				target.attackers[id] = true
			}
		}
	}
}

// DefendMutualAttacks cancels mutual attacks: if A attacks B and B
// attacks A, both are removed from each other's attacker sets. A
// destruct's self-attack is trivially mutual and is parried the same
// way, so post-fork a destruct that only meets defenders costs nothing.
// Only called post life-steal fork.
func (t *Tiles) DefendMutualAttacks() {
	for _, id := range t.sortedIDs() {
		a := t.byID[id]
		for _, attackerID := range sortedAttackers(a.attackers) {
			other, ok := t.byID[attackerID]
			if !ok {
				continue
			}
			if other.attackers[id] {
				delete(a.attackers, attackerID)
				delete(other.attackers, id)
			}
		}
	}
}

// Outcome is what happened to one attacked character this step.
type Outcome struct {
	Victim       entities.CharacterID
	Killed       bool
	AllAttackers []entities.CharacterID // canonically sorted, for KilledByInfo
	DrawnUnits   map[entities.CharacterID]int64
	TotalDrawn   int64
}

// DrawLife resolves every attacked character's attacker set. Pre
// life-steal fork any attacker kills instantly. Post-fork each attacker
// draws one NameCoinAmount unit from the owning player's lockedCoins;
// when fewer units are available than attackers, the paid attackers are
// chosen by a deterministic RNG shuffle, and the character is scheduled
// for kill once the remaining lock drops below one unit. lockedCoinsOf
// must return the current lockedCoins of the player owning a character;
// the step engine applies the deductions and credits after this
// returns, since Tiles has no access to PlayerState itself.
func (t *Tiles) DrawLife(
	height int32,
	params *chainparams.ChainParams,
	rngState *rng.State,
	lockedCoinsOf func(entities.CharacterID) int64,
) []Outcome {
	lifeSteal := params.ForkInEffect(chainparams.ForkLifeSteal, height)

	// Post-fork, multiple characters of one player can be attacked in
	// the same step; they all drain the same lock, so track the running
	// remainder per player.
	remainingLock := map[string]int64{}

	var out []Outcome
	for _, id := range t.sortedIDs() {
		a := t.byID[id]
		if len(a.attackers) == 0 {
			continue
		}
		attackers := sortedAttackers(a.attackers)

		if !lifeSteal {
			out = append(out, Outcome{Victim: id, Killed: true, AllAttackers: attackers})
			continue
		}

		unit := params.NameCoinAmount(height)
		locked, seen := remainingLock[id.PlayerName]
		if !seen {
			locked = lockedCoinsOf(id)
		}
		capacity := locked / unit
		paidCount := int64(len(attackers))
		if paidCount > capacity {
			paidCount = capacity
		}

		shuffled := append([]entities.CharacterID(nil), attackers...)
		if int64(len(attackers)) > capacity {
			rng.Shuffle(rngState, shuffled)
		}

		drawn := make(map[entities.CharacterID]int64, paidCount)
		for i := int64(0); i < paidCount; i++ {
			drawn[shuffled[i]] += unit
		}
		a.drawnLife = paidCount * unit
		remainingLock[id.PlayerName] = locked - a.drawnLife

		out = append(out, Outcome{
			Victim:       id,
			Killed:       locked-a.drawnLife < unit,
			AllAttackers: attackers,
			DrawnUnits:   drawn,
			TotalDrawn:   a.drawnLife,
		})
	}
	return out
}

// DistributeDrawnLife pools the per-attacker draws of the given
// outcomes (one attack round) into a single attacker ->
// total-value-gained map; the caller iterates it in canonical
// attacker-id order.
func DistributeDrawnLife(outcomes []Outcome) map[entities.CharacterID]int64 {
	pool := map[entities.CharacterID]int64{}
	for _, o := range outcomes {
		for attacker, amount := range o.DrawnUnits {
			pool[attacker] += amount
		}
	}
	return pool
}

func (t *Tiles) sortedIDs() []entities.CharacterID {
	ids := make([]entities.CharacterID, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

func sortedAttackers(set map[entities.CharacterID]bool) []entities.CharacterID {
	ids := make([]entities.CharacterID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
