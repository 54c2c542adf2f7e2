package attack

import (
	"fmt"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
	"github.com/smartmonsters/alifecore/internal/rng"
)

const paramsYAML = `
kind: regtest
subsidy_halving_interval: 150
initial_subsidy: 0
pow_target_spacing: 1
name_coin_amount_schedule:
  - activation_height: 0
    amount: 3
spawn_area_kill_threshold: 2
disaster_base_probability_permille: 0
poison_life_blocks: 2
forks:
  life_steal: %s
  poison_refund: 0
  melee_ranged: 1000000
  hearts_removed: 0
`

func loadParams(t *testing.T, lifeStealHeight string) *chainparams.ChainParams {
	t.Helper()
	yaml := fmt.Sprintf(paramsYAML, lifeStealHeight)
	fsys := fstest.MapFS{"p.yaml": &fstest.MapFile{Data: []byte(yaml)}}
	p, err := chainparams.LoadFile(fsys, "p.yaml")
	if err != nil {
		t.Fatalf("load params: %v", err)
	}
	return p
}

func id(name string) entities.CharacterID {
	return entities.CharacterID{PlayerName: name}
}

func TestMutualAttacksCancel(t *testing.T) {
	params := loadParams(t, "0")
	chars := []Character{
		{ID: id("a"), Colour: entities.ColourRed, Coord: geo.Coord{X: 0, Y: 0}},
		{ID: id("b"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 0, Y: 1}},
	}
	tiles := NewTiles()
	tiles.ApplyAttacks(chars, []entities.CharacterID{id("a"), id("b")})
	tiles.DefendMutualAttacks()

	r := rng.Seed([]byte{1}, 10)
	outcomes := tiles.DrawLife(10, params, &r, func(entities.CharacterID) int64 { return 3 })
	if len(outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none after mutual cancellation", outcomes)
	}
}

func TestSelfAttackIsParriedPostFork(t *testing.T) {
	params := loadParams(t, "0")
	chars := []Character{
		{ID: id("lone"), Colour: entities.ColourRed, Coord: geo.Coord{X: 5, Y: 5}},
	}
	tiles := NewTiles()
	tiles.ApplyAttacks(chars, []entities.CharacterID{id("lone")})
	tiles.DefendMutualAttacks()

	r := rng.Seed([]byte{1}, 10)
	outcomes := tiles.DrawLife(10, params, &r, func(entities.CharacterID) int64 { return 3 })
	if len(outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none (self-attack parried)", outcomes)
	}
}

func TestPreForkDestructKillsSelf(t *testing.T) {
	params := loadParams(t, "1000000")
	chars := []Character{
		{ID: id("bomber"), Colour: entities.ColourRed, Coord: geo.Coord{X: 5, Y: 5}},
	}
	tiles := NewTiles()
	tiles.ApplyAttacks(chars, []entities.CharacterID{id("bomber")})
	// No DefendMutualAttacks pre-fork.

	r := rng.Seed([]byte{1}, 10)
	outcomes := tiles.DrawLife(10, params, &r, func(entities.CharacterID) int64 { return 100 })
	if len(outcomes) != 1 || !outcomes[0].Killed {
		t.Fatalf("outcomes = %+v, want bomber killed instantly", outcomes)
	}
	if outcomes[0].TotalDrawn != 0 {
		t.Errorf("pre-fork drawn = %d, want 0", outcomes[0].TotalDrawn)
	}
}

func TestDrawLifeKillAndCredit(t *testing.T) {
	params := loadParams(t, "0")
	chars := []Character{
		{ID: id("victim"), Colour: entities.ColourRed, Coord: geo.Coord{X: 0, Y: 0}},
		{ID: id("a1"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 0, Y: 1}},
		{ID: id("a2"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 1, Y: 0}},
		{ID: id("a3"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 1, Y: 1}},
	}
	tiles := NewTiles()
	tiles.ApplyAttacks(chars, []entities.CharacterID{id("a1"), id("a2"), id("a3")})
	tiles.DefendMutualAttacks()

	r := rng.Seed([]byte{1}, 10)
	outcomes := tiles.DrawLife(10, params, &r, func(cid entities.CharacterID) int64 {
		if cid.PlayerName == "victim" {
			return 9
		}
		return 3
	})
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outcomes))
	}
	o := outcomes[0]
	if o.Victim != id("victim") || !o.Killed {
		t.Fatalf("outcome = %+v, want victim killed", o)
	}
	if o.TotalDrawn != 9 {
		t.Errorf("drawn = %d, want 9", o.TotalDrawn)
	}
	want := []entities.CharacterID{id("a1"), id("a2"), id("a3")}
	if !reflect.DeepEqual(o.AllAttackers, want) {
		t.Errorf("attackers = %v, want %v", o.AllAttackers, want)
	}

	pool := DistributeDrawnLife(outcomes)
	for _, a := range want {
		if pool[a] != 3 {
			t.Errorf("%s drew %d, want 3", a.PlayerName, pool[a])
		}
	}
}

func TestDrawLifeShufflesWhenOversubscribed(t *testing.T) {
	params := loadParams(t, "0")
	chars := []Character{
		{ID: id("victim"), Colour: entities.ColourRed, Coord: geo.Coord{X: 0, Y: 0}},
		{ID: id("a1"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 0, Y: 1}},
		{ID: id("a2"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 1, Y: 0}},
		{ID: id("a3"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 1, Y: 1}},
	}
	destructors := []entities.CharacterID{id("a1"), id("a2"), id("a3")}

	run := func() map[entities.CharacterID]int64 {
		tiles := NewTiles()
		tiles.ApplyAttacks(chars, destructors)
		tiles.DefendMutualAttacks()
		r := rng.Seed([]byte{7, 7, 7}, 42)
		outcomes := tiles.DrawLife(42, params, &r, func(cid entities.CharacterID) int64 {
			if cid.PlayerName == "victim" {
				return 5 // one unit only: three attackers fight over it
			}
			return 3
		})
		return DistributeDrawnLife(outcomes)
	}

	p1 := run()
	p2 := run()
	if !reflect.DeepEqual(p1, p2) {
		t.Fatal("oversubscribed draw is not deterministic")
	}
	var total int64
	for _, v := range p1 {
		total += v
	}
	if total != 3 {
		t.Errorf("total drawn = %d, want one unit (3)", total)
	}
}

func TestProtectedCharactersNeitherAttackNorSuffer(t *testing.T) {
	params := loadParams(t, "0")
	chars := []Character{
		{ID: id("safe"), Colour: entities.ColourRed, Coord: geo.Coord{X: 0, Y: 0}, Protected: true},
		{ID: id("raider"), Colour: entities.ColourYellow, Coord: geo.Coord{X: 0, Y: 1}},
	}
	tiles := NewTiles()
	tiles.ApplyAttacks(chars, []entities.CharacterID{id("safe"), id("raider")})
	tiles.DefendMutualAttacks()

	r := rng.Seed([]byte{1}, 10)
	outcomes := tiles.DrawLife(10, params, &r, func(entities.CharacterID) int64 { return 3 })
	if len(outcomes) != 0 {
		t.Fatalf("outcomes = %+v, want none involving protected characters", outcomes)
	}
}
