package entities

import (
	"testing"

	"github.com/smartmonsters/alifecore/internal/geo"
)

func TestRefundRoundTrip(t *testing.T) {
	c := NewCollectedLoot()
	if c.IsRefund() {
		t.Fatal("empty loot reads as refund")
	}
	c.SetRefund(900, 123)
	if !c.IsRefund() {
		t.Fatal("refund not recognised")
	}
	if c.Amount != 900 {
		t.Errorf("amount = %d, want 900", c.Amount)
	}
	if c.RefundHeight() != 123 {
		t.Errorf("refund height = %d, want 123", c.RefundHeight())
	}
	if c.FirstBlock != -1 || c.LastBlock != -1 {
		t.Errorf("refund must not carry an accumulation range: %+v", c)
	}
}

func TestCollect(t *testing.T) {
	c := NewCollectedLoot()
	c.Collect(LootInfo{Amount: 5, FirstBlock: 10, LastBlock: 12}, 20)
	c.Collect(LootInfo{Amount: 3, FirstBlock: 8, LastBlock: 15}, 22)

	if c.Amount != 8 {
		t.Errorf("amount = %d, want 8", c.Amount)
	}
	if c.FirstBlock != 8 || c.LastBlock != 15 {
		t.Errorf("accumulation range = [%d, %d], want [8, 15]", c.FirstBlock, c.LastBlock)
	}
	if c.CollectedFirstBlock != 20 || c.CollectedLastBlock != 22 {
		t.Errorf("collection range = [%d, %d], want [20, 22]", c.CollectedFirstBlock, c.CollectedLastBlock)
	}
	if c.IsRefund() {
		t.Error("collected loot reads as refund")
	}
}

func TestCollectIgnoresEmptyLoot(t *testing.T) {
	c := NewCollectedLoot()
	c.Collect(LootInfo{Amount: 0, FirstBlock: 1, LastBlock: 1}, 5)
	if c.Amount != 0 || c.CollectedFirstBlock != -1 {
		t.Errorf("empty collect mutated the record: %+v", c)
	}
}

func TestCharacterIDOrdering(t *testing.T) {
	ordered := []CharacterID{
		{PlayerName: "alice", Index: 0},
		{PlayerName: "alice", Index: 3},
		{PlayerName: "bob", Index: 0},
		{PlayerName: "bob", Index: 1},
	}
	for i := 0; i < len(ordered)-1; i++ {
		if !ordered[i].Less(ordered[i+1]) {
			t.Errorf("%v not < %v", ordered[i], ordered[i+1])
		}
	}
}

func TestKillReasonOrdering(t *testing.T) {
	if !(KilledDestruct < KilledSpawn && KilledSpawn < KilledPoison) {
		t.Fatal("kill reason ordering broken: destruct < spawn < poison required")
	}
}

func TestWaypointStack(t *testing.T) {
	c := &CharacterState{}
	if c.HasWaypoints() {
		t.Fatal("fresh character has waypoints")
	}
	c.Waypoints = []geo.Coord{{X: 3, Y: 3}, {X: 2, Y: 2}, {X: 1, Y: 1}}

	next, ok := c.NextWaypoint()
	if !ok || next != (geo.Coord{X: 1, Y: 1}) {
		t.Fatalf("next = %v, want (1,1) from the back", next)
	}
	c.PopWaypoint()
	next, _ = c.NextWaypoint()
	if next != (geo.Coord{X: 2, Y: 2}) {
		t.Fatalf("next after pop = %v, want (2,2)", next)
	}
	c.PopWaypoint()
	c.PopWaypoint()
	if c.HasWaypoints() {
		t.Fatal("waypoints not exhausted")
	}
	c.PopWaypoint() // popping empty is a no-op
}
