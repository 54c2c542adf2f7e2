package snapshot

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

func sampleState() *entities.GameState {
	g := entities.NewGameState()
	g.Height = 1234
	g.DisasterHeight = 1000
	g.GameFund = 987654321
	for i := range g.HashBlock {
		g.HashBlock[i] = byte(i * 7)
	}
	g.CrownPos = geo.Coord{X: -5, Y: 42}
	g.CrownHolder = &entities.CharacterID{PlayerName: "alice", Index: 2}

	alice := &entities.PlayerState{
		Colour:             entities.ColourGreen,
		LockedCoins:        3000000,
		Value:              42,
		Characters:         map[uint32]*entities.CharacterState{},
		NextCharacterIndex: 5,
		RemainingLife:      -1,
		LastChatMessage:    "see you at the bank",
		LastChatBlock:      1230,
		RewardAddress:      "N9zq3pFVBV8ZxYWcF3H7TpWkJd8sAq",
		AdminAddress:       "NAdminAddr000000000000000000xy",
		Ext: entities.ExtendedPlayerFields{
			DungeonLevel: 3,
			VoteWeight:   7,
		},
	}
	alice.Ext.Reserved[0] = 0xAB
	alice.Characters[0] = &entities.CharacterState{
		Coord:           geo.Coord{X: 10, Y: -20},
		Dir:             6,
		From:            geo.Coord{X: 9, Y: -20},
		Waypoints:       []geo.Coord{{X: 15, Y: -20}, {X: 12, Y: -20}},
		Loot:            entities.NewCollectedLoot(),
		StayInSpawnArea: -1,
	}
	ch2 := &entities.CharacterState{
		Coord:           geo.Coord{X: -5, Y: 42},
		Dir:             5,
		From:            geo.Coord{X: -5, Y: 42},
		Loot:            entities.NewCollectedLoot(),
		StayInSpawnArea: -1,
		Ext: entities.ExtendedCharacterFields{
			RPGLevel:  2,
			RPGXP:     999,
			AICounter: 1,
			DAOVotes:  4,
		},
	}
	ch2.Ext.Reserved[15] = 0xCD
	ch2.Loot.Collect(entities.LootInfo{Amount: 77, FirstBlock: 1200, LastBlock: 1210}, 1220)
	alice.Characters[2] = ch2
	g.Players["alice"] = alice

	bob := &entities.PlayerState{
		Colour:             entities.ColourRed,
		LockedCoins:        1000000,
		Characters:         map[uint32]*entities.CharacterState{0: {Loot: entities.NewCollectedLoot(), StayInSpawnArea: 3}},
		NextCharacterIndex: 1,
		RemainingLife:      5,
	}
	g.Players["bob"] = bob

	g.DeadPlayersChat["charlie"] = "avenge me"
	g.DeadPlayersChat["dora"] = "the bank was a trap"

	g.Loot[geo.Coord{X: 0, Y: 0}] = entities.LootInfo{Amount: 500, FirstBlock: 10, LastBlock: 900}
	g.Loot[geo.Coord{X: -3, Y: 8}] = entities.LootInfo{Amount: 1, FirstBlock: 1233, LastBlock: 1233}
	g.Hearts[geo.Coord{X: 100, Y: 100}] = struct{}{}
	g.Banks[geo.Coord{X: 50, Y: 50}] = 17
	g.Banks[geo.Coord{X: -50, Y: -50}] = 3

	return g
}

func TestRoundTrip(t *testing.T) {
	g := sampleState()

	var buf bytes.Buffer
	if err := EncodeGameState(&buf, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeGameState(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(g, got) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", g, got)
	}
}

func TestEncodingIsCanonical(t *testing.T) {
	g := sampleState()

	var b1, b2 bytes.Buffer
	if err := EncodeGameState(&b1, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := EncodeGameState(&b2, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Fatal("two encodings of the same state differ")
	}

	// And via a decode in between.
	decoded, err := DecodeGameState(bytes.NewReader(b1.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var b3 bytes.Buffer
	if err := EncodeGameState(&b3, decoded); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(b1.Bytes(), b3.Bytes()) {
		t.Fatal("decode/encode is not byte-stable")
	}
}

func TestEmptyStateRoundTrip(t *testing.T) {
	g := entities.NewGameState()

	var buf bytes.Buffer
	if err := EncodeGameState(&buf, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeGameState(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(g, got) {
		t.Fatal("empty state round trip mismatch")
	}
}

func TestBadMagicRejected(t *testing.T) {
	if _, err := DecodeGameState(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7})); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestTruncatedInputRejected(t *testing.T) {
	g := sampleState()
	var buf bytes.Buffer
	if err := EncodeGameState(&buf, g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	b := buf.Bytes()
	if _, err := DecodeGameState(bytes.NewReader(b[:len(b)/2])); err == nil {
		t.Fatal("truncated snapshot accepted")
	}
}
