package gobsnap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

func TestWriteReadRoundTrip(t *testing.T) {
	g := entities.NewGameState()
	g.Height = 77
	g.GameFund = 12345
	g.HashBlock[5] = 0xEE
	g.Players["alice"] = &entities.PlayerState{
		Colour:             entities.ColourBlue,
		LockedCoins:        1000,
		Characters:         map[uint32]*entities.CharacterState{0: {Coord: geo.Coord{X: 3, Y: 4}, From: geo.Coord{X: 3, Y: 4}, Loot: entities.NewCollectedLoot(), StayInSpawnArea: -1}},
		NextCharacterIndex: 1,
		RemainingLife:      -1,
	}
	g.Banks[geo.Coord{X: 9, Y: 9}] = 7

	path := filepath.Join(t.TempDir(), "state.snap.zst")
	if err := WriteFile(path, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(g, got) {
		t.Fatalf("round trip mismatch:\n in: %+v\nout: %+v", g, got)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.snap.zst")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestReadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.snap.zst")
	if err := os.WriteFile(path, []byte("definitely not zstd"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := ReadFile(path); err == nil {
		t.Fatal("garbage accepted")
	}
}
