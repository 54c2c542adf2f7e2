// Package move decodes the name-update operations carried by a block's
// transactions into validated Move values. Decoding the name script
// itself (the on-chain JSON blob) is a host concern; this package
// consumes the already-decoded NameUpdate and enforces the per-move
// constraints — a move that fails validation is dropped
// silently, never failing the block.
package move

import (
	"errors"
	"regexp"

	"github.com/smartmonsters/alifecore/internal/chainparams"
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

const (
	MaxWaypointsPerCharacter = 30
	MaxChatMessageLen        = 200
	MapMin                   = -2000
	MapMax                   = 2000
)

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9]{26,64}$`)

// ErrInvalidMove is returned by Parse for any constraint violation; the
// caller drops the move; a bad move never fails a block.
var ErrInvalidMove = errors.New("move: invalid")

// SpawnIntent carries a new player's chosen colour and optional initial
// reward address, present only when the move spawns a new name.
type SpawnIntent struct {
	Colour         entities.Colour
	InitialAddress string
}

// Move is one player's validated, decoded command for a step.
type Move struct {
	PlayerName string

	// NewLocked is the new locked-coin amount: the value of the move's
	// name output, which becomes the player's PlayerState.LockedCoins.
	NewLocked int64

	// Waypoints maps character index to its full replacement waypoint
	// list, reversed by Parse into pop-from-back order.
	Waypoints map[uint32][]geo.Coord

	// Destruct is the set of character indices this move self-destructs.
	Destruct map[uint32]bool

	RewardAddress *string
	AdminAddress  *string
	ChatMessage   *string

	Spawn *SpawnIntent
}

// NameUpdate is the decoded shape of a block transaction's name-update
// value, handed in by the host after script/JSON decoding.
type NameUpdate struct {
	PlayerName string
	NewLocked  int64

	Colour         *entities.Colour
	InitialAddress string

	// Waypoints are in travel order; Parse reverses them.
	Waypoints map[uint32][]geo.Coord
	Destruct  map[uint32]bool

	RewardAddress *string
	AdminAddress  *string
	ChatMessage   *string
}

// Parse validates a decoded NameUpdate against the current state,
// height and chain parameters, producing a Move. It returns
// ErrInvalidMove (wrapped with context) for any violated constraint;
// the caller must drop the move rather than propagate the error to
// block validation.
func Parse(u NameUpdate, state *entities.GameState, height int32, params *chainparams.ChainParams) (*Move, error) {
	if !validPlayerName(u.PlayerName) {
		return nil, fail("invalid player name")
	}

	m := &Move{
		PlayerName:    u.PlayerName,
		NewLocked:     u.NewLocked,
		RewardAddress: u.RewardAddress,
		AdminAddress:  u.AdminAddress,
		ChatMessage:   u.ChatMessage,
	}

	if u.RewardAddress != nil && !addressPattern.MatchString(*u.RewardAddress) {
		return nil, fail("invalid reward address")
	}
	if u.AdminAddress != nil && !addressPattern.MatchString(*u.AdminAddress) {
		return nil, fail("invalid admin address")
	}
	if u.ChatMessage != nil && len(*u.ChatMessage) > MaxChatMessageLen {
		return nil, fail("chat message too long")
	}

	_, exists := state.Players[u.PlayerName]

	if u.Colour != nil {
		if exists {
			return nil, fail("spawn move for existing player")
		}
		if !u.Colour.Valid() {
			return nil, fail("invalid colour")
		}
		if u.InitialAddress != "" && !addressPattern.MatchString(u.InitialAddress) {
			return nil, fail("invalid initial address")
		}
		if u.NewLocked < params.NameCoinAmount(height) {
			return nil, fail("insufficient lock for spawn")
		}
		m.Spawn = &SpawnIntent{Colour: *u.Colour, InitialAddress: u.InitialAddress}
	} else if !exists {
		return nil, fail("move for unknown player without spawn")
	}

	if len(u.Waypoints) > 0 {
		m.Waypoints = make(map[uint32][]geo.Coord, len(u.Waypoints))
		for idx, wps := range u.Waypoints {
			if len(wps) > MaxWaypointsPerCharacter {
				return nil, fail("too many waypoints")
			}
			for _, c := range wps {
				if c.X < MapMin || c.X > MapMax || c.Y < MapMin || c.Y > MapMax {
					return nil, fail("waypoint out of bounds")
				}
			}
			cp := make([]geo.Coord, len(wps))
			for i, c := range wps {
				cp[len(wps)-1-i] = c
			}
			m.Waypoints[idx] = cp
		}
	}

	if len(u.Destruct) > 0 {
		m.Destruct = make(map[uint32]bool, len(u.Destruct))
		for idx := range u.Destruct {
			m.Destruct[idx] = true
		}
	}

	return m, nil
}

func fail(why string) error {
	return moveError{msg: why}
}

type moveError struct{ msg string }

func (e moveError) Error() string { return "move: invalid: " + e.msg }

func (e moveError) Unwrap() error { return ErrInvalidMove }

func validPlayerName(name string) bool {
	if len(name) == 0 || len(name) > 32 {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
