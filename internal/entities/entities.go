// Package entities defines the value types that make up a GameState:
// players, characters, loot, bounties and the per-step result the
// engine hands back to the host. Every type here is a plain value type
// with a canonical field layout (see internal/snapshot for the binary
// codec) — none of them own goroutines, channels or I/O.
package entities

import "github.com/smartmonsters/alifecore/internal/geo"

// Colour is one of the four team colours a player spawns under.
type Colour uint8

const (
	ColourRed Colour = iota
	ColourYellow
	ColourGreen
	ColourBlue
)

func (c Colour) Valid() bool { return c <= ColourBlue }

// CharacterID identifies a character by its owning player's name and
// its index within that player. Index 0 is always the "general"; other
// indices are spawned characters.
type CharacterID struct {
	PlayerName string
	Index      uint32
}

// Less gives the canonical ordering over character ids: player name
// lexicographic, then index ascending.
func (id CharacterID) Less(o CharacterID) bool {
	if id.PlayerName != o.PlayerName {
		return id.PlayerName < o.PlayerName
	}
	return id.Index < o.Index
}

// KillReason orders simultaneous kill reasons for the same victim;
// numeric order is DESTRUCT < SPAWN < POISON and is consensus.
type KillReason uint8

const (
	KilledDestruct KillReason = 0
	KilledSpawn    KillReason = 1
	KilledPoison   KillReason = 2
)

// LootInfo describes an accumulation of coins sitting on a map tile.
type LootInfo struct {
	Amount      int64
	FirstBlock  int32
	LastBlock   int32
}

// CollectedLootInfo is loot a character is carrying (or, as a refund
// variant, loot scheduled to be paid back to a killed player's name).
// A refund has CollectedFirstBlock == -1 and Amount > 0.
type CollectedLootInfo struct {
	LootInfo
	CollectedFirstBlock int32
	CollectedLastBlock  int32
}

// NewCollectedLoot returns an empty carried-loot record with all block
// markers at -1, the canonical "nothing collected yet" value.
func NewCollectedLoot() CollectedLootInfo {
	return CollectedLootInfo{
		LootInfo:            LootInfo{FirstBlock: -1, LastBlock: -1},
		CollectedFirstBlock: -1,
		CollectedLastBlock:  -1,
	}
}

// IsRefund reports whether this collected-loot record encodes a
// spawn-kill refund payout rather than ordinary banked loot.
func (c CollectedLootInfo) IsRefund() bool {
	return c.CollectedFirstBlock == -1 && c.Amount > 0
}

// SetRefund turns c into a refund payout of amount, per KILLED_SPAWN /
// post-fork KILLED_POISON handling. Only the amount and the refunding
// block height are set; the accumulation range stays at -1, which is
// what distinguishes a refund from banked loot on the wire.
func (c *CollectedLootInfo) SetRefund(amount int64, height int32) {
	c.Amount = amount
	c.CollectedFirstBlock = -1
	c.CollectedLastBlock = height
}

// RefundHeight returns the block height of a refund payout.
func (c CollectedLootInfo) RefundHeight() int32 { return c.CollectedLastBlock }

// Collect merges map loot into carried loot, widening the accumulation
// and collection block ranges.
func (c *CollectedLootInfo) Collect(loot LootInfo, height int32) {
	if loot.Amount <= 0 {
		return
	}
	c.Amount += loot.Amount
	if c.FirstBlock < 0 || loot.FirstBlock < c.FirstBlock {
		c.FirstBlock = loot.FirstBlock
	}
	if loot.LastBlock > c.LastBlock {
		c.LastBlock = loot.LastBlock
	}
	if c.CollectedFirstBlock < 0 {
		c.CollectedFirstBlock = height
	}
	c.CollectedLastBlock = height
}

// ExtendedCharacterFields carries the aux_*/rpg_*/ai_*/dao_*/reserve
// counters that are part of the snapshot layout but have no live
// transition rules in the current passes. They round-trip
// byte-for-byte through snapshot encode/decode and are never
// interpreted by the step engine.
type ExtendedCharacterFields struct {
	RPGLevel    int32
	RPGXP       int64
	AICounter   int32
	DAOVotes    int32
	Reserved    [16]byte
}

// CharacterState is one character (general or spawned) belonging to a
// player.
type CharacterState struct {
	Coord geo.Coord

	// Dir is the numpad-encoded direction of the character's last move
	// (1-9, 5 = stationary), used by presentation layers only.
	Dir uint8

	// From is the straight-line source of the current movement segment.
	From geo.Coord

	// Waypoints is a reverse-ordered list: the next target is the last
	// element. Popped from the back as each is reached.
	Waypoints []geo.Coord

	Loot CollectedLootInfo

	// StayInSpawnArea counts consecutive steps the character has spent
	// on its colour's spawn strip; once it exceeds the chain's spawn-area
	// threshold a KILLED_SPAWN kill is scheduled. -1 means the character
	// has left the strip and the count no longer runs.
	StayInSpawnArea int32

	Ext ExtendedCharacterFields
}

// HasWaypoints reports whether the character has anywhere left to move.
func (c *CharacterState) HasWaypoints() bool { return len(c.Waypoints) > 0 }

// NextWaypoint returns the character's current target, the last element
// of the reverse-ordered list.
func (c *CharacterState) NextWaypoint() (geo.Coord, bool) {
	if len(c.Waypoints) == 0 {
		return geo.Coord{}, false
	}
	return c.Waypoints[len(c.Waypoints)-1], true
}

// PopWaypoint removes the current target once reached.
func (c *CharacterState) PopWaypoint() {
	if len(c.Waypoints) == 0 {
		return
	}
	c.Waypoints = c.Waypoints[:len(c.Waypoints)-1]
}

// ExtendedPlayerFields carries the voting/bounty/dungeon-level and
// reserve fields serialized alongside PlayerState.
// Same opaque-carry posture as ExtendedCharacterFields.
type ExtendedPlayerFields struct {
	DungeonLevel int32
	VoteWeight   int32
	Reserved     [16]byte
}

// PlayerState is the per-player in-game record.
type PlayerState struct {
	Colour Colour

	// LockedCoins is the name output value caching the coin prevout;
	// post life-steal fork this doubles as the player's health pool.
	LockedCoins int64

	// Value is the player's banked (spendable) in-game balance.
	Value int64

	Characters         map[uint32]*CharacterState
	NextCharacterIndex  uint32

	// RemainingLife: -1 = not poisoned, >0 = blocks remaining until
	// death, 0 is forbidden (a poisoned player at 0 must already have
	// been killed and removed in the same step).
	RemainingLife int32

	LastChatMessage string
	LastChatBlock   int32

	RewardAddress string
	AdminAddress  string

	Ext ExtendedPlayerFields
}

// KilledByInfo records one reason (and, for a destruct, the killers)
// that a player died this step.
type KilledByInfo struct {
	Reason  KillReason
	Killers []CharacterID // populated only for KilledDestruct, sorted by CharacterID
}

// CollectedBounty is a payout a step produced, to be realised as a
// bounty-transaction output by the game-tx builder. Address is the
// player's reward address captured when the bounty was created, so the
// paying transaction can still be constructed after the player is gone
// (killed by a disaster, say); empty means pay to the name's own
// address from the coin view.
type CollectedBounty struct {
	Player       string
	CharacterIdx uint32
	Loot         CollectedLootInfo
	Address      string
}

// IsRefund reports whether this bounty is a spawn/poison-kill refund.
func (b CollectedBounty) IsRefund() bool { return b.Loot.IsRefund() }

// StepResult is everything PerformStep produces besides the new
// GameState: who died and why, what got paid out, and how much was
// taxed away by destruct kills.
type StepResult struct {
	KilledPlayers []string // sorted lexicographically

	// KilledBy maps a killed player to its reasons, each entry ordered
	// by KillReason ascending (DESTRUCT < SPAWN < POISON); the first
	// entry dictates the game-tx reason for that player.
	KilledBy map[string][]KilledByInfo

	Bounties []CollectedBounty

	TaxAmount int64
}

// GameState is the full deterministic game snapshot at a height.
type GameState struct {
	Players map[string]*PlayerState

	// DeadPlayersChat is transient: populated only within the step that
	// killed a player with a pending chat message, for JSON exposure of
	// "last words"; it must be empty on entry to PerformStep and empty
	// on exit unless this step killed chatty players.
	DeadPlayersChat map[string]string

	Loot  map[geo.Coord]LootInfo
	Hearts map[geo.Coord]struct{}
	Banks  map[geo.Coord]int32 // coordinate -> remaining life in blocks

	CrownPos    geo.Coord
	CrownHolder *CharacterID

	GameFund int64

	// Height is -1 before genesis, 0 at genesis.
	Height int32

	// DisasterHeight is the height of the last disaster, or -1 if none
	// has happened yet.
	DisasterHeight int32

	// HashBlock is the hash of the block whose moves produced this
	// state.
	HashBlock [32]byte
}

// NewGameState returns the empty pre-genesis state.
func NewGameState() *GameState {
	return &GameState{
		Players:         map[string]*PlayerState{},
		DeadPlayersChat: map[string]string{},
		Loot:            map[geo.Coord]LootInfo{},
		Hearts:          map[geo.Coord]struct{}{},
		Banks:           map[geo.Coord]int32{},
		Height:          -1,
		DisasterHeight:  -1,
	}
}
