// Package snapshot implements the canonical binary encoding of a
// GameState: the on-disk-only layout used for snapshots. Field order
// and width are fixed; reserved fields are written as zeros and
// preserved verbatim on read so a forward-rolling upgrade that adds new
// reserved bytes doesn't desynchronize older readers mid-migration.
//
// This is hand-rolled on encoding/binary rather than a third-party
// serialization library: the contract is "bit-for-bit identical across
// every node, forever", which is exactly what a
// generic reflection-based encoder (gob, protobuf-without-a-fixed-wire-
// schema, msgpack) does not guarantee across struct field reordering or
// library-version drift. See DESIGN.md.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

const magic uint32 = 0x48544347 // "HTCG"
const version uint16 = 1

func EncodeGameState(w io.Writer, g *entities.GameState) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, version); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, g.Height); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, g.DisasterHeight); err != nil {
		return err
	}
	if _, err := bw.Write(g.HashBlock[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, g.GameFund); err != nil {
		return err
	}

	if err := writeCrownHolder(bw, g.CrownHolder); err != nil {
		return err
	}
	if err := writeCoord(bw, g.CrownPos); err != nil {
		return err
	}

	names := sortedPlayerNames(g.Players)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writePlayer(bw, name, g.Players[name]); err != nil {
			return err
		}
	}

	deadNames := make([]string, 0, len(g.DeadPlayersChat))
	for n := range g.DeadPlayersChat {
		deadNames = append(deadNames, n)
	}
	sort.Strings(deadNames)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(deadNames))); err != nil {
		return err
	}
	for _, name := range deadNames {
		if err := writeString(bw, name); err != nil {
			return err
		}
		if err := writeString(bw, g.DeadPlayersChat[name]); err != nil {
			return err
		}
	}

	lootCoords := sortedCoords(g.Loot)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(lootCoords))); err != nil {
		return err
	}
	for _, c := range lootCoords {
		if err := writeCoord(bw, c); err != nil {
			return err
		}
		if err := writeLootInfo(bw, g.Loot[c]); err != nil {
			return err
		}
	}

	heartCoords := make([]geo.Coord, 0, len(g.Hearts))
	for c := range g.Hearts {
		heartCoords = append(heartCoords, c)
	}
	sort.Slice(heartCoords, func(i, j int) bool { return heartCoords[i].Less(heartCoords[j]) })
	if err := binary.Write(bw, binary.BigEndian, uint32(len(heartCoords))); err != nil {
		return err
	}
	for _, c := range heartCoords {
		if err := writeCoord(bw, c); err != nil {
			return err
		}
	}

	bankCoords := make([]geo.Coord, 0, len(g.Banks))
	for c := range g.Banks {
		bankCoords = append(bankCoords, c)
	}
	sort.Slice(bankCoords, func(i, j int) bool { return bankCoords[i].Less(bankCoords[j]) })
	if err := binary.Write(bw, binary.BigEndian, uint32(len(bankCoords))); err != nil {
		return err
	}
	for _, c := range bankCoords {
		if err := writeCoord(bw, c); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.BigEndian, g.Banks[c]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func DecodeGameState(r io.Reader) (*entities.GameState, error) {
	br := bufio.NewReader(r)
	var m uint32
	if err := binary.Read(br, binary.BigEndian, &m); err != nil {
		return nil, fmt.Errorf("snapshot: read magic: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("snapshot: bad magic %x", m)
	}
	var v uint16
	if err := binary.Read(br, binary.BigEndian, &v); err != nil {
		return nil, fmt.Errorf("snapshot: read version: %w", err)
	}
	if v != version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", v)
	}

	g := entities.NewGameState()
	if err := binary.Read(br, binary.BigEndian, &g.Height); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.BigEndian, &g.DisasterHeight); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(br, g.HashBlock[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.BigEndian, &g.GameFund); err != nil {
		return nil, err
	}

	holder, err := readCrownHolder(br)
	if err != nil {
		return nil, err
	}
	g.CrownHolder = holder
	if g.CrownPos, err = readCoord(br); err != nil {
		return nil, err
	}

	var nPlayers uint32
	if err := binary.Read(br, binary.BigEndian, &nPlayers); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nPlayers; i++ {
		name, p, err := readPlayer(br)
		if err != nil {
			return nil, err
		}
		g.Players[name] = p
	}

	var nDead uint32
	if err := binary.Read(br, binary.BigEndian, &nDead); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nDead; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		msg, err := readString(br)
		if err != nil {
			return nil, err
		}
		g.DeadPlayersChat[name] = msg
	}

	var nLoot uint32
	if err := binary.Read(br, binary.BigEndian, &nLoot); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nLoot; i++ {
		c, err := readCoord(br)
		if err != nil {
			return nil, err
		}
		li, err := readLootInfo(br)
		if err != nil {
			return nil, err
		}
		g.Loot[c] = li
	}

	var nHearts uint32
	if err := binary.Read(br, binary.BigEndian, &nHearts); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nHearts; i++ {
		c, err := readCoord(br)
		if err != nil {
			return nil, err
		}
		g.Hearts[c] = struct{}{}
	}

	var nBanks uint32
	if err := binary.Read(br, binary.BigEndian, &nBanks); err != nil {
		return nil, err
	}
	for i := uint32(0); i < nBanks; i++ {
		c, err := readCoord(br)
		if err != nil {
			return nil, err
		}
		var life int32
		if err := binary.Read(br, binary.BigEndian, &life); err != nil {
			return nil, err
		}
		g.Banks[c] = life
	}

	return g, nil
}

func sortedPlayerNames(players map[string]*entities.PlayerState) []string {
	names := make([]string, 0, len(players))
	for n := range players {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedCoords(m map[geo.Coord]entities.LootInfo) []geo.Coord {
	coords := make([]geo.Coord, 0, len(m))
	for c := range m {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
	return coords
}

func writeCoord(w io.Writer, c geo.Coord) error {
	if err := binary.Write(w, binary.BigEndian, c.X); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, c.Y)
}

func readCoord(r io.Reader) (geo.Coord, error) {
	var c geo.Coord
	if err := binary.Read(r, binary.BigEndian, &c.X); err != nil {
		return c, err
	}
	if err := binary.Read(r, binary.BigEndian, &c.Y); err != nil {
		return c, err
	}
	return c, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeLootInfo(w io.Writer, li entities.LootInfo) error {
	if err := binary.Write(w, binary.BigEndian, li.Amount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, li.FirstBlock); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, li.LastBlock)
}

func readLootInfo(r io.Reader) (entities.LootInfo, error) {
	var li entities.LootInfo
	if err := binary.Read(r, binary.BigEndian, &li.Amount); err != nil {
		return li, err
	}
	if err := binary.Read(r, binary.BigEndian, &li.FirstBlock); err != nil {
		return li, err
	}
	if err := binary.Read(r, binary.BigEndian, &li.LastBlock); err != nil {
		return li, err
	}
	return li, nil
}

func writeCollectedLoot(w io.Writer, c entities.CollectedLootInfo) error {
	if err := writeLootInfo(w, c.LootInfo); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, c.CollectedFirstBlock); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, c.CollectedLastBlock)
}

func readCollectedLoot(r io.Reader) (entities.CollectedLootInfo, error) {
	var c entities.CollectedLootInfo
	li, err := readLootInfo(r)
	if err != nil {
		return c, err
	}
	c.LootInfo = li
	if err := binary.Read(r, binary.BigEndian, &c.CollectedFirstBlock); err != nil {
		return c, err
	}
	if err := binary.Read(r, binary.BigEndian, &c.CollectedLastBlock); err != nil {
		return c, err
	}
	return c, nil
}

func writeCrownHolder(w io.Writer, id *entities.CharacterID) error {
	if id == nil {
		return binary.Write(w, binary.BigEndian, uint8(0))
	}
	if err := binary.Write(w, binary.BigEndian, uint8(1)); err != nil {
		return err
	}
	if err := writeString(w, id.PlayerName); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, id.Index)
}

func readCrownHolder(r io.Reader) (*entities.CharacterID, error) {
	var present uint8
	if err := binary.Read(r, binary.BigEndian, &present); err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	var idx uint32
	if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
		return nil, err
	}
	return &entities.CharacterID{PlayerName: name, Index: idx}, nil
}

func writeExtCharacter(w io.Writer, e entities.ExtendedCharacterFields) error {
	if err := binary.Write(w, binary.BigEndian, e.RPGLevel); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.RPGXP); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.AICounter); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.DAOVotes); err != nil {
		return err
	}
	_, err := w.Write(e.Reserved[:])
	return err
}

func readExtCharacter(r io.Reader) (entities.ExtendedCharacterFields, error) {
	var e entities.ExtendedCharacterFields
	if err := binary.Read(r, binary.BigEndian, &e.RPGLevel); err != nil {
		return e, err
	}
	if err := binary.Read(r, binary.BigEndian, &e.RPGXP); err != nil {
		return e, err
	}
	if err := binary.Read(r, binary.BigEndian, &e.AICounter); err != nil {
		return e, err
	}
	if err := binary.Read(r, binary.BigEndian, &e.DAOVotes); err != nil {
		return e, err
	}
	if _, err := io.ReadFull(r, e.Reserved[:]); err != nil {
		return e, err
	}
	return e, nil
}

func writeExtPlayer(w io.Writer, e entities.ExtendedPlayerFields) error {
	if err := binary.Write(w, binary.BigEndian, e.DungeonLevel); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, e.VoteWeight); err != nil {
		return err
	}
	_, err := w.Write(e.Reserved[:])
	return err
}

func readExtPlayer(r io.Reader) (entities.ExtendedPlayerFields, error) {
	var e entities.ExtendedPlayerFields
	if err := binary.Read(r, binary.BigEndian, &e.DungeonLevel); err != nil {
		return e, err
	}
	if err := binary.Read(r, binary.BigEndian, &e.VoteWeight); err != nil {
		return e, err
	}
	if _, err := io.ReadFull(r, e.Reserved[:]); err != nil {
		return e, err
	}
	return e, nil
}

func writeCharacter(w io.Writer, c *entities.CharacterState) error {
	if err := writeCoord(w, c.Coord); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, c.Dir); err != nil {
		return err
	}
	if err := writeCoord(w, c.From); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(c.Waypoints))); err != nil {
		return err
	}
	for _, wp := range c.Waypoints {
		if err := writeCoord(w, wp); err != nil {
			return err
		}
	}
	if err := writeCollectedLoot(w, c.Loot); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, c.StayInSpawnArea); err != nil {
		return err
	}
	return writeExtCharacter(w, c.Ext)
}

func readCharacter(r io.Reader) (*entities.CharacterState, error) {
	c := &entities.CharacterState{}
	var err error
	if c.Coord, err = readCoord(r); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &c.Dir); err != nil {
		return nil, err
	}
	if c.From, err = readCoord(r); err != nil {
		return nil, err
	}
	var nwp uint32
	if err := binary.Read(r, binary.BigEndian, &nwp); err != nil {
		return nil, err
	}
	if nwp > 0 {
		c.Waypoints = make([]geo.Coord, nwp)
		for i := range c.Waypoints {
			if c.Waypoints[i], err = readCoord(r); err != nil {
				return nil, err
			}
		}
	}
	if c.Loot, err = readCollectedLoot(r); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &c.StayInSpawnArea); err != nil {
		return nil, err
	}
	if c.Ext, err = readExtCharacter(r); err != nil {
		return nil, err
	}
	return c, nil
}

func writePlayer(w io.Writer, name string, p *entities.PlayerState) error {
	if err := writeString(w, name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.Colour); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.LockedCoins); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.Value); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.NextCharacterIndex); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.RemainingLife); err != nil {
		return err
	}
	if err := writeString(w, p.LastChatMessage); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, p.LastChatBlock); err != nil {
		return err
	}
	if err := writeString(w, p.RewardAddress); err != nil {
		return err
	}
	if err := writeString(w, p.AdminAddress); err != nil {
		return err
	}
	if err := writeExtPlayer(w, p.Ext); err != nil {
		return err
	}

	idxs := make([]uint32, 0, len(p.Characters))
	for idx := range p.Characters {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })
	if err := binary.Write(w, binary.BigEndian, uint32(len(idxs))); err != nil {
		return err
	}
	for _, idx := range idxs {
		if err := binary.Write(w, binary.BigEndian, idx); err != nil {
			return err
		}
		if err := writeCharacter(w, p.Characters[idx]); err != nil {
			return err
		}
	}
	return nil
}

func readPlayer(r io.Reader) (string, *entities.PlayerState, error) {
	name, err := readString(r)
	if err != nil {
		return "", nil, err
	}
	p := &entities.PlayerState{Characters: map[uint32]*entities.CharacterState{}}
	if err := binary.Read(r, binary.BigEndian, &p.Colour); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &p.LockedCoins); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &p.Value); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &p.NextCharacterIndex); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &p.RemainingLife); err != nil {
		return "", nil, err
	}
	if p.LastChatMessage, err = readString(r); err != nil {
		return "", nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &p.LastChatBlock); err != nil {
		return "", nil, err
	}
	if p.RewardAddress, err = readString(r); err != nil {
		return "", nil, err
	}
	if p.AdminAddress, err = readString(r); err != nil {
		return "", nil, err
	}
	if p.Ext, err = readExtPlayer(r); err != nil {
		return "", nil, err
	}

	var nChars uint32
	if err := binary.Read(r, binary.BigEndian, &nChars); err != nil {
		return "", nil, err
	}
	for i := uint32(0); i < nChars; i++ {
		var idx uint32
		if err := binary.Read(r, binary.BigEndian, &idx); err != nil {
			return "", nil, err
		}
		c, err := readCharacter(r)
		if err != nil {
			return "", nil, err
		}
		p.Characters[idx] = c
	}
	return name, p, nil
}
