package step

import (
	"github.com/smartmonsters/alifecore/internal/entities"
	"github.com/smartmonsters/alifecore/internal/geo"
)

// cloneState deep-copies in so PerformStep can mutate freely and only
// ever hand the host a fully-formed successor state — a step that
// fails partway through must never leave an observable partial
// mutation.
func cloneState(in *entities.GameState) *entities.GameState {
	out := &entities.GameState{
		Players:         make(map[string]*entities.PlayerState, len(in.Players)),
		DeadPlayersChat: map[string]string{},
		Loot:            make(map[geo.Coord]entities.LootInfo, len(in.Loot)),
		Hearts:          make(map[geo.Coord]struct{}, len(in.Hearts)),
		Banks:           make(map[geo.Coord]int32, len(in.Banks)),
		CrownPos:        in.CrownPos,
		GameFund:        in.GameFund,
		Height:          in.Height,
		DisasterHeight:  in.DisasterHeight,
		HashBlock:       in.HashBlock,
	}
	if in.CrownHolder != nil {
		h := *in.CrownHolder
		out.CrownHolder = &h
	}
	for name, p := range in.Players {
		out.Players[name] = clonePlayer(p)
	}
	for c, li := range in.Loot {
		out.Loot[c] = li
	}
	for c := range in.Hearts {
		out.Hearts[c] = struct{}{}
	}
	for c, life := range in.Banks {
		out.Banks[c] = life
	}
	return out
}

func clonePlayer(p *entities.PlayerState) *entities.PlayerState {
	np := &entities.PlayerState{
		Colour:             p.Colour,
		LockedCoins:        p.LockedCoins,
		Value:              p.Value,
		Characters:         make(map[uint32]*entities.CharacterState, len(p.Characters)),
		NextCharacterIndex: p.NextCharacterIndex,
		RemainingLife:      p.RemainingLife,
		LastChatMessage:    p.LastChatMessage,
		LastChatBlock:      p.LastChatBlock,
		RewardAddress:      p.RewardAddress,
		AdminAddress:       p.AdminAddress,
		Ext:                p.Ext,
	}
	for idx, c := range p.Characters {
		np.Characters[idx] = cloneCharacter(c)
	}
	return np
}

func cloneCharacter(c *entities.CharacterState) *entities.CharacterState {
	nc := &entities.CharacterState{
		Coord:           c.Coord,
		Dir:             c.Dir,
		From:            c.From,
		Loot:            c.Loot,
		StayInSpawnArea: c.StayInSpawnArea,
		Ext:             c.Ext,
	}
	nc.Waypoints = append(nc.Waypoints, c.Waypoints...)
	return nc
}
