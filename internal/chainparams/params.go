package chainparams

import "github.com/smartmonsters/alifecore/internal/entities"

// PowLimit is the per-algorithm proof-of-work difficulty ceiling. The
// step engine never consults it directly; it is carried here because
// it belongs to the immutable chain-parameter record the host hands
// the core alongside the per-block step data.
type PowLimit struct {
	Algo        string
	LimitHex    string
	AuxpowChainID int32
}

// NameCoinAmountStep is one entry of the minimum-lock/life-steal-unit
// schedule: the amount in effect from ActivationHeight (inclusive)
// until the next entry's ActivationHeight.
type NameCoinAmountStep struct {
	ActivationHeight int32
	Amount           int64
}

// ChainParams is the immutable, per-chain configuration record
// consumed by PerformStep and the game-tx builder. It never mutates
// after Load returns.
type ChainParams struct {
	Kind Kind

	SubsidyHalvingInterval int32
	InitialSubsidy         int64

	PowLimits []PowLimit

	PowTargetSpacing int32

	// NameCoinAmountSchedule is sorted ascending by ActivationHeight;
	// entry 0 must have ActivationHeight == 0.
	NameCoinAmountSchedule []NameCoinAmountStep

	// SpawnAreaKillThreshold is the number of consecutive steps a
	// character may stay on its spawn strip before KILLED_SPAWN.
	SpawnAreaKillThreshold int32

	// DisasterBaseProbabilityPermille drives the per-step disaster
	// roll; PoisonLifeBlocks is the countdown a disaster starts.
	DisasterBaseProbabilityPermille int32
	PoisonLifeBlocks                int32

	forkHeights map[ForkKind]int32
}

// NameCoinAmount returns the minimum name-lock amount in effect at
// height: the amount of the last schedule entry whose ActivationHeight
// is <= height. This is also the per-attacker life-steal unit.
func (p *ChainParams) NameCoinAmount(height int32) int64 {
	amount := p.NameCoinAmountSchedule[0].Amount
	for _, step := range p.NameCoinAmountSchedule {
		if step.ActivationHeight > height {
			break
		}
		amount = step.Amount
	}
	return amount
}

// GetBlockSubsidy returns the block reward at height, halving every
// SubsidyHalvingInterval blocks down to zero.
func (p *ChainParams) GetBlockSubsidy(height int32) int64 {
	halvings := height / p.SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.InitialSubsidy >> uint(halvings)
}

// Genesis returns the zero-player state a chain starts from.
func (p *ChainParams) Genesis() *entities.GameState {
	g := entities.NewGameState()
	g.Height = 0
	return g
}
