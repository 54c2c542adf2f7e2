package chainparams

// ForkKind names a height-gated consensus rule change. Numeric value is
// not significant; lookups always go through ForkInEffect.
type ForkKind uint8

const (
	// ForkLifeSteal gates the life-steal attack model: pre-fork an
	// attack kills instantly, post-fork it drains lockedCoins.
	ForkLifeSteal ForkKind = iota
	// ForkPoisonRefund gates whether a poison kill pays a refund
	// bounty (post-fork) or forfeits to the game fund (pre-fork).
	ForkPoisonRefund
	// ForkMeleeRanged gates the ranged attack round (Chebyshev
	// distance 2) that runs after the base melee round.
	ForkMeleeRanged
	// ForkHeartsRemoved gates the removal of the hearts/extra-
	// character mechanic (pre-fork only).
	ForkHeartsRemoved
)

// Kind selects which of the three historical rule sets a ChainParams
// record implements. It replaces a virtual class hierarchy with a
// tagged enum and a single pure lookup table.
type Kind uint8

const (
	Main Kind = iota
	Test
	Reg
)

// ForkInEffect reports whether the named fork is active at height. It
// is pure and fork-stable: the same (kind, height) pair always returns
// the same answer, for any call in the process lifetime.
func (p *ChainParams) ForkInEffect(kind ForkKind, height int32) bool {
	h, ok := p.forkHeights[kind]
	if !ok {
		return false
	}
	return height >= h
}
