// Package rng implements the single deterministic random source the step
// engine routes every game-randomness decision through: spawn placement,
// heart collection, drawn-life redistribution, disaster rolls and bank
// rotation. Two nodes that seed identically and call it in the same
// order always draw the same sequence.
package rng

import "encoding/binary"

// State is a splitmix64-style generator. It carries no pointers and is
// cheap to copy, so a step can snapshot it for diagnostics without
// perturbing the call sequence used for consensus.
type State struct {
	s uint64
}

// Seed derives the generator's internal state from the previous block's
// hash and the height of the block being stepped into. The derivation
// folds every byte of the hash in, so two distinct predecessor blocks at
// the same height always diverge.
func Seed(prevHash []byte, height int32) State {
	var s uint64 = 0x9e3779b97f4a7c15 ^ uint64(uint32(height))
	for i := 0; i+8 <= len(prevHash); i += 8 {
		s ^= binary.LittleEndian.Uint64(prevHash[i : i+8])
		s = mix64(s)
	}
	// Fold any trailing partial word.
	if rem := len(prevHash) % 8; rem != 0 {
		var tail [8]byte
		copy(tail[:], prevHash[len(prevHash)-rem:])
		s ^= binary.LittleEndian.Uint64(tail[:])
		s = mix64(s)
	}
	return State{s: mix64(s)}
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NextU32 draws the next 32-bit value and advances the state.
func (s *State) NextU32() uint32 {
	s.s = mix64(s.s)
	return uint32(s.s >> 32)
}

// NextRange draws a uniformly distributed value in [0, n) using
// rejection sampling against the largest multiple of n that fits in
// 32 bits, so the result is exactly uniform (no modulo bias) no matter
// how n divides 2^32. n must be > 0.
func (s *State) NextRange(n uint32) uint32 {
	if n == 0 {
		panic("rng: NextRange(0)")
	}
	if n == 1 {
		return 0
	}
	limit := (^uint32(0) / n) * n
	for {
		v := s.NextU32()
		if v < limit {
			return v % n
		}
	}
}

// Shuffle permutes ids in place using a Fisher-Yates shuffle driven by
// NextRange, so the permutation is itself part of the deterministic
// replay sequence (used to pick which attackers are paid when drawn
// life is oversubscribed).
func Shuffle[T any](s *State, ids []T) {
	for i := len(ids) - 1; i > 0; i-- {
		j := s.NextRange(uint32(i + 1))
		ids[i], ids[j] = ids[j], ids[i]
	}
}
