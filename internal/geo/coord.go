// Package geo provides the integer map coordinate and distance primitives
// shared by movement, attack and loot logic.
package geo

import "fmt"

// Coord is a signed integer map coordinate.
type Coord struct {
	X int32
	Y int32
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less gives the canonical lexicographic ordering over coordinates,
// used everywhere the step engine must iterate a coordinate-keyed
// container in a deterministic order.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// Chebyshev returns the L-infinity distance between two coordinates:
// max(|dx|, |dy|). Diagonal steps cost the same as cardinal ones.
func Chebyshev(a, b Coord) int {
	dx := abs(int(a.X) - int(b.X))
	dy := abs(int(a.Y) - int(b.Y))
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Add returns a + b.
func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Sub returns a - b.
func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y}
}

// Neighbours8 returns the eight Chebyshev-distance-1 tiles around c, in
// canonical (x,y) order, for attack-range and adjacency scans.
func Neighbours8(c Coord) [8]Coord {
	return [8]Coord{
		{c.X - 1, c.Y - 1}, {c.X - 1, c.Y}, {c.X - 1, c.Y + 1},
		{c.X, c.Y - 1}, {c.X, c.Y + 1},
		{c.X + 1, c.Y - 1}, {c.X + 1, c.Y}, {c.X + 1, c.Y + 1},
	}
}

// Ring2 returns the sixteen tiles at Chebyshev distance exactly 2 from
// c, in canonical (x,y) order, for the ranged-attack scan.
func Ring2(c Coord) [16]Coord {
	var out [16]Coord
	i := 0
	for dx := int32(-2); dx <= 2; dx++ {
		for dy := int32(-2); dy <= 2; dy++ {
			if dx > -2 && dx < 2 && dy > -2 && dy < 2 {
				continue
			}
			out[i] = Coord{X: c.X + dx, Y: c.Y + dy}
			i++
		}
	}
	return out
}

// StepToward moves one unit (Chebyshev metric) from `from` toward `to`,
// clamping each axis independently so diagonal and cardinal steps both
// cover exactly one tile per call.
func StepToward(from, to Coord) Coord {
	return Coord{X: from.X + signum(to.X-from.X), Y: from.Y + signum(to.Y-from.Y)}
}

func signum(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
