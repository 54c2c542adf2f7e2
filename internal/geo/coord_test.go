package geo

import "testing"

func TestChebyshev(t *testing.T) {
	cases := []struct {
		a, b Coord
		want int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{1, 1}, 1},
		{Coord{0, 0}, Coord{3, 1}, 3},
		{Coord{-2, -2}, Coord{2, 2}, 4},
		{Coord{5, -5}, Coord{-5, 5}, 10},
	}
	for _, tc := range cases {
		if got := Chebyshev(tc.a, tc.b); got != tc.want {
			t.Errorf("Chebyshev(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestStepToward(t *testing.T) {
	cases := []struct {
		from, to, want Coord
	}{
		{Coord{0, 0}, Coord{5, 5}, Coord{1, 1}},
		{Coord{0, 0}, Coord{5, 0}, Coord{1, 0}},
		{Coord{0, 0}, Coord{0, -5}, Coord{0, -1}},
		{Coord{3, 3}, Coord{3, 3}, Coord{3, 3}},
		{Coord{0, 0}, Coord{-1, 4}, Coord{-1, 1}},
	}
	for _, tc := range cases {
		if got := StepToward(tc.from, tc.to); got != tc.want {
			t.Errorf("StepToward(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStepTowardReachesTarget(t *testing.T) {
	from := Coord{-3, 7}
	to := Coord{4, -2}
	steps := 0
	for from != to {
		from = StepToward(from, to)
		if steps++; steps > 20 {
			t.Fatal("StepToward never converged")
		}
	}
	if steps != 9 {
		t.Errorf("took %d steps, want 9 (Chebyshev distance)", steps)
	}
}

func TestNeighbours8(t *testing.T) {
	c := Coord{2, 3}
	seen := map[Coord]bool{}
	for _, n := range Neighbours8(c) {
		if Chebyshev(c, n) != 1 {
			t.Errorf("neighbour %v at distance %d", n, Chebyshev(c, n))
		}
		seen[n] = true
	}
	if len(seen) != 8 {
		t.Errorf("got %d distinct neighbours, want 8", len(seen))
	}
}

func TestRing2(t *testing.T) {
	c := Coord{-1, 4}
	seen := map[Coord]bool{}
	for _, n := range Ring2(c) {
		if Chebyshev(c, n) != 2 {
			t.Errorf("ring tile %v at distance %d", n, Chebyshev(c, n))
		}
		seen[n] = true
	}
	if len(seen) != 16 {
		t.Errorf("got %d distinct ring tiles, want 16", len(seen))
	}
}

func TestLess(t *testing.T) {
	ordered := []Coord{{-1, 5}, {0, -9}, {0, 0}, {0, 1}, {2, -2}}
	for i := 0; i < len(ordered)-1; i++ {
		if !ordered[i].Less(ordered[i+1]) {
			t.Errorf("%v not < %v", ordered[i], ordered[i+1])
		}
		if ordered[i+1].Less(ordered[i]) {
			t.Errorf("%v < %v unexpectedly", ordered[i+1], ordered[i])
		}
	}
}
