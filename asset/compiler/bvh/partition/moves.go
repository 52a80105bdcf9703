package partition

import "math/rand"

// OneMoves invokes fn for every bipartition reachable by moving a single
// movable item to the other group. A nil moveable list allows every item to
// move. Groups are never emptied. Enumeration stops early if fn returns false.
func OneMoves(p Bipartition, moveable []int, fn func(Bipartition) bool) {
	sides := p.Sides(p.Len())
	countA := len(p.A)
	countB := len(p.B)

	if moveable == nil {
		moveable = make([]int, len(sides))
		for i := range moveable {
			moveable[i] = i
		}
	}

	for _, i := range moveable {
		if sides[i] && countA <= 1 || !sides[i] && countB <= 1 {
			continue
		}
		sides[i] = !sides[i]
		ok := fn(FromSides(sides))
		sides[i] = !sides[i]
		if !ok {
			return
		}
	}
}

// Swaps invokes fn for every bipartition obtained by exchanging one movable
// item of group A with one movable item of group B.
func Swaps(p Bipartition, moveable []int, fn func(Bipartition) bool) {
	sides := p.Sides(p.Len())
	for _, a := range moveable {
		if !sides[a] {
			continue
		}
		for _, b := range moveable {
			if sides[b] {
				continue
			}
			sides[a], sides[b] = false, true
			ok := fn(FromSides(sides))
			sides[a], sides[b] = true, false
			if !ok {
				return
			}
		}
	}
}

// PairMoves invokes fn for every bipartition obtained by reassigning a pair of
// movable items with one of four patterns: both to A, both to B, swap (each
// item takes the other's side) and cross-swap (both items flip sides). All
// items outside the pair keep their side. Patterns that reproduce the input
// or empty a group are skipped, as are duplicates within the same pair.
func PairMoves(p Bipartition, moveable []int, fn func(Bipartition) bool) {
	n := p.Len()
	sides := p.Sides(n)
	countA := len(p.A)

	for x := 0; x < len(moveable); x++ {
		for y := x + 1; y < len(moveable); y++ {
			i, j := moveable[x], moveable[y]
			si, sj := sides[i], sides[j]

			patterns := [4][2]bool{
				{true, true},
				{false, false},
				{sj, si},
				{!si, !sj},
			}

			var seen [][2]bool
			for _, pat := range patterns {
				if pat[0] == si && pat[1] == sj {
					continue
				}
				if containsPattern(seen, pat) {
					continue
				}
				seen = append(seen, pat)

				newCountA := countA - boolToInt(si) - boolToInt(sj) + boolToInt(pat[0]) + boolToInt(pat[1])
				if newCountA == 0 || newCountA == n {
					continue
				}

				sides[i], sides[j] = pat[0], pat[1]
				ok := fn(FromSides(sides))
				sides[i], sides[j] = si, sj
				if !ok {
					return
				}
			}
		}
	}
}

// AlterWithin moves one random movable item to the other group, never emptying
// a group. If no movable item can be moved the input is returned unchanged.
func AlterWithin(rng *rand.Rand, p Bipartition, moveable []int) Bipartition {
	sides := p.Sides(p.Len())
	countA := len(p.A)
	countB := len(p.B)

	candidates := make([]int, 0, len(moveable))
	for _, idx := range moveable {
		if sides[idx] && countA > 1 || !sides[idx] && countB > 1 {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		return p.Clone()
	}

	idx := candidates[rng.Intn(len(candidates))]
	sides[idx] = !sides[idx]
	return FromSides(sides)
}

func containsPattern(list [][2]bool, pat [2]bool) bool {
	for _, p := range list {
		if p == pat {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
