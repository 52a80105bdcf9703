// Package partition implements the bipartition search primitives used by the
// BVH builder and optimizer: exhaustive enumeration of small sets, random
// generation and mutation, and the move/swap neighborhoods explored by the
// local search.
//
// All bipartitions index into a caller-owned local candidate list, never into
// global primitive arrays.
package partition

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// The largest set size accepted by Enumerate. Exhaustive enumeration visits
// 2^(n-1)-1 bipartitions so callers must keep candidate sets small.
const MaxEnumerate = 16

// Bipartition splits a local index set into two disjoint groups.
type Bipartition struct {
	A []int
	B []int
}

// Get the number of items in both groups.
func (p Bipartition) Len() int {
	return len(p.A) + len(p.B)
}

// Returns true if both groups contain at least one item.
func (p Bipartition) Valid() bool {
	return len(p.A) > 0 && len(p.B) > 0
}

// Create a deep copy of the bipartition.
func (p Bipartition) Clone() Bipartition {
	return Bipartition{
		A: append(make([]int, 0, len(p.A)), p.A...),
		B: append(make([]int, 0, len(p.B)), p.B...),
	}
}

// Return a copy with sorted groups where min(A) <= min(B).
func (p Bipartition) Canonical() Bipartition {
	out := p.Clone()
	sort.Ints(out.A)
	sort.Ints(out.B)
	if len(out.A) == 0 || (len(out.B) > 0 && out.B[0] < out.A[0]) {
		out.A, out.B = out.B, out.A
	}
	return out
}

// Generate a key that uniquely identifies the unordered bipartition.
func (p Bipartition) Key() string {
	c := p.Canonical()
	var sb strings.Builder
	for i, v := range c.A {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte('|')
	for i, v := range c.B {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

// Get the side of each item as a membership slice (true = group A).
func (p Bipartition) Sides(n int) []bool {
	sides := make([]bool, n)
	for _, v := range p.A {
		sides[v] = true
	}
	return sides
}

// Build a bipartition from a membership slice (true = group A).
func FromSides(sides []bool) Bipartition {
	var p Bipartition
	for i, inA := range sides {
		if inA {
			p.A = append(p.A, i)
		} else {
			p.B = append(p.B, i)
		}
	}
	return p
}

func (p Bipartition) String() string {
	return fmt.Sprintf("A%v B%v", p.A, p.B)
}

// Count the distinct non-trivial bipartitions of an n item set.
func Count(n int) int {
	if n < 2 {
		return 0
	}
	return 1<<(n-1) - 1
}

// Enumerate invokes fn for every bipartition of the set {0..n-1} with both
// groups non-empty. Mirror duplicates are skipped: every emitted partition
// satisfies min(A) <= min(B). Enumeration stops early if fn returns false.
//
// Enumerate panics if n exceeds MaxEnumerate.
func Enumerate(n int, fn func(Bipartition) bool) {
	if n > MaxEnumerate {
		panic(fmt.Sprintf("partition: cannot enumerate bipartitions of %d items (max %d)", n, MaxEnumerate))
	}
	if n < 2 {
		return
	}

	total := 1 << n
	for mask := 1; mask < total-1; mask++ {
		// Item 0 always lands in group A; the complementary mask covers the mirror
		if mask&1 == 0 {
			continue
		}

		p := Bipartition{
			A: make([]int, 0, n),
			B: make([]int, 0, n),
		}
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				p.A = append(p.A, i)
			} else {
				p.B = append(p.B, i)
			}
		}

		if !fn(p) {
			return
		}
	}
}

// Random generates a uniformly random bipartition of {0..n-1} with both
// groups non-empty. It panics if n < 2.
func Random(rng *rand.Rand, n int) Bipartition {
	if n < 2 {
		panic("partition: random bipartitions require at least 2 items")
	}

	sides := make([]bool, n)
	for {
		countA := 0
		for i := range sides {
			sides[i] = rng.Intn(2) == 1
			if sides[i] {
				countA++
			}
		}
		if countA != 0 && countA != n {
			return FromSides(sides).Canonical()
		}
	}
}

// Alter moves a single random item between groups, never emptying a group.
// Partitions with fewer than 3 items are returned unchanged.
func Alter(rng *rand.Rand, p Bipartition) Bipartition {
	out := p.Clone()
	if out.Len() <= 2 {
		return out
	}

	var fromA bool
	switch {
	case len(out.A) == 1:
		fromA = false
	case len(out.B) == 1:
		fromA = true
	default:
		fromA = rng.Intn(2) == 1
	}

	if fromA {
		idx := rng.Intn(len(out.A))
		out.B = append(out.B, out.A[idx])
		out.A = append(out.A[:idx], out.A[idx+1:]...)
	} else {
		idx := rng.Intn(len(out.B))
		out.A = append(out.A, out.B[idx])
		out.B = append(out.B[:idx], out.B[idx+1:]...)
	}
	return out
}

// AlterN applies up to maxMoves-1 random Alter steps (the count is drawn
// uniformly from [0, maxMoves)).
func AlterN(rng *rand.Rand, p Bipartition, maxMoves int) Bipartition {
	out := p.Clone()
	if maxMoves <= 0 {
		return out
	}
	for i, moves := 0, rng.Intn(maxMoves); i < moves; i++ {
		out = Alter(rng, out)
	}
	return out
}
