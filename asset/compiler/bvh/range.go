package bvh

import "fmt"

// IndexRange is a half-open interval [Start, End) over a tree's index slice.
type IndexRange struct {
	Start int
	End   int
}

// Get the number of indices covered by the range.
func (r IndexRange) Count() int {
	return r.End - r.Start
}

// Returns true if the range covers no indices.
func (r IndexRange) Empty() bool {
	return r.End <= r.Start
}

// Split the range at its midpoint. For odd counts the right half gets the
// extra index.
func (r IndexRange) Split() (left, right IndexRange) {
	mid := r.Start + r.Count()/2
	return IndexRange{r.Start, mid}, IndexRange{mid, r.End}
}

func (r IndexRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
