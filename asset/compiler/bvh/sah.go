package bvh

import (
	"sort"

	"github.com/achilleasa/aobvh/asset/geometry"
	"github.com/chewxy/math32"
)

const (
	// Bin widths are padded so that centroids on the far plane of the
	// bounds still fall into the last bin.
	scoreBinPadding     float32 = 1e-16
	partitionBinPadding float32 = 1e-9

	// Parent areas below this threshold are treated as degenerate.
	minSurfaceArea float32 = 1e-9
)

type sahBin struct {
	count  int
	bounds geometry.Bounds
}

func (b *sahBin) add(bounds geometry.Bounds) {
	b.bounds = b.bounds.Encapsulate(bounds)
	b.count++
}

func (b *sahBin) merge(other sahBin) {
	if other.count == 0 {
		return
	}
	b.bounds = b.bounds.Encapsulate(other.bounds)
	b.count += other.count
}

func (b *sahBin) score() float32 {
	if b.count == 0 {
		return 0
	}
	return float32(b.count) * b.bounds.SurfaceArea()
}

// A candidate split: primitives whose centroid falls into bins [0, bin]
// along axis go to the left child.
type sahCut struct {
	axis geometry.Axis
	bin  int
	cost float32
}

// SplitSAH partitions the primitives referenced by indices[r.Start:r.End]
// into two non-empty, contiguous sub-ranges using a binned surface area
// heuristic. The index slice is reordered in place. bounds must be the union
// of the range's primitive bounds.
//
// If the best SAH cut leaves one side empty (e.g. all centroids coincide),
// the range is sorted by centroid along the largest axis of bounds and split
// at its midpoint. SplitSAH panics if r contains fewer than 2 indices.
func SplitSAH(prims Primitives, indices []uint32, r IndexRange, bounds geometry.Bounds, bins int) (left, right IndexRange) {
	if r.Count() < 2 {
		panic("bvh: cannot split a range with fewer than 2 primitives")
	}
	if bins < 2 {
		bins = 2
	}

	cut := bestSAHCut(prims, indices, r, bounds, bins)

	axisStart := bounds.Min[cut.axis]
	binSize := partitionBinPadding + bounds.Size()[cut.axis]/float32(bins)
	onLeft := func(idx uint32) bool {
		center := prims.Bounds(int(idx)).Center()
		return int(math32.Floor((center[cut.axis]-axisStart)/binSize)) <= cut.bin
	}

	// Two-pointer partition
	i, j := r.Start, r.End-1
	for i <= j {
		if onLeft(indices[i]) {
			i++
			continue
		}
		if !onLeft(indices[j]) {
			j--
			continue
		}
		indices[i], indices[j] = indices[j], indices[i]
		i++
		j--
	}

	left = IndexRange{r.Start, i}
	right = IndexRange{i, r.End}
	if left.Empty() || right.Empty() {
		sortOnLargestAxis(prims, indices, r, bounds)
		return r.Split()
	}
	return left, right
}

// Evaluate all bins along the 3 cardinal axes and return the cheapest cut.
// Later candidates win ties.
func bestSAHCut(prims Primitives, indices []uint32, r IndexRange, bounds geometry.Bounds, bins int) sahCut {
	best := sahCut{axis: geometry.XAxis, cost: math32.MaxFloat32}
	parentArea := bounds.SurfaceArea()
	size := bounds.Size()

	binList := make([]sahBin, bins)
	suffix := make([]sahBin, bins)

	for axis := geometry.XAxis; axis <= geometry.ZAxis; axis++ {
		for i := range binList {
			binList[i] = sahBin{bounds: geometry.EmptyBounds()}
		}

		axisStart := bounds.Min[axis]
		binSize := scoreBinPadding + size[axis]/float32(bins)
		for k := r.Start; k < r.End; k++ {
			primBounds := prims.Bounds(int(indices[k]))
			t := primBounds.Center()[axis] - axisStart
			binList[binIndex(t, binSize, bins)].add(primBounds)
		}

		// Suffix merges: suffix[i] holds bins [i, bins)
		suffix[bins-1] = binList[bins-1]
		for i := bins - 2; i >= 0; i-- {
			suffix[i] = binList[i]
			suffix[i].merge(suffix[i+1])
		}

		axisBest := sahCut{axis: axis, cost: math32.MaxFloat32}
		prefix := sahBin{bounds: geometry.EmptyBounds()}
		for i := 0; i < bins-1; i++ {
			prefix.merge(binList[i])
			rightBins := suffix[i+1]

			cost := prefix.score() + rightBins.score()
			if parentArea > minSurfaceArea {
				cost /= parentArea
			}
			if cost > axisBest.cost {
				continue
			}
			axisBest.bin = i
			axisBest.cost = cost
		}

		if axisBest.cost > best.cost {
			continue
		}
		best = axisBest
	}

	return best
}

func binIndex(t, binSize float32, bins int) int {
	idx := int(math32.Floor(t / binSize))
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}

// Sort the range by primitive centroid along the largest axis of bounds.
func sortOnLargestAxis(prims Primitives, indices []uint32, r IndexRange, bounds geometry.Bounds) {
	axis := bounds.LargestAxis()
	sub := indices[r.Start:r.End]
	sort.SliceStable(sub, func(a, b int) bool {
		return prims.Bounds(int(sub[a])).Center()[axis] < prims.Bounds(int(sub[b])).Center()[axis]
	})
}

// Calculate the union of the bounds of all primitives in the range.
func rangeBounds(prims Primitives, indices []uint32, r IndexRange) geometry.Bounds {
	bounds := geometry.EmptyBounds()
	for k := r.Start; k < r.End; k++ {
		bounds = bounds.Encapsulate(prims.Bounds(int(indices[k])))
	}
	return bounds
}
