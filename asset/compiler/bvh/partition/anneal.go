package partition

import "github.com/chewxy/math32"

const annealEpsilon float32 = 1e-16

// Temperature returns the annealing temperature for an iteration. The
// schedule decays from start to 0 following a cubic polynomial slope and
// stays at 0 once iterations is reached.
func Temperature(iteration int, iterations int, start float32) float32 {
	total := float32(iterations)
	if total < annealEpsilon {
		return 0
	}
	value := math32.Max(0, (total-float32(iteration))/total)
	return start * math32.Pow(value, 3)
}

// KeepProbability returns the probability of accepting a transition from a
// solution with cost oldCost to one with cost newCost at the given
// temperature. Improvements are always accepted; at zero temperature worse
// solutions are always rejected.
func KeepProbability(oldCost, newCost, temperature float32) float32 {
	if newCost < oldCost {
		return 1
	}
	if temperature < annealEpsilon {
		return 0
	}
	return math32.Exp(-(newCost - oldCost) / temperature)
}
