package route

import (
	"math"

	"github.com/fiberleif/syntheseus/internal/types"
)

// DistanceMetric computes a pairwise dissimilarity between two routes.
// Implementations must be symmetric and return 0 for identical inputs.
type DistanceMetric func(a, b *Route) float64

// MoleculeJaccardDistance is one minus the Jaccard similarity of the two
// routes' molecule sets. Two routes over the same molecules have distance 0.
func MoleculeJaccardDistance(a, b *Route) float64 {
	return jaccardDistance(a.molecules, b.molecules)
}

// ReactionJaccardDistance is one minus the Jaccard similarity of the two
// routes' reaction sets.
func ReactionJaccardDistance(a, b *Route) float64 {
	return jaccardDistance(a.reactions, b.reactions)
}

// MoleculeSymmetricDifferenceDistance counts the molecules present in exactly
// one of the two routes. Unlike the Jaccard variants it is unbounded.
func MoleculeSymmetricDifferenceDistance(a, b *Route) float64 {
	return symmetricDifferenceSize(a.molecules, b.molecules)
}

// ReactionSymmetricDifferenceDistance counts the reactions present in exactly
// one of the two routes.
func ReactionSymmetricDifferenceDistance(a, b *Route) float64 {
	return symmetricDifferenceSize(a.reactions, b.reactions)
}

// jaccardDistance returns 1 - |a ∩ b| / |a ∪ b|, and 0 when both sets are
// empty.
func jaccardDistance(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return 1 - float64(intersection)/float64(union)
}

func symmetricDifferenceSize(a, b map[string]struct{}) float64 {
	diff := 0
	for k := range a {
		if _, ok := b[k]; !ok {
			diff++
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			diff++
		}
	}
	return float64(diff)
}

// DiversitySelect picks up to k routes by greedy max-min selection: the
// best-ranked route seeds the subset, then each step adds the route whose
// minimum distance to the already selected routes is largest. Rank order
// breaks ties, so the selection is deterministic. The input slice is not
// modified.
func DiversitySelect(routes []*Route, k int, metric DistanceMetric) ([]*Route, error) {
	if metric == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "diversity selection requires a distance metric")
	}
	if len(routes) == 0 || k <= 0 {
		return nil, nil
	}
	if k >= len(routes) {
		selected := make([]*Route, len(routes))
		copy(selected, routes)
		return selected, nil
	}

	selected := []*Route{routes[0]}
	remaining := append([]*Route{}, routes[1:]...)

	// minDist[i] tracks the distance from remaining[i] to the nearest
	// selected route, updated incrementally as the subset grows.
	minDist := make([]float64, len(remaining))
	for i, r := range remaining {
		minDist[i] = metric(r, routes[0])
	}

	for len(selected) < k {
		best := 0
		for i := 1; i < len(remaining); i++ {
			if minDist[i] > minDist[best] {
				best = i
			}
		}

		pick := remaining[best]
		selected = append(selected, pick)
		remaining = append(remaining[:best], remaining[best+1:]...)
		minDist = append(minDist[:best], minDist[best+1:]...)

		for i, r := range remaining {
			if d := metric(r, pick); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return selected, nil
}

// EstimatePackingNumber returns the size of a greedily constructed packing
// set: a maximal subset in which every pair of routes is strictly farther
// apart than radius. It lower-bounds the true packing number. Routes are
// considered in rank order, so the estimate is deterministic.
func EstimatePackingNumber(routes []*Route, radius float64, metric DistanceMetric) (int, error) {
	if metric == nil {
		return 0, types.NewError(types.CONFIG_VALIDATION_FAILED, "packing estimation requires a distance metric")
	}
	if radius < 0 {
		return 0, types.NewError(types.CONFIG_VALIDATION_FAILED, "packing radius must be non-negative")
	}

	var packing []*Route
	for _, r := range routes {
		fits := true
		for _, p := range packing {
			if metric(r, p) <= radius {
				fits = false
				break
			}
		}
		if fits {
			packing = append(packing, r)
		}
	}
	return len(packing), nil
}

// pairwiseMinDistance is the smallest distance between any two routes in the
// slice, or +Inf for fewer than two routes. Used to report how spread out a
// selected subset is.
func pairwiseMinDistance(routes []*Route, metric DistanceMetric) float64 {
	min := math.Inf(1)
	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			if d := metric(routes[i], routes[j]); d < min {
				min = d
			}
		}
	}
	return min
}

// SubsetSpread reports the minimum pairwise distance within a route subset,
// the quantity greedy max-min selection maximizes.
func SubsetSpread(routes []*Route, metric DistanceMetric) (float64, error) {
	if metric == nil {
		return 0, types.NewError(types.CONFIG_VALIDATION_FAILED, "spread computation requires a distance metric")
	}
	return pairwiseMinDistance(routes, metric), nil
}
