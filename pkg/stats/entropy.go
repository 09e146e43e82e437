package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultNumBins is the histogram resolution used for profile entropy.
const DefaultNumBins = 20

// Entropy returns the Shannon entropy (bits) of a distribution given as bin counts.
// Empty bins are skipped; an empty or all-zero distribution has entropy 0.
func Entropy(dist []float64) float64 {
	total := floats.Sum(dist)
	if total <= 0 {
		return 0
	}

	p := make([]float64, 0, len(dist))
	for _, d := range dist {
		if d > 0 {
			p = append(p, d/total)
		}
	}

	// stat.Entropy uses the natural logarithm
	return stat.Entropy(p) / math.Ln2
}

// EntropyFromValues bins values (scaled by their maximum) into numBins equal-width
// bins and returns the entropy of that histogram.
func EntropyFromValues(values []float64, numBins int) float64 {
	if len(values) == 0 || numBins <= 0 {
		return Entropy(nil)
	}

	vMax := floats.Max(values)
	if vMax <= 0 {
		return Entropy(nil)
	}

	// lower bound of every bin: 0, 1/numBins, ...
	bins := make([]float64, numBins)
	for b := range bins {
		bins[b] = float64(b) / float64(numBins)
	}

	hist := make([]float64, numBins)
	for _, v := range values {
		nv := v / vMax
		// insertion point to the right of equal bounds
		b := sort.Search(len(bins), func(i int) bool { return bins[i] > nv })
		if b == 0 {
			// negative values land in the last bin, as a Python index of -1 would
			b = len(bins)
		}
		hist[b-1]++
	}

	return Entropy(hist)
}
