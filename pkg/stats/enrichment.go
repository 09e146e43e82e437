package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// hypergeoLogPMF returns log P(X = k) for X ~ Hypergeometric(N, K, n).
// ok is false when k is outside the support.
func hypergeoLogPMF(k, n, K, N int) (float64, bool) {
	if k < 0 || k > n || k > K || n-k > N-K {
		return 0, false
	}

	return combin.LogGeneralizedBinomial(float64(K), float64(k)) +
		combin.LogGeneralizedBinomial(float64(N-K), float64(n-k)) -
		combin.LogGeneralizedBinomial(float64(N), float64(n)), true
}

func validHypergeo(n, K, N int) bool {
	return N >= 0 && n >= 0 && K >= 0 && n <= N && K <= N
}

// HypergeoSF returns P(X >= k) where k annotated items are found in a draw of n items
// from a population of N items that holds K annotated ones.
func HypergeoSF(k, n, K, N int) float64 {
	if !validHypergeo(n, K, N) {
		return math.NaN()
	}
	if k <= 0 {
		return 1
	}

	var p float64
	for i := k; i <= n && i <= K; i++ {
		if lp, ok := hypergeoLogPMF(i, n, K, N); ok {
			p += math.Exp(lp)
		}
	}

	return math.Min(p, 1)
}

// HypergeoCDF returns P(X <= k), see HypergeoSF for the arguments.
func HypergeoCDF(k, n, K, N int) float64 {
	if !validHypergeo(n, K, N) {
		return math.NaN()
	}
	if k < 0 {
		return 0
	}

	var p float64
	for i := 0; i <= k && i <= n; i++ {
		if lp, ok := hypergeoLogPMF(i, n, K, N); ok {
			p += math.Exp(lp)
		}
	}

	return math.Min(p, 1)
}

// Enrichment is log2 of the ratio between the in-cluster frequency k/n and the
// background frequency K/N. Positive values mean overrepresentation.
func Enrichment(k, n, K, N int) float64 {
	return math.Log2((float64(k) / float64(n)) / (float64(K) / float64(N)))
}

// FDRCorrection applies the Benjamini-Hochberg step-up procedure. The adjusted
// values are returned in the order of pValues.
func FDRCorrection(pValues []float64) []float64 {
	n := len(pValues)
	if n == 0 {
		return []float64{}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return pValues[idx[i]] < pValues[idx[j]]
	})

	corrected := make([]float64, n)
	minP := 1.0
	for i := n - 1; i >= 0; i-- {
		origIdx := idx[i]
		rank := i + 1
		adjusted := pValues[origIdx] * (float64(n) / float64(rank))
		if adjusted > 1 {
			adjusted = 1
		}
		if adjusted < minP {
			minP = adjusted
		} else {
			adjusted = minP
		}
		corrected[origIdx] = adjusted
	}

	return corrected
}
