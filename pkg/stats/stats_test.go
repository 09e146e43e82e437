package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTau(t *testing.T) {

	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{name: "Specific", values: []float64{1, 0, 0, 0, 0, 0}, want: 1, ok: true},
		{name: "Uniform", values: []float64{1, 1, 1, 1, 1, 1}, want: 0, ok: true},
		{name: "AllZero", values: []float64{0, 0, 0, 0, 0, 0}, ok: false},
		{name: "Mixed", values: []float64{0, 8, 0, 0, 0, 2, 0, 2, 0, 0, 0, 0}, want: 0.95, ok: true},
		{name: "SingleValue", values: []float64{4}, ok: false},
		{name: "Empty", values: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Tau(tt.values)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 0.01)
			}
		})
	}
}

func TestExpressionSpecificity(t *testing.T) {
	profile := []ConditionValue{
		{Condition: "leaf", Value: 3},
		{Condition: "root", Value: 4},
	}

	assert.InDelta(t, 0.6, ExpressionSpecificity("leaf", profile), 1e-9)
	assert.InDelta(t, 0.8, ExpressionSpecificity("root", profile), 1e-9)
	assert.Equal(t, 0.0, ExpressionSpecificity("flower", profile))

	zero := []ConditionValue{{Condition: "leaf", Value: 0}, {Condition: "root", Value: 0}}
	assert.Equal(t, 0.0, ExpressionSpecificity("leaf", zero))
}

func TestMaxSPM(t *testing.T) {

	best, ok := MaxSPM([]ConditionValue{{"leaf", 1}, {"root", 0}}, false)
	require.True(t, ok)
	assert.Equal(t, "leaf", best.Condition)
	assert.InDelta(t, 1, best.Value, 1e-12)

	best, ok = MaxSPM([]ConditionValue{{"leaf", 1.1}, {"root", 0.1}}, true)
	require.True(t, ok)
	assert.Equal(t, "leaf", best.Condition)
	assert.InDelta(t, 1, best.Value, 1e-12)

	_, ok = MaxSPM(nil, false)
	assert.False(t, ok)

	// equal scores keep the first condition
	best, ok = MaxSPM([]ConditionValue{{"stem", 2}, {"leaf", 2}}, false)
	require.True(t, ok)
	assert.Equal(t, "stem", best.Condition)
}

func TestEntropy(t *testing.T) {
	assert.Zero(t, Entropy([]float64{1, 0, 0, 0, 0, 0}))
	assert.Zero(t, Entropy(nil))
	assert.InDelta(t, 2, Entropy([]float64{3, 3, 3, 3}), 1e-12)
	assert.InDelta(t, 1, Entropy([]float64{5, 0, 5}), 1e-12)
}

func TestEntropyFromValues(t *testing.T) {
	assert.Equal(t,
		Entropy([]float64{3, 3, 3, 3}),
		EntropyFromValues([]float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3}, 4),
	)
	assert.Equal(t, Entropy(nil), EntropyFromValues([]float64{0, 0, 0}, 4))

	// all values in one bin
	assert.Zero(t, EntropyFromValues([]float64{5, 5, 5}, DefaultNumBins))
}

func TestHypergeometric(t *testing.T) {

	tests := []struct {
		name       string
		k, n, K, N int
		cdf, sf    float64
	}{
		{name: "SmallDraw", k: 2, n: 3, K: 10, N: 100, cdf: 0.999, sf: 0.026},
		{name: "LargerDraw", k: 2, n: 6, K: 10, N: 100, cdf: 0.987, sf: 0.109},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.cdf, HypergeoCDF(tt.k, tt.n, tt.K, tt.N), 0.001)
			assert.InDelta(t, tt.sf, HypergeoSF(tt.k, tt.n, tt.K, tt.N), 0.001)
		})
	}

	assert.Equal(t, 1.0, HypergeoSF(0, 5, 10, 100))
	assert.True(t, math.IsNaN(HypergeoSF(1, 200, 10, 100)))
}

func TestEnrichment(t *testing.T) {
	assert.InDelta(t, 1, Enrichment(2, 10, 10, 100), 1e-12)
	assert.InDelta(t, -1, Enrichment(1, 20, 10, 100), 1e-12)
}

func TestFDRCorrection(t *testing.T) {
	assert.Equal(t, []float64{0.07, 0.07, 0.07}, FDRCorrection([]float64{0.05, 0.06, 0.07}))
	assert.Empty(t, FDRCorrection(nil))

	got := FDRCorrection([]float64{0.04, 0.01, 0.03, 0.5})
	want := []float64{0.16 / 3, 0.04, 0.16 / 3, 0.5}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}

	// adjusted values never exceed 1
	assert.Equal(t, []float64{1}, FDRCorrection([]float64{1}))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0/3.0, JaccardString("ab", "bc"))
	assert.Equal(t, 0.0, JaccardString("ab", "cd"))
	assert.Equal(t, 1.0, JaccardString("ab", "ab"))
	assert.Equal(t, 0.0, Jaccard[int](nil, nil))
	// duplicates count once
	assert.Equal(t, 1.0/3.0, Jaccard([]int{1, 1, 2}, []int{2, 2, 3}))
}
