package stats

import mapset "github.com/deckarep/golang-set/v2"

// Jaccard returns |a ∩ b| / |a ∪ b| over the distinct elements of a and b, 0 when both are empty.
func Jaccard[T comparable](a, b []T) float64 {
	setA := mapset.NewThreadUnsafeSet(a...)
	setB := mapset.NewThreadUnsafeSet(b...)

	union := setA.Union(setB).Cardinality()
	if union == 0 {
		return 0
	}

	return float64(setA.Intersect(setB).Cardinality()) / float64(union)
}

// JaccardString compares the characters of two strings.
func JaccardString(a, b string) float64 {
	return Jaccard([]rune(a), []rune(b))
}
