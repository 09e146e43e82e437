// Expression specificity measures: Tau and SPM

package stats

import (
	"gonum.org/v1/gonum/floats"
)

// ConditionValue is one entry of an expression profile. Profiles are kept as ordered
// slices because ties between conditions are resolved by position.
type ConditionValue struct {
	Condition string
	Value     float64
}

// Tau returns sum(1 - x/max) / (n-1) for non-negative values.
// ok is false when every value is zero or when fewer than two values are given.
func Tau(values []float64) (tau float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}

	mx := floats.Max(values)
	if mx <= 0 {
		return 0, false
	}

	var sum float64
	for _, x := range values {
		sum += 1 - x/mx
	}

	return sum / float64(n-1), true
}

// ExpressionSpecificity is the SPM of condition: cosine similarity between the profile
// values and a vector holding only the value(s) of condition. 0 for zero-norm vectors.
func ExpressionSpecificity(condition string, profile []ConditionValue) float64 {

	values := make([]float64, len(profile))
	vector := make([]float64, len(profile))

	for i, cv := range profile {
		values[i] = cv.Value
		if cv.Condition == condition {
			vector[i] = cv.Value
		}
	}

	mulLen := floats.Norm(values, 2) * floats.Norm(vector, 2)
	if mulLen == 0 {
		return 0
	}

	return floats.Dot(values, vector) / mulLen
}

// MaxSPM returns the condition with the highest SPM in profile, the first one wins on ties.
// With subtractBackground the lowest value is removed from every condition first.
func MaxSPM(profile []ConditionValue, subtractBackground bool) (best ConditionValue, ok bool) {
	if len(profile) == 0 {
		return ConditionValue{}, false
	}

	work := profile
	if subtractBackground {
		values := make([]float64, len(profile))
		for i, cv := range profile {
			values[i] = cv.Value
		}
		minimum := floats.Min(values)

		work = make([]ConditionValue, len(profile))
		for i, cv := range profile {
			work[i] = ConditionValue{Condition: cv.Condition, Value: cv.Value - minimum}
		}
	}

	for i, cv := range work {
		score := ExpressionSpecificity(cv.Condition, work)
		if i == 0 || score > best.Value {
			best = ConditionValue{Condition: cv.Condition, Value: score}
		}
	}

	return best, true
}
