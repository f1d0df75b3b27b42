package bb84

import "gonum.org/v1/gonum/stat/distuv"

// QBERUpperBound returns a one-sided Clopper-Pearson upper confidence bound on
// the true error rate, having observed errors mismatches among samples
// revealed bits. With probability at least confidence, the channel's real
// QBER does not exceed the returned value.
//
// The bound is informational; the abort decision compares the point estimate
// against the threshold.
func QBERUpperBound(errors, samples int, confidence float64) float64 {
	if samples <= 0 || errors >= samples {
		return 1
	}
	b := distuv.Beta{
		Alpha: float64(errors + 1),
		Beta:  float64(samples - errors),
	}
	return b.Quantile(confidence)
}
