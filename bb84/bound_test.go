package bb84

import (
	"math"
	"testing"
)

func TestQBERUpperBound(t *testing.T) {
	// With no observed errors the Clopper-Pearson bound has the closed form
	// 1 - (1-c)^(1/n).
	for _, n := range []int{1, 10, 200} {
		got := QBERUpperBound(0, n, 0.95)
		want := 1 - math.Pow(0.05, 1/float64(n))
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("QBERUpperBound(0, %d) == %v, want %v", n, got, want)
		}
	}

	if got := QBERUpperBound(5, 5, 0.95); got != 1 {
		t.Errorf("QBERUpperBound(5, 5) == %v, want 1", got)
	}
	if got := QBERUpperBound(0, 0, 0.95); got != 1 {
		t.Errorf("QBERUpperBound(0, 0) == %v, want 1", got)
	}

	// The bound sits above the point estimate and tightens with more samples.
	small := QBERUpperBound(5, 20, 0.95)
	large := QBERUpperBound(50, 200, 0.95)
	if !(small > 0.25 && large > 0.25 && large < small) {
		t.Errorf("QBERUpperBound(5, 20) == %v, QBERUpperBound(50, 200) == %v", small, large)
	}
}
