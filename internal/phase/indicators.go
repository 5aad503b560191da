package phase

import "math"

// EMA calculates the exponential moving average of the closing prices with
// smoothing factor 2/(period+1), seeded by the first available close. A NaN
// close carries the previous EMA forward unchanged, so bad ticks have zero
// effect instead of poisoning the rest of the series.
func EMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period < 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 2.0 / float64(period+1)
	prev := math.NaN()

	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			out[i] = prev
			continue
		}
		if math.IsNaN(prev) {
			prev = c
		} else {
			prev = alpha*c + (1-alpha)*prev
		}
		out[i] = prev
	}

	return out
}

// ComputeEMAs calculates one EMA column per requested period.
func ComputeEMAs(closes []float64, periods []int) map[int][]float64 {
	out := make(map[int][]float64, len(periods))
	for _, p := range periods {
		out[p] = EMA(closes, p)
	}
	return out
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
