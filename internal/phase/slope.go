package phase

import "math"

// Slope fits an ordinary least squares regression over the last window valid
// points of the series (x = 0..n-1) and returns the slope coefficient. It
// fails closed: fewer than two valid points, a degenerate fit or any
// non-finite intermediate all yield 0.0, never a panic.
func Slope(values []float64, window int) float64 {
	if window < 2 {
		return 0
	}

	start := len(values) - window
	if start < 0 {
		start = 0
	}

	var pts []float64
	for _, v := range values[start:] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, v)
	}

	n := float64(len(pts))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64
	for i, y := range pts {
		x := float64(i)
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}

	s := (n*sumXY - sumX*sumY) / den
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// Momentum returns the mean of the last window first differences of the
// closing price. Differences involving a NaN close are skipped; with no valid
// differences at all the momentum is 0.0.
func Momentum(closes []float64, window int) float64 {
	if window < 1 {
		return 0
	}

	var diffs []float64
	for i := 1; i < len(closes); i++ {
		a, b := closes[i-1], closes[i]
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
			continue
		}
		diffs = append(diffs, b-a)
	}

	if len(diffs) > window {
		diffs = diffs[len(diffs)-window:]
	}
	if len(diffs) == 0 {
		return 0
	}

	var sum float64
	for _, d := range diffs {
		sum += d
	}
	m := sum / float64(len(diffs))
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}
