package calculate

import (
	"math"

	"github.com/Alias1177/Blackprint/internal/phase"
)

// MACDResult holds the moving-average-convergence-divergence series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates the MACD line (fast EMA minus slow EMA), its signal line
// and the histogram. Use 12/26/9 for the classic settings.
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	fast := phase.EMA(closes, fastPeriod)
	slow := phase.EMA(closes, slowPeriod)

	line := make([]float64, len(closes))
	for i := range line {
		line[i] = fast[i] - slow[i]
	}

	signal := phase.EMA(line, signalPeriod)

	hist := make([]float64, len(closes))
	for i := range hist {
		hist[i] = line[i] - signal[i]
	}

	return MACDResult{Line: line, Signal: signal, Histogram: hist}
}

// Latest returns the most recent MACD line, signal and histogram values,
// zeroes for an empty series.
func (r MACDResult) Latest() (line, signal, hist float64) {
	n := len(r.Line)
	if n == 0 {
		return 0, 0, 0
	}
	line, signal, hist = r.Line[n-1], r.Signal[n-1], r.Histogram[n-1]
	if math.IsNaN(line) || math.IsNaN(signal) || math.IsNaN(hist) {
		return 0, 0, 0
	}
	return line, signal, hist
}
