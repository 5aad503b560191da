package calculate

import "github.com/Alias1177/Blackprint/internal/model"

// PSARResult holds the parabolic stop-and-reverse series.
type PSARResult struct {
	PSAR []float64
	// Uptrend[i] is true while the stop trails below price.
	Uptrend []bool
}

// PSAR calculates the parabolic stop-and-reverse with the given starting and
// maximum acceleration factors. Use 0.02 and 0.2 for the classic settings.
func PSAR(candles []model.Candle, afStart, afMax float64) PSARResult {
	n := len(candles)
	res := PSARResult{
		PSAR:    make([]float64, n),
		Uptrend: make([]bool, n),
	}
	if n == 0 {
		return res
	}

	res.Uptrend[0] = true
	res.PSAR[0] = candles[0].Low
	ep := candles[0].High // extreme point of the current trend
	af := afStart

	for i := 1; i < n; i++ {
		prev := res.PSAR[i-1]
		sar := prev + af*(ep-prev)
		high, low := candles[i].High, candles[i].Low

		if res.Uptrend[i-1] {
			if low > sar {
				res.Uptrend[i] = true
				if high > ep {
					ep = high
					af = minFloat(af+afStart, afMax)
				}
			} else {
				// Stop hit: flip to downtrend, reset to the prior extreme.
				res.Uptrend[i] = false
				sar = ep
				ep = low
				af = afStart
			}
		} else {
			if high < sar {
				res.Uptrend[i] = false
				if low < ep {
					ep = low
					af = minFloat(af+afStart, afMax)
				}
			} else {
				res.Uptrend[i] = true
				sar = ep
				ep = high
				af = afStart
			}
		}

		res.PSAR[i] = sar
	}

	return res
}

// LatestPSAR returns the most recent PSAR value, or 0 for an empty series.
func LatestPSAR(candles []model.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	res := PSAR(candles, 0.02, 0.2)
	return res.PSAR[len(res.PSAR)-1]
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
