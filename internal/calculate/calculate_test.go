package calculate

import (
	"math"
	"testing"

	"github.com/Alias1177/Blackprint/internal/model"
)

// trendCandles builds a series that moves by step each bar with a small
// high/low range around the close.
func trendCandles(start, step float64, count int) []model.Candle {
	candles := make([]model.Candle, count)
	for i := range candles {
		c := start + step*float64(i)
		candles[i] = model.Candle{
			Open:  c - step/2,
			High:  c + 0.1,
			Low:   c - 0.1,
			Close: c,
		}
	}
	return candles
}

func TestPSARUptrend(t *testing.T) {
	candles := trendCandles(100.0, 0.5, 40)
	res := PSAR(candles, 0.02, 0.2)

	if len(res.PSAR) != len(candles) {
		t.Fatalf("PSAR length = %d, want %d", len(res.PSAR), len(candles))
	}
	last := len(candles) - 1
	if !res.Uptrend[last] {
		t.Error("expected uptrend on a steadily rising series")
	}
	if res.PSAR[last] >= candles[last].Low {
		t.Errorf("PSAR = %v, want below low %v", res.PSAR[last], candles[last].Low)
	}
}

func TestPSARDowntrend(t *testing.T) {
	candles := trendCandles(100.0, -0.5, 40)
	res := PSAR(candles, 0.02, 0.2)

	last := len(candles) - 1
	if res.Uptrend[last] {
		t.Error("expected downtrend on a steadily falling series")
	}
	if res.PSAR[last] <= candles[last].High {
		t.Errorf("PSAR = %v, want above high %v", res.PSAR[last], candles[last].High)
	}
}

func TestPSARReversal(t *testing.T) {
	// Rise for 20 bars, then fall for 20: the stop must flip.
	up := trendCandles(100.0, 0.5, 20)
	down := trendCandles(up[len(up)-1].Close, -0.5, 20)
	candles := append(up, down...)

	res := PSAR(candles, 0.02, 0.2)
	last := len(candles) - 1
	if res.Uptrend[last] {
		t.Error("expected the stop to flip to downtrend after the reversal")
	}
}

func TestLatestPSAR(t *testing.T) {
	if got := LatestPSAR(nil); got != 0 {
		t.Errorf("LatestPSAR(nil) = %v, want 0", got)
	}

	candles := trendCandles(100.0, 0.5, 40)
	res := PSAR(candles, 0.02, 0.2)
	if got := LatestPSAR(candles); got != res.PSAR[len(candles)-1] {
		t.Errorf("LatestPSAR = %v, want %v", got, res.PSAR[len(candles)-1])
	}
}

func TestMACDFlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100.0
	}

	line, signal, hist := MACD(closes, 12, 26, 9).Latest()
	if math.Abs(line) > 1e-9 || math.Abs(signal) > 1e-9 || math.Abs(hist) > 1e-9 {
		t.Errorf("flat series MACD = (%v, %v, %v), want zeroes", line, signal, hist)
	}
}

func TestMACDRisingSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100.0 + 0.5*float64(i)
	}

	line, _, hist := MACD(closes, 12, 26, 9).Latest()
	if line <= 0 {
		t.Errorf("MACD line = %v, want positive on a rising series", line)
	}
	if hist <= 0 {
		t.Errorf("MACD histogram = %v, want positive while the line climbs", hist)
	}
}

func TestMACDLatestDegenerate(t *testing.T) {
	if l, s, h := (MACDResult{}).Latest(); l != 0 || s != 0 || h != 0 {
		t.Errorf("empty Latest() = (%v, %v, %v), want zeroes", l, s, h)
	}

	// An all-NaN input propagates through the EMAs; Latest collapses it.
	if l, s, h := MACD([]float64{math.NaN(), math.NaN()}, 12, 26, 9).Latest(); l != 0 || s != 0 || h != 0 {
		t.Errorf("NaN Latest() = (%v, %v, %v), want zeroes", l, s, h)
	}
}
