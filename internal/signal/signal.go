// Package signal implements the Blackprint entry and exit rules: a pullback
// to a key EMA inside an ordered market, confirmed by PSAR and optionally by
// MACD. The phase detector decides whether the market is worth trading;
// these rules decide the trigger.
package signal

import "math"

// PositionType identifies the side of an open position.
type PositionType string

const (
	Long  PositionType = "long"
	Short PositionType = "short"
)

// pullbackProximity is how close (as a fraction of the EMA) price must sit to
// the entry EMA to count as a completed pullback.
const pullbackProximity = 0.001

// Snapshot carries the indicator values an entry decision reads. MACD
// confirmation is optional; leave HasMACD false to skip it.
type Snapshot struct {
	Close float64
	EMA5  float64
	EMA13 float64
	EMA34 float64
	EMA89 float64
	PSAR  float64

	HasMACD    bool
	MACDLine   float64
	MACDSignal float64
}

// unordered reports the EMA-13 sitting between the 34 and 89, the structure
// in which no entries are taken.
func unordered(s Snapshot) bool {
	return (s.EMA13 < s.EMA34 && s.EMA13 > s.EMA89) ||
		(s.EMA13 > s.EMA34 && s.EMA13 < s.EMA89)
}

// LongEntry reports whether the long conditions are met: an ordered market,
// price pulled back onto the 13 EMA, holding above the 5 EMA, PSAR trailing
// below, and MACD bullish when supplied.
func LongEntry(s Snapshot) bool {
	if unordered(s) {
		return false
	}
	if s.EMA13 == 0 || math.Abs(s.Close-s.EMA13)/s.EMA13 > pullbackProximity {
		return false
	}
	if s.Close <= s.EMA5 {
		return false
	}
	if s.PSAR >= s.Close {
		return false
	}
	if s.HasMACD && s.MACDLine <= s.MACDSignal {
		return false
	}
	return true
}

// ShortEntry reports whether the short conditions are met: an ordered market,
// price pulled back onto the 34 EMA, held below the 13 EMA, PSAR trailing
// above, and MACD bearish when supplied.
func ShortEntry(s Snapshot) bool {
	if unordered(s) {
		return false
	}
	if s.EMA34 == 0 || math.Abs(s.Close-s.EMA34)/s.EMA34 > pullbackProximity {
		return false
	}
	if s.Close >= s.EMA13 {
		return false
	}
	if s.PSAR <= s.Close {
		return false
	}
	if s.HasMACD && s.MACDLine >= s.MACDSignal {
		return false
	}
	return true
}

// Exit reports whether the PSAR trailing stop has flipped against the
// position.
func Exit(position PositionType, close, psar float64) bool {
	if position == Long {
		return close < psar
	}
	return close > psar
}
