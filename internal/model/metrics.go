package model

import "math"

// MarketMetrics is the diagnostic bundle produced alongside every phase
// evaluation. All fields are always present; reference-index fields are zero
// when no index data is attached, and InsufficientData marks the degenerate
// result for an empty or unusable series.
type MarketMetrics struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Datetime string `json:"datetime"`

	Close float64 `json:"close"`

	EMA5  float64 `json:"ema_5"`
	EMA7  float64 `json:"ema_7"`
	EMA9  float64 `json:"ema_9"`
	EMA11 float64 `json:"ema_11"`
	EMA13 float64 `json:"ema_13"`
	EMA34 float64 `json:"ema_34"`
	EMA89 float64 `json:"ema_89"`

	SlopeFast   float64 `json:"slope_fast"`
	SlopeMedium float64 `json:"slope_medium"`
	SlopeSlow   float64 `json:"slope_slow"`
	SlopePrice  float64 `json:"slope_price"`
	Momentum    float64 `json:"momentum"`

	PSAR       float64 `json:"psar"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`

	HasIndex       bool        `json:"has_index"`
	IndexName      MarketIndex `json:"index_name,omitempty"`
	IndexPrice     float64     `json:"index_price"`
	IndexEMAFast   float64     `json:"index_ema_fast"`
	IndexEMAMedium float64     `json:"index_ema_medium"`
	IndexEMASlow   float64     `json:"index_ema_slow"`

	InsufficientData bool `json:"insufficient_data"`
}

// Flat converts the metrics to a flat key to number mapping for display and
// logging. Non-finite values collapse to 0 so formatting code never has to
// defend against NaN.
func (m MarketMetrics) Flat() map[string]float64 {
	out := map[string]float64{
		"close":        finite(m.Close),
		"ema_5":        finite(m.EMA5),
		"ema_7":        finite(m.EMA7),
		"ema_9":        finite(m.EMA9),
		"ema_11":       finite(m.EMA11),
		"ema_13":       finite(m.EMA13),
		"ema_34":       finite(m.EMA34),
		"ema_89":       finite(m.EMA89),
		"slope_fast":   finite(m.SlopeFast),
		"slope_medium": finite(m.SlopeMedium),
		"slope_slow":   finite(m.SlopeSlow),
		"slope_price":  finite(m.SlopePrice),
		"momentum":     finite(m.Momentum),
		"psar":         finite(m.PSAR),
		"macd":         finite(m.MACD),
		"macd_signal":  finite(m.MACDSignal),
		"macd_hist":    finite(m.MACDHist),
	}

	out["insufficient_data"] = 0
	if m.InsufficientData {
		out["insufficient_data"] = 1
	}

	out["has_index"] = 0
	if m.HasIndex {
		out["has_index"] = 1
		out["index_price"] = finite(m.IndexPrice)
		out["index_ema_fast"] = finite(m.IndexEMAFast)
		out["index_ema_medium"] = finite(m.IndexEMAMedium)
		out["index_ema_slow"] = finite(m.IndexEMASlow)
	} else {
		out["index_price"] = 0
		out["index_ema_fast"] = 0
		out["index_ema_medium"] = 0
		out["index_ema_slow"] = 0
	}

	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
