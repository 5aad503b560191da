package phase

import (
	"fmt"

	"github.com/Alias1177/Blackprint/internal/model"
)

// Config holds the phase detection parameters. It is created once per
// detector; replacing the reference index resets any cached index data.
type Config struct {
	Interval          string            // candle interval label, informational only
	FastPeriod        int               // default 13
	MediumPeriod      int               // default 34
	SlowPeriod        int               // default 89
	LadderPeriods     []int             // full EMA ladder reported in metrics
	PullbackThreshold float64           // Fibonacci retracement level, default 0.382
	Index             model.MarketIndex // reference index identifier, "" for none
}

// DefaultConfig returns the standard Blackprint parameters: 13/34/89 EMAs on
// 15 minute candles with a 38.2% pullback level confirmed against US30.
func DefaultConfig() Config {
	return Config{
		Interval:          "15min",
		FastPeriod:        13,
		MediumPeriod:      34,
		SlowPeriod:        89,
		LadderPeriods:     []int{5, 7, 9, 11, 13, 34, 89},
		PullbackThreshold: 0.382,
		Index:             model.IndexUS30,
	}
}

// ladderSlots are the EMA periods MarketMetrics carries a field for. A ladder
// entry outside this set would be computed and then silently dropped, so
// Validate rejects it instead.
var ladderSlots = map[int]bool{
	5: true, 7: true, 9: true, 11: true, 13: true, 34: true, 89: true,
}

// Validate rejects unusable parameters at configuration time, before any
// evaluation can run with them.
func (c Config) Validate() error {
	if c.FastPeriod < 2 || c.MediumPeriod < 2 || c.SlowPeriod < 2 {
		return fmt.Errorf("EMA periods must be at least 2, got %d/%d/%d",
			c.FastPeriod, c.MediumPeriod, c.SlowPeriod)
	}
	if !(c.FastPeriod < c.MediumPeriod && c.MediumPeriod < c.SlowPeriod) {
		return fmt.Errorf("EMA periods must be strictly increasing, got %d/%d/%d",
			c.FastPeriod, c.MediumPeriod, c.SlowPeriod)
	}
	for _, p := range c.LadderPeriods {
		if !ladderSlots[p] {
			return fmt.Errorf("ladder EMA period %d has no metrics field, supported: 5/7/9/11/13/34/89", p)
		}
	}
	if c.PullbackThreshold <= 0 || c.PullbackThreshold >= 1 {
		return fmt.Errorf("pullback threshold must be in (0, 1), got %g", c.PullbackThreshold)
	}
	if c.Index != "" && !c.Index.Valid() {
		return fmt.Errorf("unknown market index %q", c.Index)
	}
	return nil
}
