package phase

import (
	"math"
	"sync"

	"github.com/Alias1177/Blackprint/internal/model"
)

// Detection thresholds. These are tuned constants, not load-bearing
// precision; the scenario tests in detector_test.go pin their behavior.
const (
	slopeWindow    = 5
	momentumWindow = 5

	// alignTolerance is the proportional margin (fraction of price) allowed
	// when comparing price and EMA levels, to absorb floating noise.
	alignTolerance = 0.001

	// minSeparation is the minimum fast-slow EMA spread, as a fraction of
	// price, required before an alignment counts as a trend.
	minSeparation = 0.01

	trendSlopeFast   = 0.35
	trendSlopeMedium = 0.35
	trendSlopeSlow   = 0.25
	trendMomentum    = 0.25

	// A pullback tolerates brief deceleration of the fast and medium EMAs
	// but the slow EMA must still be rising.
	pullbackSlopeFloor = -0.1

	emergingSlopeFast   = 0.05
	emergingSlopeMedium = 0.02
	emergingMomentum    = 0.05

	// Structural retracement window: how many trailing bars are treated as
	// the candidate pullback leg when measuring the prior trend's range.
	retraceLookback = 15
	goldenRatio     = 0.618

	// Unordered signature thresholds.
	flatSlope       = 0.05
	compressionBand = 0.005
	chopThreshold   = 0.05

	// indexExtension caps how far above its fast EMA the reference index may
	// sit while still corroborating a pullback.
	indexExtension = 0.01
)

// Detector classifies a candle series into a market phase. It is a pure
// computation over its input; the only mutable state is the reference-index
// identifier and its cached series, both guarded by mu. Evaluations read them
// through a snapshot, so concurrent updates never disturb an evaluation in
// progress.
type Detector struct {
	mu    sync.RWMutex
	cfg   Config // cfg.Index is the only field mutated after New
	index []model.Candle
}

// New creates a detector, validating the configuration up front.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns a copy of the detector's configuration.
func (d *Detector) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// SetIndex switches the reference index and drops any cached index data.
func (d *Detector) SetIndex(index model.MarketIndex) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.Index != index {
		d.cfg.Index = index
		d.index = nil
	}
}

// UpdateIndexData replaces the cached reference-index series. The candles are
// copied, so the caller may keep mutating its slice.
func (d *Detector) UpdateIndexData(candles []model.Candle) {
	snapshot := make([]model.Candle, len(candles))
	copy(snapshot, candles)

	d.mu.Lock()
	d.index = snapshot
	d.mu.Unlock()
}

// indexSnapshot reads the cached index series and its identifier in one
// locked step, so an evaluation never sees one without the other.
func (d *Detector) indexSnapshot() ([]model.Candle, model.MarketIndex) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index, d.cfg.Index
}

// evaluation is the computed snapshot every predicate reads from.
type evaluation struct {
	bars []model.Candle

	close  float64
	fast   float64
	medium float64
	slow   float64

	slopeFast   float64
	slopeMedium float64
	slopeSlow   float64
	slopePrice  float64
	momentum    float64

	// reference index, nil when no data is attached
	index *indexEval

	pullbackMin float64
	pullbackMax float64
}

type indexEval struct {
	name   model.MarketIndex
	price  float64
	fast   float64
	medium float64
	slow   float64
}

// Detect classifies the series and reports the quantitative basis for the
// classification. EMAs are always recomputed from the closes; caller-supplied
// indicator state is never trusted. It never panics: empty or NaN-ridden
// input degrades to the unordered phase with the insufficient-data marker
// set.
func (d *Detector) Detect(candles []model.Candle) (model.MarketPhase, model.MarketMetrics) {
	metrics := model.MarketMetrics{Interval: d.cfg.Interval}

	if len(candles) == 0 {
		metrics.InsufficientData = true
		return model.PhaseUnordered, metrics
	}

	closes := model.Closes(candles)
	e := d.evaluate(candles, closes)

	metrics.Datetime = candles[len(candles)-1].Datetime
	metrics.Close = e.close
	metrics.SlopeFast = e.slopeFast
	metrics.SlopeMedium = e.slopeMedium
	metrics.SlopeSlow = e.slopeSlow
	metrics.SlopePrice = e.slopePrice
	metrics.Momentum = e.momentum
	d.fillLadder(&metrics, closes)

	if e.index != nil {
		metrics.HasIndex = true
		metrics.IndexName = e.index.name
		metrics.IndexPrice = e.index.price
		metrics.IndexEMAFast = e.index.fast
		metrics.IndexEMAMedium = e.index.medium
		metrics.IndexEMASlow = e.index.slow
	}

	if !hasFinite(closes) {
		metrics.InsufficientData = true
		return model.PhaseUnordered, metrics
	}

	// Trending wins over pullback, pullback over emerging. The predicates
	// overlap and the order resolves the overlap.
	switch {
	case trending(e):
		return model.PhaseTrending, metrics
	case pullback(e):
		return model.PhasePullback, metrics
	case emerging(e):
		return model.PhaseEmerging, metrics
	default:
		return model.PhaseUnordered, metrics
	}
}

func (d *Detector) evaluate(candles []model.Candle, closes []float64) evaluation {
	fast := EMA(closes, d.cfg.FastPeriod)
	medium := EMA(closes, d.cfg.MediumPeriod)
	slow := EMA(closes, d.cfg.SlowPeriod)

	e := evaluation{
		bars:        candles,
		close:       last(closes),
		fast:        last(fast),
		medium:      last(medium),
		slow:        last(slow),
		slopeFast:   Slope(fast, slopeWindow),
		slopeMedium: Slope(medium, slopeWindow),
		slopeSlow:   Slope(slow, slopeWindow),
		slopePrice:  Slope(closes, slopeWindow),
		momentum:    Momentum(closes, momentumWindow),
		pullbackMin: d.cfg.PullbackThreshold * goldenRatio,
		pullbackMax: d.cfg.PullbackThreshold / goldenRatio,
	}

	if snapshot, name := d.indexSnapshot(); len(snapshot) > 0 {
		idxCloses := model.Closes(snapshot)
		e.index = &indexEval{
			name:   name,
			price:  last(idxCloses),
			fast:   last(EMA(idxCloses, d.cfg.FastPeriod)),
			medium: last(EMA(idxCloses, d.cfg.MediumPeriod)),
			slow:   last(EMA(idxCloses, d.cfg.SlowPeriod)),
		}
	}

	return e
}

func (d *Detector) fillLadder(m *model.MarketMetrics, closes []float64) {
	for _, p := range d.cfg.LadderPeriods {
		v := last(EMA(closes, p))
		switch p {
		case 5:
			m.EMA5 = v
		case 7:
			m.EMA7 = v
		case 9:
			m.EMA9 = v
		case 11:
			m.EMA11 = v
		case 13:
			m.EMA13 = v
		case 34:
			m.EMA34 = v
		case 89:
			m.EMA89 = v
		}
	}
}

// trending requires simultaneous confirmation from alignment, separation,
// slope magnitude and momentum. Any single weak signal vetoes the call: a
// false trend is the costliest misclassification downstream.
func trending(e evaluation) bool {
	tol := alignTolerance * e.close

	aligned := e.close > e.fast-tol &&
		e.fast >= e.medium-tol &&
		e.medium >= e.slow-tol
	if !aligned {
		return false
	}

	if e.fast-e.slow < minSeparation*e.close {
		return false
	}

	if e.slopeFast < trendSlopeFast ||
		e.slopeMedium < trendSlopeMedium ||
		e.slopeSlow < trendSlopeSlow {
		return false
	}

	if e.momentum < trendMomentum {
		return false
	}

	return indexConfirmsTrend(e)
}

// pullback looks for a temporary retracement inside an intact uptrend: price
// parked between the fast and medium EMA, the slow EMA still below the medium
// and rising, momentum already recovering, and the retracement depth inside
// the configured Fibonacci window of the prior trend's range.
func pullback(e evaluation) bool {
	tol := alignTolerance * e.close

	lo := math.Min(e.fast, e.medium) - tol
	hi := math.Max(e.fast, e.medium) + tol
	if !(e.close >= lo && e.close <= hi) {
		return false
	}

	// Prior uptrend structure must survive the dip.
	if !(e.slow < e.medium) {
		return false
	}

	if e.slopeFast <= pullbackSlopeFloor || e.slopeMedium <= pullbackSlopeFloor {
		return false
	}
	if e.slopeSlow <= 0 {
		return false
	}

	if e.momentum <= 0 {
		return false
	}

	if !retracementInWindow(e) {
		return false
	}

	return indexConfirmsPullback(e)
}

// retracementInWindow measures how deep price has retraced relative to the
// range of the trend preceding the last retraceLookback bars. With too little
// history, or a degenerate range, the check is vacuously true.
func retracementInWindow(e evaluation) bool {
	if len(e.bars) <= 2*retraceLookback {
		return true
	}

	prior := e.bars[:len(e.bars)-retraceLookback]
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, c := range prior {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}

	rng := high - low
	if !(rng > 0) || math.IsInf(rng, 0) {
		return true
	}

	r := (high - e.close) / rng
	return r >= e.pullbackMin && r <= e.pullbackMax
}

// emerging is the precursor to trending: the same directional alignment with
// positive but weaker confirmation. Trending is checked first, so no upper
// bounds are needed here; a series strong enough for both resolves to
// trending by priority.
func emerging(e evaluation) bool {
	tol := alignTolerance * e.close

	aligned := e.close >= e.fast-tol &&
		e.fast >= e.medium-tol &&
		e.medium >= e.slow-tol
	if !aligned {
		return false
	}

	return e.slopeFast > emergingSlopeFast &&
		e.slopeMedium > emergingSlopeMedium &&
		e.slopeSlow > 0 &&
		e.momentum > emergingMomentum
}

// UnorderedSignature reports whether the series shows the explicit unordered
// signature: no slope signal combined with either compressed EMAs or choppy
// price action. This is diagnostic only; the unordered phase itself is the
// fallback when nothing stronger matches.
func (d *Detector) UnorderedSignature(candles []model.Candle) bool {
	if len(candles) == 0 {
		return false
	}

	closes := model.Closes(candles)
	e := d.evaluate(candles, closes)

	flat := math.Abs(e.slopeFast) < flatSlope &&
		math.Abs(e.slopeMedium) < flatSlope &&
		math.Abs(e.slopeSlow) < flatSlope
	if !flat {
		return false
	}

	compressed := math.Abs(e.fast-e.slow) < compressionBand*math.Abs(e.close)
	return compressed || choppiness(closes) > chopThreshold
}

// choppiness is the coefficient of variation of the last 20 closes.
func choppiness(closes []float64) float64 {
	start := len(closes) - 20
	if start < 0 {
		start = 0
	}

	var pts []float64
	for _, v := range closes[start:] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, v)
	}
	if len(pts) < 2 {
		return 0
	}

	var sum float64
	for _, v := range pts {
		sum += v
	}
	mean := sum / float64(len(pts))
	if mean == 0 {
		return 0
	}

	var ss float64
	for _, v := range pts {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(len(pts)))
	return math.Abs(sd / mean)
}

// indexConfirmsTrend requires the reference index's own EMA alignment to
// agree with the instrument's trend. No index data makes the check vacuously
// true; the index is advisory, never a blocker.
func indexConfirmsTrend(e evaluation) bool {
	if e.index == nil {
		return true
	}
	idx := e.index
	tol := alignTolerance * idx.price
	return idx.fast >= idx.medium-tol && idx.medium >= idx.slow-tol
}

// indexConfirmsPullback wants the index still in an uptrend but not extended:
// above its fast EMA yet within indexExtension of it.
func indexConfirmsPullback(e evaluation) bool {
	if e.index == nil {
		return true
	}
	idx := e.index
	if !(idx.price > idx.fast) {
		return false
	}
	if !(idx.price > 0) {
		return false
	}
	return (idx.price-idx.fast)/idx.price < indexExtension
}

func hasFinite(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
