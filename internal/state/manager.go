// Package state tracks the latest market phase per symbol and notifies
// listeners when the phase changes. The detector itself is memoryless; the
// change detection lives here, by comparing successive evaluations.
package state

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Blackprint/internal/calculate"
	"github.com/Alias1177/Blackprint/internal/model"
	"github.com/Alias1177/Blackprint/internal/phase"
)

// MinBars is the history needed before an evaluation is considered reliable:
// enough to warm up the 89-period EMA.
const MinBars = 90

// ErrInsufficientHistory is returned when a symbol has fewer than MinBars
// candles.
var ErrInsufficientHistory = errors.New("insufficient history for phase detection")

// Callback receives the symbol and the fresh evaluation whenever the phase
// differs from the previous one.
type Callback func(symbol string, p model.MarketPhase, metrics model.MarketMetrics)

type entry struct {
	phase   model.MarketPhase
	metrics model.MarketMetrics
}

// Manager caches the most recent evaluation per symbol.
type Manager struct {
	detector *phase.Detector
	logger   zerolog.Logger

	mu        sync.Mutex
	latest    map[string]entry
	callbacks []Callback
}

// NewManager creates a state manager around a configured detector.
func NewManager(detector *phase.Detector) *Manager {
	return &Manager{
		detector: detector,
		logger:   log.With().Str("component", "state_manager").Logger(),
		latest:   make(map[string]entry),
	}
}

// OnPhaseChange registers a callback fired on every phase transition,
// including the first evaluation of a symbol.
func (m *Manager) OnPhaseChange(cb Callback) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
}

// Update evaluates the symbol's candle series, stores the result and fires
// the phase-change callbacks when the phase moved. Series shorter than
// MinBars are rejected with ErrInsufficientHistory rather than evaluated
// unreliably.
func (m *Manager) Update(symbol string, candles []model.Candle) (model.MarketPhase, model.MarketMetrics, error) {
	if len(candles) < MinBars {
		m.logger.Warn().
			Str("symbol", symbol).
			Int("bars", len(candles)).
			Msg("Insufficient data, waiting for more bars")
		return model.PhaseUnordered, model.MarketMetrics{InsufficientData: true}, ErrInsufficientHistory
	}

	p, metrics := m.detector.Detect(candles)
	metrics.Symbol = symbol
	metrics.PSAR = calculate.LatestPSAR(candles)
	metrics.MACD, metrics.MACDSignal, metrics.MACDHist =
		calculate.MACD(model.Closes(candles), 12, 26, 9).Latest()

	m.mu.Lock()
	prev, seen := m.latest[symbol]
	m.latest[symbol] = entry{phase: p, metrics: metrics}
	changed := !seen || prev.phase != p
	callbacks := make([]Callback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	if changed {
		m.logger.Info().
			Str("symbol", symbol).
			Str("phase", string(p)).
			Msg("Market phase changed")
		for _, cb := range callbacks {
			cb(symbol, p, metrics)
		}
	}

	return p, metrics, nil
}

// Current returns the latest cached evaluation for a symbol.
func (m *Manager) Current(symbol string) (model.MarketPhase, model.MarketMetrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.latest[symbol]
	return e.phase, e.metrics, ok
}

// FormatReport renders a market-state report for the notification layer. The
// insufficient-data marker renders as a distinct message instead of a bogus
// set of zeros.
func FormatReport(p model.MarketPhase, m model.MarketMetrics) string {
	if m.InsufficientData {
		return fmt.Sprintf("Market State Report\nSymbol: %s\nInsufficient data for phase detection, waiting for more bars.", m.Symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market State Report\n")
	fmt.Fprintf(&b, "Symbol: %s\n", m.Symbol)
	fmt.Fprintf(&b, "Timestamp: %s\n", m.Datetime)
	fmt.Fprintf(&b, "Candle Size: %s\n", m.Interval)
	fmt.Fprintf(&b, "Market Phase: %s\n\n", strings.ToUpper(string(p)))

	fmt.Fprintf(&b, "Key Indicators:\n")
	fmt.Fprintf(&b, "- EMAs:\n")
	fmt.Fprintf(&b, "  Fast (5,7,9): %.4f, %.4f, %.4f\n", m.EMA5, m.EMA7, m.EMA9)
	fmt.Fprintf(&b, "  Medium (11,13): %.4f, %.4f\n", m.EMA11, m.EMA13)
	fmt.Fprintf(&b, "  Slow (34,89): %.4f, %.4f\n", m.EMA34, m.EMA89)
	fmt.Fprintf(&b, "- Slopes (fast/medium/slow): %.4f / %.4f / %.4f\n",
		m.SlopeFast, m.SlopeMedium, m.SlopeSlow)
	fmt.Fprintf(&b, "- Momentum: %.4f\n", m.Momentum)
	fmt.Fprintf(&b, "- PSAR: %.4f\n", m.PSAR)
	fmt.Fprintf(&b, "- MACD: %.4f, Signal: %.4f, Hist: %.4f\n",
		m.MACD, m.MACDSignal, m.MACDHist)

	if m.HasIndex {
		fmt.Fprintf(&b, "\nReference Index (%s):\n", m.IndexName)
		fmt.Fprintf(&b, "- Price: %.4f\n", m.IndexPrice)
		fmt.Fprintf(&b, "- EMAs (fast/medium/slow): %.4f / %.4f / %.4f\n",
			m.IndexEMAFast, m.IndexEMAMedium, m.IndexEMASlow)
	}

	return b.String()
}
