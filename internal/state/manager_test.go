package state

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/Blackprint/internal/model"
	"github.com/Alias1177/Blackprint/internal/phase"
)

func generateCandles(n int, close func(i int) float64) []model.Candle {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		c := close(i)
		candles[i] = model.Candle{
			Datetime: base.Add(time.Duration(i) * 15 * time.Minute).Format("2006-01-02 15:04:05"),
			Open:     c,
			High:     c + 0.1,
			Low:      c - 0.1,
			Close:    c,
			Volume:   1000,
		}
	}
	return candles
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	d, err := phase.New(phase.DefaultConfig())
	if err != nil {
		t.Fatalf("phase.New: %v", err)
	}
	return NewManager(d)
}

func TestUpdateRejectsShortHistory(t *testing.T) {
	m := newTestManager(t)
	candles := generateCandles(MinBars-1, func(i int) float64 { return 100.0 })

	p, metrics, err := m.Update("EUR/USD", candles)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("Update error = %v, want ErrInsufficientHistory", err)
	}
	if p != model.PhaseUnordered {
		t.Errorf("phase = %v, want unordered", p)
	}
	if !metrics.InsufficientData {
		t.Error("expected the insufficient-data marker to be set")
	}
	if _, _, ok := m.Current("EUR/USD"); ok {
		t.Error("a rejected update must not be cached")
	}
}

func TestUpdateCachesAndEnriches(t *testing.T) {
	m := newTestManager(t)
	candles := generateCandles(100, func(i int) float64 { return 100.0 + 0.5*float64(i) })

	p, metrics, err := m.Update("EUR/USD", candles)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p != model.PhaseTrending {
		t.Errorf("phase = %v, want trending", p)
	}
	if metrics.Symbol != "EUR/USD" {
		t.Errorf("symbol = %q, want EUR/USD", metrics.Symbol)
	}
	if metrics.PSAR == 0 {
		t.Error("expected PSAR to be filled in")
	}
	if metrics.MACD <= 0 {
		t.Errorf("MACD = %v, want positive on a rising series", metrics.MACD)
	}

	cp, cm, ok := m.Current("EUR/USD")
	if !ok {
		t.Fatal("Current returned no entry after a successful update")
	}
	if cp != p || cm.Symbol != metrics.Symbol {
		t.Error("Current does not match the last update")
	}
}

func TestPhaseChangeCallbacks(t *testing.T) {
	m := newTestManager(t)

	var fired []model.MarketPhase
	m.OnPhaseChange(func(symbol string, p model.MarketPhase, _ model.MarketMetrics) {
		if symbol != "EUR/USD" {
			t.Errorf("callback symbol = %q, want EUR/USD", symbol)
		}
		fired = append(fired, p)
	})

	flat := generateCandles(100, func(i int) float64 { return 100.0 })
	trend := generateCandles(100, func(i int) float64 { return 100.0 + 0.5*float64(i) })

	// First evaluation counts as a transition.
	if _, _, err := m.Update("EUR/USD", flat); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(fired) != 1 || fired[0] != model.PhaseUnordered {
		t.Fatalf("after first update fired = %v, want [unordered]", fired)
	}

	// Same phase again: no callback.
	if _, _, err := m.Update("EUR/USD", flat); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("repeat update fired %d callbacks, want 1 total", len(fired))
	}

	// Phase moves: callback fires.
	if _, _, err := m.Update("EUR/USD", trend); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(fired) != 2 || fired[1] != model.PhaseTrending {
		t.Fatalf("after transition fired = %v, want [unordered trending]", fired)
	}
}

func TestCallbacksArePerSymbol(t *testing.T) {
	m := newTestManager(t)

	count := 0
	m.OnPhaseChange(func(string, model.MarketPhase, model.MarketMetrics) { count++ })

	flat := generateCandles(100, func(i int) float64 { return 100.0 })
	if _, _, err := m.Update("EUR/USD", flat); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, _, err := m.Update("GBP/USD", flat); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if count != 2 {
		t.Errorf("fired %d callbacks, want one first-evaluation callback per symbol", count)
	}
}

func TestFormatReport(t *testing.T) {
	insufficient := FormatReport(model.PhaseUnordered, model.MarketMetrics{
		Symbol:           "EUR/USD",
		InsufficientData: true,
	})
	if !strings.Contains(insufficient, "Insufficient data") {
		t.Errorf("insufficient-data report missing its message:\n%s", insufficient)
	}
	if strings.Contains(insufficient, "EMAs") {
		t.Error("insufficient-data report must not render indicator values")
	}

	metrics := model.MarketMetrics{
		Symbol:   "EUR/USD",
		Interval: "15min",
		Datetime: "2024-03-04 09:00:00",
		Close:    149.5,
		EMA13:    148.2,
		HasIndex:   true,
		IndexName:  model.IndexUS30,
		IndexPrice: 39000.0,
	}
	report := FormatReport(model.PhaseTrending, metrics)
	for _, want := range []string{"EUR/USD", "TRENDING", "15min", "Momentum", "PSAR", "MACD", "Reference Index"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
