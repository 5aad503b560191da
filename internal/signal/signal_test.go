package signal

import "testing"

// orderedLong is a baseline snapshot meeting every long-entry condition:
// ordered EMAs, price parked on the 13 EMA, PSAR trailing below.
func orderedLong() Snapshot {
	return Snapshot{
		Close: 105.0,
		EMA5:  104.9,
		EMA13: 105.0,
		EMA34: 103.0,
		EMA89: 100.0,
		PSAR:  102.0,
	}
}

// orderedShort mirrors it for the short side: price pulled down onto the 34
// EMA, below the 13, PSAR above.
func orderedShort() Snapshot {
	return Snapshot{
		Close: 103.0,
		EMA5:  103.5,
		EMA13: 105.0,
		EMA34: 103.0,
		EMA89: 100.0,
		PSAR:  104.5,
	}
}

func TestLongEntry(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Snapshot)
		expected bool
	}{
		{"All conditions met", func(s *Snapshot) {}, true},
		{"MACD bullish confirmation passes", func(s *Snapshot) {
			s.HasMACD = true
			s.MACDLine = 0.5
			s.MACDSignal = 0.2
		}, true},
		{"Unordered market blocks entry", func(s *Snapshot) {
			// 13 EMA between the 34 and 89
			s.EMA13 = 101.0
			s.EMA34 = 103.0
			s.EMA89 = 100.0
		}, false},
		{"Price too far from the 13 EMA", func(s *Snapshot) { s.Close = 106.0 }, false},
		{"Price at or below the 5 EMA", func(s *Snapshot) { s.EMA5 = 105.0 }, false},
		{"PSAR above price", func(s *Snapshot) { s.PSAR = 106.0 }, false},
		{"MACD bearish blocks entry", func(s *Snapshot) {
			s.HasMACD = true
			s.MACDLine = 0.1
			s.MACDSignal = 0.3
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := orderedLong()
			tt.mutate(&s)
			if got := LongEntry(s); got != tt.expected {
				t.Errorf("LongEntry() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShortEntry(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Snapshot)
		expected bool
	}{
		{"All conditions met", func(s *Snapshot) {}, true},
		{"Unordered market blocks entry", func(s *Snapshot) {
			s.EMA13 = 104.0
			s.EMA89 = 106.0
		}, false},
		{"Price too far from the 34 EMA", func(s *Snapshot) { s.Close = 95.0 }, false},
		{"Price at or above the 13 EMA", func(s *Snapshot) { s.EMA13 = 97.0 }, false},
		{"PSAR below price", func(s *Snapshot) { s.PSAR = 96.0 }, false},
		{"MACD bullish blocks entry", func(s *Snapshot) {
			s.HasMACD = true
			s.MACDLine = 0.3
			s.MACDSignal = 0.1
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := orderedShort()
			tt.mutate(&s)
			if got := ShortEntry(s); got != tt.expected {
				t.Errorf("ShortEntry() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExit(t *testing.T) {
	tests := []struct {
		name     string
		position PositionType
		close    float64
		psar     float64
		expected bool
	}{
		{"Long exits when close drops under PSAR", Long, 99.0, 100.0, true},
		{"Long holds above PSAR", Long, 101.0, 100.0, false},
		{"Short exits when close rises over PSAR", Short, 101.0, 100.0, true},
		{"Short holds below PSAR", Short, 99.0, 100.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exit(tt.position, tt.close, tt.psar); got != tt.expected {
				t.Errorf("Exit() = %v, want %v", got, tt.expected)
			}
		})
	}
}
