package model

// MarketPhase is the market regime label produced by the phase detector.
// Unordered is the fallback: every evaluation resolves to exactly one phase.
type MarketPhase string

const (
	PhaseUnordered MarketPhase = "unordered"
	PhaseEmerging  MarketPhase = "emerging"
	PhaseTrending  MarketPhase = "trending"
	PhasePullback  MarketPhase = "pullback"
)

// MarketIndex identifies a broad market index used to corroborate
// single-instrument trend signals.
type MarketIndex string

const (
	IndexUS30   MarketIndex = "US30"
	IndexSPX    MarketIndex = "SPX"
	IndexNDX    MarketIndex = "NDX"
	IndexRUT    MarketIndex = "RUT"
	IndexVIX    MarketIndex = "VIX"
	IndexFTSE   MarketIndex = "FTSE"
	IndexDAX    MarketIndex = "DAX"
	IndexNikkei MarketIndex = "NIKKEI"
)

// IndexSymbols maps a market index to its data-provider ticker symbol.
// The mapping is configuration data, kept separate from the index type itself.
var IndexSymbols = map[MarketIndex]string{
	IndexUS30:   "^DJI",
	IndexSPX:    "^GSPC",
	IndexNDX:    "^IXIC",
	IndexRUT:    "^RUT",
	IndexVIX:    "^VIX",
	IndexFTSE:   "^FTSE",
	IndexDAX:    "^GDAXI",
	IndexNikkei: "^N225",
}

// Symbol returns the provider ticker for the index, or "" if unknown.
func (m MarketIndex) Symbol() string {
	return IndexSymbols[m]
}

// Valid reports whether the index identifier is one of the known indices.
func (m MarketIndex) Valid() bool {
	_, ok := IndexSymbols[m]
	return ok
}
