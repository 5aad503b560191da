package risk

import (
	"fmt"
	"math"
)

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	PositionSize    float64 `json:"position_size"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	AccountRisk     float64 `json:"account_risk"`
}

// stopLossPips is the Blackprint stop distance per timeframe.
var stopLossPips = map[string]int{
	"5min":  15,
	"15min": 20,
	"1hour": 30,
	"4hour": 50,
}

// Manager enforces the Blackprint risk rules: fixed fractional risk per
// trade, per-timeframe stop distances and a cap on concurrent positions.
type Manager struct {
	accountSize  float64
	riskPerTrade float64
	maxPositions int
}

// NewManager creates a risk manager. Risk per trade is a fraction, 0.02 for
// the standard 2%.
func NewManager(accountSize, riskPerTrade float64, maxPositions int) (*Manager, error) {
	if accountSize <= 0 {
		return nil, fmt.Errorf("account size must be positive, got %g", accountSize)
	}
	if riskPerTrade <= 0 || riskPerTrade >= 1 {
		return nil, fmt.Errorf("risk per trade must be in (0, 1), got %g", riskPerTrade)
	}
	if maxPositions < 1 {
		return nil, fmt.Errorf("max positions must be at least 1, got %d", maxPositions)
	}
	return &Manager{
		accountSize:  accountSize,
		riskPerTrade: riskPerTrade,
		maxPositions: maxPositions,
	}, nil
}

// StopLossPips returns the stop distance in pips for the timeframe, or an
// error for a timeframe the strategy does not trade.
func (m *Manager) StopLossPips(timeframe string) (int, error) {
	pips, ok := stopLossPips[timeframe]
	if !ok {
		return 0, fmt.Errorf("no stop-loss distance defined for timeframe %q", timeframe)
	}
	return pips, nil
}

// PositionSize calculates the position size putting riskPerTrade of the
// account at risk between entry and stop, with a 1:2 take-profit.
func (m *Manager) PositionSize(entryPrice, stopLoss float64) *PositionSizingResult {
	stopSize := math.Abs(entryPrice - stopLoss)
	if stopSize == 0 {
		return &PositionSizingResult{StopLoss: stopLoss, AccountRisk: m.riskPerTrade}
	}

	riskAmount := m.accountSize * m.riskPerTrade
	positionSize := riskAmount / stopSize

	var takeProfit float64
	if entryPrice > stopLoss {
		takeProfit = entryPrice + (entryPrice-stopLoss)*2.0
	} else {
		takeProfit = entryPrice - (stopLoss-entryPrice)*2.0
	}

	return &PositionSizingResult{
		PositionSize:    positionSize,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		RiskRewardRatio: math.Abs(takeProfit-entryPrice) / stopSize,
		AccountRisk:     m.riskPerTrade,
	}
}

// CanOpenPosition reports whether another position fits under the cap.
func (m *Manager) CanOpenPosition(currentPositions int) bool {
	return currentPositions < m.maxPositions
}

// ValidateTradeRisk reports whether the amount at risk stays within the
// per-trade limit.
func (m *Manager) ValidateTradeRisk(riskAmount float64) bool {
	if m.accountSize == 0 {
		return false
	}
	return riskAmount/m.accountSize <= m.riskPerTrade
}

// AdjustForVolatility scales a position size down in high-volatility markets
// and slightly up in quiet ones. The ratio is short-term over long-term ATR.
func AdjustForVolatility(baseSize, volatilityRatio float64) float64 {
	if volatilityRatio > 1.5 {
		return baseSize * (1 / volatilityRatio)
	}
	if volatilityRatio < 0.7 {
		return baseSize * 1.2
	}
	return baseSize
}
