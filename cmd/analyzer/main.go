package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Blackprint/internal/api/twelvedata"
	"github.com/Alias1177/Blackprint/internal/calculate"
	"github.com/Alias1177/Blackprint/internal/config"
	"github.com/Alias1177/Blackprint/internal/model"
	"github.com/Alias1177/Blackprint/internal/phase"
	"github.com/Alias1177/Blackprint/internal/signal"
	"github.com/Alias1177/Blackprint/internal/state"
	"github.com/Alias1177/Blackprint/internal/trading/risk"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Blackprint analyzer")
	printConfig(cfg)

	detector, err := phase.New(cfg.PhaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build phase detector")
	}

	client := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: 5,
	})

	runAnalysis(ctx, client, detector, cfg)
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	ossignal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
		os.Exit(0)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Interval", cfg.Interval).
		Int("CandleCount", cfg.CandleCount).
		Int("FastEMA", cfg.FastEMA).
		Int("MediumEMA", cfg.MediumEMA).
		Int("SlowEMA", cfg.SlowEMA).
		Float64("PullbackThreshold", cfg.PullbackThreshold).
		Str("MarketIndex", cfg.MarketIndex).
		Msg("Configuration loaded")
}

// runAnalysis performs a one-shot market phase analysis
func runAnalysis(ctx context.Context, client *twelvedata.Client, detector *phase.Detector, cfg *config.Config) {
	log.Info().Msg("Fetching latest market data...")
	candles, err := client.GetCandles(ctx, cfg.Symbol, cfg.Interval, cfg.CandleCount)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch candles")
		return
	}

	// Reference index is advisory: a fetch failure downgrades the analysis
	// instead of aborting it.
	if index := detector.Config().Index; index != "" {
		indexCandles, err := client.GetIndexCandles(ctx, index, cfg.Interval, cfg.CandleCount)
		if err != nil {
			log.Warn().Err(err).Str("index", string(index)).Msg("Reference index fetch failed, proceeding without it")
		} else {
			detector.UpdateIndexData(indexCandles)
		}
	}

	manager := state.NewManager(detector)
	currentPhase, metrics, err := manager.Update(cfg.Symbol, candles)
	if err != nil {
		log.Error().Err(err).Int("bars", len(candles)).Msg("Not enough history to evaluate")
		return
	}

	fmt.Println()
	fmt.Println(state.FormatReport(currentPhase, metrics))

	if detector.UnorderedSignature(candles) {
		fmt.Println("Note: flat/choppy signature, signals unreliable.")
	}

	printSignals(candles, metrics, cfg)
}

// printSignals evaluates the Blackprint entry rules on the latest bar
func printSignals(candles []model.Candle, metrics model.MarketMetrics, cfg *config.Config) {
	snapshot := signal.Snapshot{
		Close:      metrics.Close,
		EMA5:       metrics.EMA5,
		EMA13:      metrics.EMA13,
		EMA34:      metrics.EMA34,
		EMA89:      metrics.EMA89,
		PSAR:       calculate.LatestPSAR(candles),
		HasMACD:    true,
		MACDLine:   metrics.MACD,
		MACDSignal: metrics.MACDSignal,
	}

	fmt.Println("===== ENTRY SIGNALS =====")
	longOK := signal.LongEntry(snapshot)
	shortOK := signal.ShortEntry(snapshot)
	fmt.Printf("Long entry: %v | Short entry: %v\n", longOK, shortOK)

	if !longOK && !shortOK {
		return
	}

	manager, err := risk.NewManager(cfg.AccountSize, cfg.RiskPerTrade, cfg.MaxPositions)
	if err != nil {
		log.Error().Err(err).Msg("Invalid risk parameters")
		return
	}

	stop := snapshot.PSAR
	sizing := manager.PositionSize(metrics.Close, stop)
	fmt.Printf("Suggested size: %.2f units | Stop: %.4f | Target: %.4f | R:R %.1f\n",
		sizing.PositionSize, sizing.StopLoss, sizing.TakeProfit, sizing.RiskRewardRatio)

	if pips, err := manager.StopLossPips(cfg.Interval); err == nil {
		fmt.Printf("Reference stop distance for %s: %d pips\n", cfg.Interval, pips)
	}
}
