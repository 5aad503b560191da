package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Blackprint/internal/api/twelvedata"
	"github.com/Alias1177/Blackprint/internal/calculate"
	"github.com/Alias1177/Blackprint/internal/config"
	"github.com/Alias1177/Blackprint/internal/database"
	"github.com/Alias1177/Blackprint/internal/model"
	"github.com/Alias1177/Blackprint/internal/phase"
	"github.com/Alias1177/Blackprint/internal/signal"
	"github.com/Alias1177/Blackprint/internal/state"
)

var supportedIntervals = []string{
	"1min", "5min", "15min", "30min", "1h", "4h", "1day",
}

// ChatState tracks one chat's instrument selection and watch flag.
type ChatState struct {
	Symbol   string
	Interval string
	Watching bool
}

type botApp struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.Config
	client   *twelvedata.Client
	detector *phase.Detector
	manager  *state.Manager
	db       *database.DB // nil when no recorder is configured
	logger   zerolog.Logger

	mu    sync.Mutex
	chats map[int64]*ChatState
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	detector, err := phase.New(cfg.PhaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build phase detector")
	}

	app := &botApp{
		bot:      bot,
		cfg:      cfg,
		detector: detector,
		manager:  state.NewManager(detector),
		logger:   log.With().Str("component", "bot").Logger(),
		chats:    make(map[int64]*ChatState),
		client: twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:         cfg.TwelveAPIKey,
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
			RequestsPerSec: 5,
		}),
	}

	if cfg.RecorderEnabled() {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize phase-event recorder")
		}
		app.db = db
	}

	app.manager.OnPhaseChange(app.notifyPhaseChange)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.watchLoop(ctx)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	for update := range bot.GetUpdatesChan(updateConfig) {
		if update.Message != nil {
			app.handleMessage(update.Message)
		}
	}
}

// chatStateLocked returns the chat's state, creating it on first contact.
// Callers must hold a.mu.
func (a *botApp) chatStateLocked(chatID int64) *ChatState {
	cs, ok := a.chats[chatID]
	if !ok {
		cs = &ChatState{Symbol: a.cfg.Symbol, Interval: a.cfg.Interval}
		a.chats[chatID] = cs
	}
	return cs
}

// chatState returns a copy of the chat's state. The watch loop reads chat
// state concurrently, so shared pointers never leave the mutex.
func (a *botApp) chatState(chatID int64) ChatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.chatStateLocked(chatID)
}

// updateChat applies a mutation to the chat's state under the lock and
// returns the resulting copy.
func (a *botApp) updateChat(chatID int64, fn func(*ChatState)) ChatState {
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.chatStateLocked(chatID)
	fn(cs)
	return *cs
}

func (a *botApp) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	cs := a.chatState(chatID)

	parts := strings.Fields(message.Text)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "/start":
		a.reply(chatID, "Blackprint phase watcher.\n"+
			"/phase - current market phase\n"+
			"/signal - entry signal check\n"+
			"/symbol <pair> - set instrument\n"+
			"/interval <tf> - set timeframe\n"+
			"/index <name> - set reference index\n"+
			"/watch - notify on phase changes\n"+
			"/history - recent phase changes")
	case "/symbol":
		if len(parts) < 2 {
			a.reply(chatID, fmt.Sprintf("Current symbol: %s", cs.Symbol))
			return
		}
		cs = a.updateChat(chatID, func(cs *ChatState) {
			cs.Symbol = strings.ToUpper(parts[1])
		})
		a.reply(chatID, fmt.Sprintf("Symbol set to %s", cs.Symbol))
	case "/interval":
		if len(parts) < 2 {
			a.reply(chatID, fmt.Sprintf("Current interval: %s\nSupported: %s",
				cs.Interval, strings.Join(supportedIntervals, ", ")))
			return
		}
		for _, iv := range supportedIntervals {
			if parts[1] == iv {
				a.updateChat(chatID, func(cs *ChatState) { cs.Interval = iv })
				a.reply(chatID, fmt.Sprintf("Interval set to %s", iv))
				return
			}
		}
		a.reply(chatID, fmt.Sprintf("Unsupported interval %q. Supported: %s",
			parts[1], strings.Join(supportedIntervals, ", ")))
	case "/index":
		if len(parts) < 2 {
			a.reply(chatID, fmt.Sprintf("Current reference index: %s", a.detector.Config().Index))
			return
		}
		index := model.MarketIndex(strings.ToUpper(parts[1]))
		if !index.Valid() {
			a.reply(chatID, fmt.Sprintf("Unknown index %q", parts[1]))
			return
		}
		a.detector.SetIndex(index)
		a.reply(chatID, fmt.Sprintf("Reference index set to %s (%s)", index, index.Symbol()))
	case "/watch":
		cs = a.updateChat(chatID, func(cs *ChatState) { cs.Watching = !cs.Watching })
		if cs.Watching {
			a.reply(chatID, fmt.Sprintf("Watching %s, you will be notified on phase changes.", cs.Symbol))
		} else {
			a.reply(chatID, "Watch disabled.")
		}
	case "/phase":
		a.runPhaseReport(chatID, cs)
	case "/signal":
		a.runSignalCheck(chatID, cs)
	case "/history":
		a.sendHistory(chatID, cs)
	}
}

func (a *botApp) runPhaseReport(chatID int64, cs ChatState) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.RequestTimeout)*time.Second)
	defer cancel()

	p, metrics, err := a.evaluate(ctx, cs)
	if err != nil {
		a.logger.Error().Err(err).Str("symbol", cs.Symbol).Msg("Phase evaluation failed")
		a.reply(chatID, "Sorry, could not evaluate the market right now.")
		return
	}
	a.reply(chatID, state.FormatReport(p, metrics))
}

func (a *botApp) runSignalCheck(chatID int64, cs ChatState) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.RequestTimeout)*time.Second)
	defer cancel()

	candles, err := a.client.GetCandles(ctx, cs.Symbol, cs.Interval, a.cfg.CandleCount)
	if err != nil {
		a.logger.Error().Err(err).Str("symbol", cs.Symbol).Msg("Candle fetch failed")
		a.reply(chatID, "Sorry, could not fetch market data right now.")
		return
	}

	_, metrics, err := a.manager.Update(cs.Symbol, candles)
	if err != nil {
		a.reply(chatID, "Not enough history yet for a reliable signal.")
		return
	}

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

	switch {
	case signal.LongEntry(snapshot):
		a.reply(chatID, fmt.Sprintf("%s: LONG entry conditions met at %.4f", cs.Symbol, metrics.Close))
	case signal.ShortEntry(snapshot):
		a.reply(chatID, fmt.Sprintf("%s: SHORT entry conditions met at %.4f", cs.Symbol, metrics.Close))
	default:
		a.reply(chatID, fmt.Sprintf("%s: no entry conditions at %.4f", cs.Symbol, metrics.Close))
	}
}

func (a *botApp) sendHistory(chatID int64, cs ChatState) {
	if a.db == nil {
		a.reply(chatID, "Phase history is not enabled.")
		return
	}

	events, err := a.db.RecentEvents(cs.Symbol, 10)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to load phase history")
		a.reply(chatID, "Sorry, could not load phase history.")
		return
	}
	if len(events) == 0 {
		a.reply(chatID, fmt.Sprintf("No recorded phase changes for %s yet.", cs.Symbol))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent phase changes for %s:\n", cs.Symbol)
	for _, e := range events {
		fmt.Fprintf(&b, "%s  %s  close %.4f\n",
			e.RecordedAt.Format("2006-01-02 15:04"), strings.ToUpper(string(e.Phase)), e.Close)
	}
	a.reply(chatID, b.String())
}

// evaluate fetches instrument and index candles and runs one evaluation.
func (a *botApp) evaluate(ctx context.Context, cs ChatState) (model.MarketPhase, model.MarketMetrics, error) {
	candles, err := a.client.GetCandles(ctx, cs.Symbol, cs.Interval, a.cfg.CandleCount)
	if err != nil {
		return model.PhaseUnordered, model.MarketMetrics{}, err
	}

	if index := a.detector.Config().Index; index != "" {
		indexCandles, err := a.client.GetIndexCandles(ctx, index, cs.Interval, a.cfg.CandleCount)
		if err != nil {
			a.logger.Warn().Err(err).Str("index", string(index)).Msg("Reference index fetch failed")
		} else {
			a.detector.UpdateIndexData(indexCandles)
		}
	}

	p, metrics, err := a.manager.Update(cs.Symbol, candles)
	if err != nil {
		// Degrade to the insufficient-data report instead of failing the chat command.
		metrics.Symbol = cs.Symbol
		return model.PhaseUnordered, metrics, nil
	}
	return p, metrics, nil
}

// watchLoop periodically re-evaluates every watched symbol; phase changes
// reach the chats through the state manager's callback.
func (a *botApp) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.cfg.PollInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, cs := range a.watchedChats() {
				if _, _, err := a.evaluate(ctx, cs); err != nil {
					a.logger.Warn().Err(err).Str("symbol", cs.Symbol).Msg("Watch evaluation failed")
				}
			}
		}
	}
}

// watchedChats returns value copies of the watched chat states, one per
// symbol.
func (a *botApp) watchedChats() []ChatState {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool)
	var out []ChatState
	for _, cs := range a.chats {
		if cs.Watching && !seen[cs.Symbol] {
			seen[cs.Symbol] = true
			out = append(out, *cs)
		}
	}
	return out
}

// notifyPhaseChange pushes a phase transition to every chat watching the
// symbol and records it when the recorder is enabled.
func (a *botApp) notifyPhaseChange(symbol string, p model.MarketPhase, metrics model.MarketMetrics) {
	if a.db != nil {
		if err := a.db.RecordPhaseChange(symbol, p, metrics); err != nil {
			a.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to record phase change")
		}
	}

	a.mu.Lock()
	var targets []int64
	for chatID, cs := range a.chats {
		if cs.Watching && cs.Symbol == symbol {
			targets = append(targets, chatID)
		}
	}
	a.mu.Unlock()

	text := fmt.Sprintf("%s phase changed to %s\n\n%s",
		symbol, strings.ToUpper(string(p)), state.FormatReport(p, metrics))
	for _, chatID := range targets {
		a.reply(chatID, text)
	}
}

func (a *botApp) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
