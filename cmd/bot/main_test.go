package main

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Alias1177/Blackprint/internal/config"
)

func newTestApp() *botApp {
	return &botApp{
		cfg:   &config.Config{Symbol: "EUR/USD", Interval: "15min"},
		chats: make(map[int64]*ChatState),
	}
}

func TestChatStateDefaults(t *testing.T) {
	app := newTestApp()

	cs := app.chatState(1)
	if cs.Symbol != "EUR/USD" || cs.Interval != "15min" || cs.Watching {
		t.Errorf("first contact state = %+v, want config defaults with watch off", cs)
	}
}

func TestUpdateChatAndWatchedChats(t *testing.T) {
	app := newTestApp()

	app.updateChat(1, func(cs *ChatState) {
		cs.Symbol = "GBP/JPY"
		cs.Watching = true
	})
	app.updateChat(2, func(cs *ChatState) {
		cs.Symbol = "GBP/JPY"
		cs.Watching = true
	})
	app.updateChat(3, func(cs *ChatState) { cs.Symbol = "USD/CHF" })

	watched := app.watchedChats()
	if len(watched) != 1 {
		t.Fatalf("watchedChats returned %d entries, want 1 per watched symbol", len(watched))
	}
	if watched[0].Symbol != "GBP/JPY" {
		t.Errorf("watched symbol = %q, want GBP/JPY", watched[0].Symbol)
	}

	// The returned states are copies; mutating one must not reach the map.
	watched[0].Symbol = "MUTATED"
	if cs := app.chatState(1); cs.Symbol != "GBP/JPY" {
		t.Errorf("stored symbol = %q after mutating a copy, want GBP/JPY", cs.Symbol)
	}
}

// Run with -race: command handling and the watch loop touch chat state from
// different goroutines.
func TestChatStateConcurrentAccess(t *testing.T) {
	app := newTestApp()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		chatID := int64(w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				app.updateChat(chatID, func(cs *ChatState) {
					cs.Symbol = fmt.Sprintf("PAIR/%d", i%3)
					cs.Watching = i%2 == 0
				})
				_ = app.chatState(chatID)
				for _, cs := range app.watchedChats() {
					_ = cs.Symbol
					_ = cs.Interval
				}
			}
		}()
	}
	wg.Wait()
}
