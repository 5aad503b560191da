package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Alias1177/Blackprint/internal/model"
)

// DB records phase-change events in PostgreSQL so the notification layer can
// show recent history. It is not part of the detector: the detector stays
// stateless and this store only ever sees its outputs.
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PhaseEvent is one recorded phase transition.
type PhaseEvent struct {
	ID         int64
	Symbol     string
	Interval   string
	Phase      model.MarketPhase
	Close      float64
	Momentum   float64
	RecordedAt time.Time
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS phase_events (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			phase TEXT NOT NULL,
			close_price DOUBLE PRECISION NOT NULL,
			momentum DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// RecordPhaseChange stores one phase transition.
func (db *DB) RecordPhaseChange(symbol string, p model.MarketPhase, metrics model.MarketMetrics) error {
	_, err := db.Exec(`
		INSERT INTO phase_events (symbol, interval, phase, close_price, momentum, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, symbol, metrics.Interval, string(p), metrics.Close, metrics.Momentum, time.Now())
	return err
}

// RecentEvents returns the most recent phase transitions for a symbol,
// newest first.
func (db *DB) RecentEvents(symbol string, limit int) ([]PhaseEvent, error) {
	rows, err := db.Query(`
		SELECT id, symbol, interval, phase, close_price, momentum, recorded_at
		FROM phase_events
		WHERE symbol = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PhaseEvent
	for rows.Next() {
		var e PhaseEvent
		var phase string
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Interval, &phase, &e.Close, &e.Momentum, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Phase = model.MarketPhase(phase)
		events = append(events, e)
	}

	return events, rows.Err()
}
