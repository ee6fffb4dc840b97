// Package events is the structured event log: a registry of event names,
// a ring buffer, optional Postgres persistence and live subscribers.
// Tests use the standard testing package.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/AaronLay10/cyclist/internal/storage/postgres"
)

var buffer = NewRingBuffer(256)

var (
	pgClient      *postgres.Client
	pgMu          sync.RWMutex
	pgErrorLogged bool
)

var (
	outMu    sync.Mutex
	out      io.Writer
	outLevel = levelInfo

	countMu sync.Mutex
	counts  = make(map[string]uint64)
)

const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

func levelRank(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "warning", "warn":
		return levelWarning
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// SetPostgresClient sets the Postgres client for event persistence.
func SetPostgresClient(client *postgres.Client) {
	pgMu.Lock()
	pgClient = client
	pgErrorLogged = false
	pgMu.Unlock()
}

// GetPostgresClient returns the current Postgres client (for API queries).
func GetPostgresClient() *postgres.Client {
	pgMu.RLock()
	defer pgMu.RUnlock()
	return pgClient
}

// SetOutput writes every event at or above minLevel to w as one JSON line.
// A nil writer disables output.
func SetOutput(w io.Writer, minLevel string) {
	outMu.Lock()
	out = w
	outLevel = levelRank(minLevel)
	outMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	broadcast(e)

	countMu.Lock()
	counts[name]++
	countMu.Unlock()

	// Persist to Postgres (non-blocking, error-resistant)
	pgMu.RLock()
	client := pgClient
	errorLogged := pgErrorLogged
	pgMu.RUnlock()

	if client != nil && levelRank(level) > levelDebug {
		if err := client.Append(ts, level, name, msg, fields); err != nil {
			// Added straight to the buffer, not through Emit, so a failing
			// database cannot recurse.
			if !errorLogged {
				pgMu.Lock()
				if !pgErrorLogged {
					pgErrorLogged = true
					pgMu.Unlock()
					buffer.Add(Event{
						Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
						Level:     "error",
						Name:      "system.error",
						Message:   "postgres append failed",
						Fields: map[string]interface{}{
							"error": err.Error(),
						},
					})
				} else {
					pgMu.Unlock()
				}
			}
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	outMu.Lock()
	if out != nil && levelRank(level) >= outLevel {
		out.Write(append(b, '\n'))
	}
	outMu.Unlock()

	return b, nil
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since start or the last Clear.
func TotalCount() uint64 {
	return buffer.Total()
}

// Count returns how many events with the given name were emitted.
func Count(name string) uint64 {
	countMu.Lock()
	defer countMu.Unlock()
	return counts[name]
}

// Clear resets the event buffer and counters. Used for testing.
func Clear() {
	buffer.Clear()
	countMu.Lock()
	counts = make(map[string]uint64)
	countMu.Unlock()
}
