// Package postgres stores events, scene records and answers.
// Tests use the standard testing package.
package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Dataset   string                 `json:"dataset"`
}

// SceneRow is a stored scene record.
type SceneRow struct {
	Split      string          `json:"split"`
	SceneIndex int             `json:"scene_index"`
	Rendered   bool            `json:"rendered"`
	Record     json.RawMessage `json:"record"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AnswerRow is a stored question answer.
type AnswerRow struct {
	Split         string          `json:"split"`
	SceneIndex    int             `json:"scene_index"`
	QuestionIndex int             `json:"question_index"`
	Program       json.RawMessage `json:"program"`
	Answer        string          `json:"answer"`
	Degenerate    bool            `json:"degenerate"`
}

// Client manages the Postgres connection for events, scenes and answers.
type Client struct {
	db      *sql.DB
	dataset string
}

// DSN builds a connection string from the standard PG* environment variables.
func DSN() string {
	host := getEnv("PGHOST", "127.0.0.1")
	port := getEnv("PGPORT", "5432")
	user := getEnv("PGUSER", "cyclist")
	dbname := getEnv("PGDATABASE", "cyclist")
	password := os.Getenv("PGPASSWORD")

	if password != "" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
}

// New connects using DSN and creates the tables if needed. dataset tags
// every row so several datasets can share one database.
func New(dataset string) (*Client, error) {
	db, err := sql.Open("postgres", DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:      db,
		dataset: dataset,
	}

	if err := client.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			dataset    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_dataset ON events(dataset);

		CREATE TABLE IF NOT EXISTS scenes (
			dataset     TEXT NOT NULL,
			split       TEXT NOT NULL,
			scene_index INTEGER NOT NULL,
			rendered    BOOLEAN NOT NULL DEFAULT FALSE,
			record      JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (dataset, split, scene_index)
		);

		CREATE TABLE IF NOT EXISTS answers (
			dataset        TEXT NOT NULL,
			split          TEXT NOT NULL,
			scene_index    INTEGER NOT NULL,
			question_index INTEGER NOT NULL,
			program        JSONB NOT NULL,
			answer         TEXT NOT NULL,
			degenerate     BOOLEAN NOT NULL,
			PRIMARY KEY (dataset, split, scene_index, question_index)
		);
	`
	_, err := c.db.Exec(query)
	return err
}

// Append inserts an event into the database.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	var msgPtr *string
	if msg != "" {
		msgPtr = &msg
	}

	query := `
		INSERT INTO events (ts, level, event, msg, fields, dataset)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = c.db.Exec(query, ts, level, event, msgPtr, fieldsJSON, c.dataset)
	return err
}

// Query returns the last N events from the database in descending order by timestamp.
func (c *Client) Query(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 10000 {
		limit = 10000
	}

	query := `
		SELECT event_id, ts, level, event, msg, fields, dataset
		FROM events
		WHERE dataset = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.Query(query, c.dataset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.Dataset); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// SaveScene upserts a scene record.
func (c *Client) SaveScene(split string, index int, rendered bool, record []byte) error {
	query := `
		INSERT INTO scenes (dataset, split, scene_index, rendered, record, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (dataset, split, scene_index)
		DO UPDATE SET rendered = EXCLUDED.rendered, record = EXCLUDED.record, updated_at = now()
	`
	_, err := c.db.Exec(query, c.dataset, split, index, rendered, record)
	return err
}

// LoadScene returns a stored scene record or sql.ErrNoRows.
func (c *Client) LoadScene(split string, index int) (*SceneRow, error) {
	query := `
		SELECT split, scene_index, rendered, record, updated_at
		FROM scenes
		WHERE dataset = $1 AND split = $2 AND scene_index = $3
	`
	var row SceneRow
	var record []byte
	err := c.db.QueryRow(query, c.dataset, split, index).
		Scan(&row.Split, &row.SceneIndex, &row.Rendered, &record, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	row.Record = record
	return &row, nil
}

// SaveAnswer upserts the answer to one question.
func (c *Client) SaveAnswer(a AnswerRow) error {
	query := `
		INSERT INTO answers (dataset, split, scene_index, question_index, program, answer, degenerate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dataset, split, scene_index, question_index)
		DO UPDATE SET program = EXCLUDED.program, answer = EXCLUDED.answer, degenerate = EXCLUDED.degenerate
	`
	_, err := c.db.Exec(query, c.dataset, a.Split, a.SceneIndex, a.QuestionIndex, []byte(a.Program), a.Answer, a.Degenerate)
	return err
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
