// Package api serves scenes and question answers over HTTP, along with
// health, readiness, metrics and a live event stream.
//
// Its tests use the standard testing package with httptest, like the
// other service packages (config, events, mqtt, storage/postgres).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/question"
	"github.com/AaronLay10/cyclist/internal/scene"
	"github.com/AaronLay10/cyclist/internal/storage/postgres"
	"github.com/AaronLay10/cyclist/internal/version"
)

// Server answers questions about the scenes of one split.
type Server struct {
	records *scene.RecordStore
	engine  *question.Engine
	split   string
}

// NewServer returns a server reading records of split from records.
func NewServer(records *scene.RecordStore, engine *question.Engine, split string) *Server {
	if engine == nil {
		engine = question.NewEngine()
	}
	return &Server{records: records, engine: engine, split: split}
}

type readinessState struct {
	mu                sync.RWMutex
	recordsReady      bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{mqttOptional: true, postgresOptional: true}

// SetRecordsReady marks the scene record directory as readable.
func SetRecordsReady(ready bool) {
	readiness.mu.Lock()
	readiness.recordsReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records the broker connection state and whether the
// service can run without it.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetPostgresState records the database connection state and whether the
// service can run without it.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
	readiness.mu.Unlock()
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckStatus `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "cyclist-api",
		Version:   version.Version,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func check(ok, optional bool) CheckStatus {
	switch {
	case ok:
		return CheckStatus{Status: "ok", Optional: optional}
	case optional:
		return CheckStatus{Status: "unavailable", Optional: true}
	default:
		return CheckStatus{Status: "not_ready"}
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	checks := map[string]CheckStatus{
		"records":  check(readiness.recordsReady, false),
		"mqtt":     check(readiness.mqttConnected, readiness.mqttOptional),
		"postgres": check(readiness.postgresConnected, readiness.postgresOptional),
	}
	readiness.mu.RUnlock()

	var reasons []string
	for _, name := range []string{"records", "mqtt", "postgres"} {
		if checks[name].Status == "not_ready" {
			reasons = append(reasons, name+" not ready")
		}
	}

	resp := ReadinessResponse{Ready: len(reasons) == 0, Checks: checks}
	status := http.StatusOK
	if !resp.Ready {
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// eventsHandler returns the buffered events, optionally only those whose
// name starts with ?prefix=.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := events.Snapshot()
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeJSON(w, http.StatusOK, snapshot)
		return
	}
	filtered := make([]events.Event, 0, len(snapshot))
	for _, e := range snapshot {
		if strings.HasPrefix(e.Name, prefix) {
			filtered = append(filtered, e)
		}
	}
	writeJSON(w, http.StatusOK, filtered)
}

// eventHistoryHandler returns persisted events from Postgres.
func eventHistoryHandler(w http.ResponseWriter, r *http.Request) {
	client := events.GetPostgresClient()
	if client == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "event history requires postgres"})
		return
	}
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	rows, err := client.Query(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// loadScene reads a scene from the record directory, then from Postgres.
func (s *Server) loadScene(index int) (*scene.Scene, error) {
	sc, err := s.records.LoadIndex(s.split, index)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return sc, err
	}
	client := events.GetPostgresClient()
	if client == nil {
		return nil, err
	}
	row, pgErr := client.LoadScene(s.split, index)
	if pgErr != nil {
		return nil, err
	}
	return scene.ParseRecord(row.Record)
}

func (s *Server) sceneIndex(w http.ResponseWriter, raw string) (int, bool) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "scene index must be a non-negative integer"})
		return 0, false
	}
	return index, true
}

func (s *Server) sceneHandler(w http.ResponseWriter, r *http.Request) {
	index, ok := s.sceneIndex(w, r.PathValue("index"))
	if !ok {
		return
	}
	sc, err := s.loadScene(index)
	if err != nil {
		writeSceneError(w, index, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func writeSceneError(w http.ResponseWriter, index int, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("scene %d not found", index)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// AnswerRequest asks one question about one scene.
type AnswerRequest struct {
	QuestionIndex   int               `json:"question_index"`
	SceneIndex      int               `json:"scene_index"`
	Program         *question.Program `json:"program"`
	CheckDegenerate bool              `json:"check_degenerate"`
}

func (s *Server) answerHandler(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
		return
	}
	if req.Program == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "program required"})
		return
	}
	if req.SceneIndex < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "scene index must be a non-negative integer"})
		return
	}

	sc, err := s.loadScene(req.SceneIndex)
	if err != nil {
		writeSceneError(w, req.SceneIndex, err)
		return
	}
	if !sc.Rendered && sc.Relationships == nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: fmt.Sprintf("scene %d is not finalized yet", req.SceneIndex)})
		return
	}

	// Requests share nothing, but the memo is bound to one view.
	res := s.engine.Evaluate(question.Question{
		QuestionIndex: req.QuestionIndex,
		SceneIndex:    req.SceneIndex,
		Program:       req.Program.Clone(),
	}, question.NewView(sc), req.CheckDegenerate)
	if res.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}

	if client := events.GetPostgresClient(); client != nil {
		program, _ := json.Marshal(req.Program)
		err := client.SaveAnswer(postgres.AnswerRow{
			Split:         s.split,
			SceneIndex:    req.SceneIndex,
			QuestionIndex: req.QuestionIndex,
			Program:       program,
			Answer:        res.Answer.String(),
			Degenerate:    res.Degenerate,
		})
		if err != nil {
			log.Printf("failed to store answer: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler)
	mux.HandleFunc("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /events", RequireAnyRole(eventsHandler))
	mux.HandleFunc("GET /events/history", RequireAdmin(eventHistoryHandler))
	mux.HandleFunc("GET /ws/events", RequireAnyRole(wsEventsHandler))
	mux.HandleFunc("GET /scenes/{index}", RequireAnyRole(s.sceneHandler))
	mux.HandleFunc("POST /questions/answer", RequireAnyRole(s.answerHandler))
	return mux
}

// ListenAndServe serves the API on port, over TLS when configured.
// It blocks until the server exits.
func (s *Server) ListenAndServe(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	cfg, err := LoadTLSConfig()
	if err != nil {
		return err
	}
	if cfg != nil {
		srv.TLSConfig = cfg
		log.Printf("API listening on %s (TLS)\n", srv.Addr)
		return srv.ListenAndServeTLS("", "")
	}
	log.Printf("API listening on %s\n", srv.Addr)
	return srv.ListenAndServe()
}

// Start serves the API in a goroutine. Errors are logged but do not stop
// the caller.
func (s *Server) Start(port int) {
	go func() {
		if err := s.ListenAndServe(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api server error: %v", err)
		}
	}()
}
