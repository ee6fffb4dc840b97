package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu        sync.RWMutex
	startTime time.Time
	dataset   string
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics(dataset string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
	metricsState.dataset = dataset
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	dataset := metricsState.dataset
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	labels := fmt.Sprintf(`dataset="%s",instance="%s",version="%s"`, dataset, hostname, version.Version)

	writeMetric("cyclist_uptime_seconds", "gauge",
		"Number of seconds since the service started", time.Since(startTime).Seconds(), labels)
	writeMetric("cyclist_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount(), labels)
	writeMetric("cyclist_scenes_generated_total", "counter",
		"Scenes generated by this process", events.Count("scene.generated"), labels)
	writeMetric("cyclist_scenes_failed_total", "counter",
		"Scenes that exhausted their restarts", events.Count("scene.failed"), labels)
	writeMetric("cyclist_questions_answered_total", "counter",
		"Questions answered with a valid answer", events.Count("question.answered")+events.Count("question.degenerate"), labels)
	writeMetric("cyclist_questions_invalid_total", "counter",
		"Questions whose answer is undecidable", events.Count("question.invalid"), labels)
	writeMetric("cyclist_questions_degenerate_total", "counter",
		"Questions whose relate steps carry no information", events.Count("question.degenerate"), labels)
	writeMetric("cyclist_questions_failed_total", "counter",
		"Questions with malformed programs", events.Count("question.failed"), labels)
	writeMetric("cyclist_mqtt_connected", "gauge",
		"Whether the MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected), labels)
	writeMetric("cyclist_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected), labels)
	writeMetric("cyclist_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount(), labels)
}
