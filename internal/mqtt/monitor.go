package mqtt

import (
	"sync"
	"time"

	"github.com/AaronLay10/cyclist/internal/events"
)

// Monitor fails render jobs that have been pending longer than a timeout.
type Monitor struct {
	tracker *JobTracker
	timeout time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.RWMutex
	expired []PendingJob
}

// NewMonitor creates a monitor. A non-positive timeout defaults to 30 minutes.
func NewMonitor(tracker *JobTracker, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Monitor{
		tracker: tracker,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background check loop.
func (m *Monitor) Start(checkInterval time.Duration) {
	m.wg.Add(1)
	go m.checkLoop(checkInterval)
}

// Stop stops the background check loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) checkLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *Monitor) check() {
	expired := m.tracker.Expire(m.timeout)
	if len(expired) == 0 {
		return
	}

	m.mu.Lock()
	m.expired = append(m.expired, expired...)
	m.mu.Unlock()

	for _, job := range expired {
		events.Emit("warning", "render.failed", "render timeout", map[string]interface{}{
			"scene_index":       job.Job.SceneIndex,
			"scene_config_file": job.Job.SceneConfigFile,
			"dispatched_at":     job.DispatchedAt.Format(time.RFC3339),
			"timeout_sec":       m.timeout.Seconds(),
		})
	}
}

// Expired returns the jobs the monitor has failed so far.
func (m *Monitor) Expired() []PendingJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PendingJob(nil), m.expired...)
}
