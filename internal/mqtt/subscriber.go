package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/cyclist/internal/events"
	"github.com/AaronLay10/cyclist/internal/scene"
)

// RecordMarker finalizes a scene record once its video exists.
type RecordMarker interface {
	MarkRendered(file string, renderTime float64, directions map[string][]float64) (*scene.Scene, error)
}

// RenderDispatcher publishes render jobs and consumes completion reports.
// Listening is idempotent across reconnects.
type RenderDispatcher struct {
	mu        sync.Mutex
	transport Transport
	tracker   *JobTracker
	records   RecordMarker
	jobsTopic string
	doneTopic string
	listening bool

	// OnFinalized, when set, is called with every finalized scene.
	OnFinalized func(*scene.Scene)
}

func NewRenderDispatcher(transport Transport, tracker *JobTracker, records RecordMarker, prefix string) *RenderDispatcher {
	jobs, done := Topics(prefix)
	return &RenderDispatcher{
		transport: transport,
		tracker:   tracker,
		records:   records,
		jobsTopic: jobs,
		doneTopic: done,
	}
}

// Dispatch publishes the render job of a saved scene.
func (d *RenderDispatcher) Dispatch(s *scene.Scene) error {
	job := JobFor(s)
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.transport.Publish(d.jobsTopic, payload); err != nil {
		events.Emit("error", "render.failed", "failed to publish render job", map[string]interface{}{
			"scene_config_file": job.SceneConfigFile,
			"error":             err.Error(),
		})
		return fmt.Errorf("dispatch %s: %w", job.SceneConfigFile, err)
	}
	d.tracker.Add(job)
	events.Emit("info", "render.dispatched", "", map[string]interface{}{
		"scene_index":       job.SceneIndex,
		"scene_config_file": job.SceneConfigFile,
		"topic":             d.jobsTopic,
	})
	return nil
}

// Listen subscribes to the completion topic once.
func (d *RenderDispatcher) Listen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listening {
		return nil
	}
	if err := d.transport.Subscribe(d.doneTopic, d.handleDone); err != nil {
		return err
	}
	d.listening = true
	return nil
}

// Reset forgets the subscription so the next Listen subscribes again.
// Call it after the broker connection was lost.
func (d *RenderDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listening = false
}

func (d *RenderDispatcher) Listening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

func (d *RenderDispatcher) handleDone(_ paho.Client, msg paho.Message) {
	d.HandleCompletion(msg.Payload())
}

// HandleCompletion processes one completion payload.
func (d *RenderDispatcher) HandleCompletion(payload []byte) {
	done, err := ParseRenderDone(payload)
	if err != nil {
		events.Emit("error", "render.failed", "invalid render completion", map[string]interface{}{
			"topic": d.doneTopic,
			"error": err.Error(),
		})
		return
	}

	pending, tracked := d.tracker.Complete(done.SceneConfigFile)
	if done.Error != "" {
		events.Emit("error", "render.failed", done.Error, map[string]interface{}{
			"scene_config_file": done.SceneConfigFile,
			"tracked":           tracked,
		})
		return
	}

	s, err := d.records.MarkRendered(done.SceneConfigFile, done.RenderTime, done.Directions)
	if err != nil {
		events.Emit("error", "render.failed", "failed to finalize scene record", map[string]interface{}{
			"scene_config_file": done.SceneConfigFile,
			"error":             err.Error(),
		})
		return
	}

	fields := map[string]interface{}{
		"scene_index":       s.Index,
		"scene_config_file": done.SceneConfigFile,
		"render_time":       done.RenderTime,
		"tracked":           tracked,
	}
	if tracked {
		fields["waited_sec"] = d.tracker.now().Sub(pending.DispatchedAt).Seconds()
	}
	events.Emit("info", "render.completed", "", fields)
	events.Emit("info", "scene.finalized", "", map[string]interface{}{
		"scene_index":       s.Index,
		"scene_config_file": done.SceneConfigFile,
		"relations":         len(s.Relationships),
	})

	if d.OnFinalized != nil {
		d.OnFinalized(s)
	}
}
