package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEmitRejectsUnknownEvent(t *testing.T) {
	if _, err := Emit("info", "puzzle.solved", "", nil); err == nil {
		t.Fatal("expected error for unregistered event name")
	}
}

func TestEmitReturnsJSON(t *testing.T) {
	b, err := Emit("info", "scene.written", "saved", map[string]interface{}{"scene_index": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if e.Name != "scene.written" || e.Message != "saved" || e.Level != "info" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestSetOutputFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	defer SetOutput(nil, "info")

	Emit("debug", "generation.state", "", nil)
	Emit("warning", "generation.restarted", "retry", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"event":"generation.restarted"`) {
		t.Errorf("unexpected line: %s", lines[0])
	}
}

func TestCountsAndClear(t *testing.T) {
	Clear()

	Emit("info", "question.answered", "", nil)
	Emit("info", "question.answered", "", nil)
	Emit("info", "question.invalid", "", nil)

	if got := Count("question.answered"); got != 2 {
		t.Errorf("expected 2 answered, got %d", got)
	}
	if got := TotalCount(); got != 3 {
		t.Errorf("expected total 3, got %d", got)
	}

	Clear()
	if got := Count("question.answered"); got != 0 {
		t.Errorf("expected 0 after clear, got %d", got)
	}
	if len(Snapshot()) != 0 {
		t.Errorf("expected empty snapshot after clear")
	}
}
