package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// generation
	"generation.started":   {},
	"generation.state":     {},
	"generation.restarted": {},
	"generation.exhausted": {},

	// object
	"object.placed": {},

	// scene
	"scene.generated": {},
	"scene.failed":    {},
	"scene.written":   {},
	"scene.finalized": {},

	// render
	"render.dispatched": {},
	"render.completed":  {},
	"render.failed":     {},

	// preview
	"preview.written": {},

	// question
	"question.answered":   {},
	"question.invalid":    {},
	"question.degenerate": {},
	"question.failed":     {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
