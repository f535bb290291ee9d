package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// story
	"story.started": {},
	"story.ended":   {},
	"story.reset":   {},

	// navigation
	"node.entered":    {},
	"node.back":       {},
	"choice.selected": {},

	// state
	"variable.changed":  {},
	"variable.rejected": {},
	"visits.reset":      {},

	// diagnostics
	"script.error":   {},
	"script.warning": {},
	"graph.error":    {},

	// operator
	"operator.jump":  {},
	"operator.set":   {},
	"operator.reset": {},

	// system
	"system.startup":         {},
	"system.startup_restore": {},
	"system.shutdown":        {},
	"system.error":           {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
