package story

import (
	"encoding/json"
	"fmt"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/storage"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 1000

// RestoredState is the story state reconstructed from the event log.
type RestoredState struct {
	Active    bool
	NodeID    string
	History   []string
	Variables map[string]arcscript.Value
	Visits    map[string]int
}

// RestoreFromEvents loads recent events from the store and replays them.
// Returns nil if store is nil or holds no events.
func RestoreFromEvents(store storage.EventStore, limit int) (*RestoredState, int, error) {
	if store == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := store.Query(limit)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	return ReplayEvents(storage.Chronological(rows)), len(rows), nil
}

// ReplayEvents folds events, oldest first, into a RestoredState.
func ReplayEvents(rows []storage.EventRow) *RestoredState {
	state := newRestoredState()

	for _, row := range rows {
		switch row.Event {
		case "story.started":
			state.Active = true
			state.History = nil

		case "story.reset":
			*state = *newRestoredState()

		case "node.entered":
			nodeID, ok := row.Fields["node_id"].(string)
			if !ok {
				continue
			}
			counted, hasCounted := row.Fields["counted"].(bool)
			if !hasCounted || counted {
				if state.NodeID != "" {
					state.History = append(state.History, state.NodeID)
				}
			} else if n := len(state.History); n > 0 {
				state.History = state.History[:n-1]
			}
			state.Active = true
			state.NodeID = nodeID
			if n, ok := toInt(row.Fields["visits"]); ok {
				state.Visits[nodeID] = n
			}

		case "variable.changed":
			name, ok := row.Fields["name"].(string)
			if !ok {
				continue
			}
			typeName, _ := row.Fields["type"].(string)
			v, err := arcscript.FromTyped(typeName, row.Fields["value"])
			if err != nil {
				continue
			}
			state.Variables[name] = v

		case "visits.reset":
			state.Visits = make(map[string]int)
		}
	}

	return state
}

func newRestoredState() *RestoredState {
	return &RestoredState{
		Variables: make(map[string]arcscript.Value),
		Visits:    make(map[string]int),
	}
}

func toInt(x interface{}) (int, bool) {
	switch n := x.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// ApplyRestoredState applies restored state to the runtime. Content is
// re-evaluated for display only; no assignments run and no navigation
// events are emitted.
func (r *Runtime) ApplyRestoredState(state *RestoredState) error {
	if state == nil || !state.Active || state.NodeID == "" {
		return nil
	}
	el, ok := r.project.Elements[state.NodeID]
	if !ok {
		return fmt.Errorf("restored element not found: %s", state.NodeID)
	}

	for name, v := range state.Variables {
		r.ctx.Store().Set(name, v)
	}
	r.ctx.Visits().Reset()
	for key, n := range state.Visits {
		r.ctx.Visits().Set(key, n)
	}
	r.history = append([]string(nil), state.History...)
	r.current = state.NodeID
	r.ctx.SetCurrentNode(state.NodeID)

	text := r.ctx.Evaluate(r.text.ContentText(state.NodeID), true)
	choices, err := r.resolver.ResolveChoices(state.NodeID)
	if err != nil {
		r.graphError(state.NodeID, err)
		return err
	}
	r.turn = &Turn{
		NodeID:  state.NodeID,
		Title:   el.Title,
		Text:    text,
		Choices: choices,
		Ended:   len(choices) == 0,
	}
	return nil
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, storyID string) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"restored": restored,
		"story_id": storyID,
	})
}
