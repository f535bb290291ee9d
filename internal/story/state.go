package story

import "github.com/AaronLay10/ArcEngine/internal/arcscript"

// State is a point-in-time copy of the runtime state.
type State struct {
	Started   bool                       `json:"started"`
	NodeID    string                     `json:"node_id"`
	Ended     bool                       `json:"ended"`
	History   []string                   `json:"history"`
	Variables map[string]arcscript.Value `json:"variables"`
	Visits    map[string]int             `json:"visits"`
}

// Snapshot copies the current state.
func (r *Runtime) Snapshot() State {
	s := State{
		Started:   r.turn != nil,
		NodeID:    r.current,
		History:   append([]string(nil), r.history...),
		Variables: r.ctx.Store().Snapshot(),
		Visits:    r.ctx.Visits().Snapshot(),
	}
	if r.turn != nil {
		s.Ended = r.turn.Ended
	}
	return s
}
