package story

import (
	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
)

// VariableSink receives every committed variable change. The MQTT
// publisher implements it; tests use it to observe mutations.
type VariableSink interface {
	VariableChanged(name string, value arcscript.Value)
}

// VariableSinkFunc adapts a plain func to VariableSink.
type VariableSinkFunc func(name string, value arcscript.Value)

// VariableChanged implements VariableSink.
func (f VariableSinkFunc) VariableChanged(name string, value arcscript.Value) {
	f(name, value)
}

// AddVariableSink registers s for variable changes.
func (r *Runtime) AddVariableSink(s VariableSink) {
	r.sinks = append(r.sinks, s)
}

// variableChanged is the context's single observer. It records the change
// with its type, so the log can rebuild exact values, then fans out.
func (r *Runtime) variableChanged(name string, v arcscript.Value) {
	events.Emit("info", "variable.changed", "", map[string]interface{}{
		"node_id": r.current,
		"name":    name,
		"value":   v.Interface(),
		"type":    v.Kind().String(),
	})
	for _, s := range r.sinks {
		s.VariableChanged(name, v)
	}
}

func (r *Runtime) visitsReset() {
	events.Emit("info", "visits.reset", "", map[string]interface{}{"node_id": r.current})
}

func (r *Runtime) diagnostic(d arcscript.Diagnostic) {
	name := "script.warning"
	level := "warn"
	if d.Severity == arcscript.SeverityError {
		name = "script.error"
		level = "error"
	}
	events.Emit(level, name, d.Message, map[string]interface{}{
		"kind":    d.Kind.String(),
		"source":  d.Source,
		"node_id": d.NodeID,
	})
}
