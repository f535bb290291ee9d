package story

import (
	"errors"
	"fmt"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
)

var (
	// ErrNotStarted is returned by navigation before Start.
	ErrNotStarted = errors.New("story not started")
	// ErrUnknownChoice is returned when a connection is not a current choice.
	ErrUnknownChoice = errors.New("connection is not a current choice")
	// ErrNoHistory is returned by Back at the first element.
	ErrNoHistory = errors.New("no previous element")
)

// Turn is what the player sees after arriving at an element.
type Turn struct {
	NodeID  string   `json:"node_id"`
	Title   string   `json:"title"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
	Ended   bool     `json:"ended"`
}

// Runtime plays a project. It owns the evaluation context shared by
// content evaluation and choice resolution. A Runtime is not safe for
// concurrent use; see Session.
type Runtime struct {
	project  *Project
	text     Text
	ctx      *arcscript.Context
	resolver *Resolver
	titles   map[string]string

	current string
	history []string
	turn    *Turn
	sinks   []VariableSink
}

// NewRuntime creates a runtime with every project variable at its initial
// value.
func NewRuntime(p *Project, text Text) *Runtime {
	store := arcscript.NewStore()
	for name, v := range p.Variables {
		store.Set(name, v.initial)
	}

	ctx := arcscript.NewContext(store, arcscript.NewVisits())
	r := &Runtime{
		project: p,
		text:    text,
		ctx:     ctx,
		titles:  make(map[string]string),
	}
	r.resolver = NewResolver(p, text, ctx)

	for id, e := range p.Elements {
		if t := CleanTitle(e.Title); t != "" {
			r.titles[t] = id
		}
	}

	ctx.SetInitialValues(p)
	ctx.SetObserver(r.variableChanged)
	ctx.SetVisitsResetObserver(r.visitsReset)
	ctx.SetDiagnosticSink(r.diagnostic)
	ctx.SetVisitKeyResolver(r.visitKey)
	return r
}

// Context returns the shared evaluation context.
func (r *Runtime) Context() *arcscript.Context {
	return r.ctx
}

// Project returns the project being played.
func (r *Runtime) Project() *Project {
	return r.project
}

// Text returns the content and label provider.
func (r *Runtime) Text() Text {
	return r.text
}

// SetMaxHops bounds branch and jumper chains.
func (r *Runtime) SetMaxHops(n int) {
	r.resolver.SetMaxHops(n)
}

// SetSeed makes random() and roll() deterministic.
func (r *Runtime) SetSeed(seed uint64) {
	r.ctx.SetSeed(seed)
}

// Evaluate runs a script against the story state.
func (r *Runtime) Evaluate(script string, suppressAssignments bool) string {
	return r.ctx.Evaluate(script, suppressAssignments)
}

// EvaluateCondition evaluates a condition against the story state.
func (r *Runtime) EvaluateCondition(script string) bool {
	return r.ctx.EvaluateCondition(script)
}

// ResolveChoices resolves the choices of any element.
func (r *Runtime) ResolveChoices(nodeID string) ([]Choice, error) {
	return r.resolver.ResolveChoices(nodeID)
}

// RegisterFunction adds a host function callable from scripts.
func (r *Runtime) RegisterFunction(name string, fn arcscript.Function) {
	r.ctx.RegisterFunction(name, fn)
}

// RegisterShadowVariable routes reads of name to p.
func (r *Runtime) RegisterShadowVariable(name string, p arcscript.Evaluatable) {
	r.ctx.RegisterShadowVariable(name, p)
}

// Start arrives at the starting element.
func (r *Runtime) Start() (*Turn, error) {
	cp := r.checkpoint()
	r.history = nil
	r.emitEvent("story.started", map[string]interface{}{
		"node_id": r.project.StartingElement,
		"project": r.project.Name,
	})
	return r.arriveOrRollback(cp, r.project.StartingElement, true)
}

// Current returns the last turn, or nil before Start.
func (r *Runtime) Current() *Turn {
	return r.turn
}

// Select commits a current choice: assignments in its label run for real,
// then the runtime arrives at the target.
func (r *Runtime) Select(connectionID string) (*Turn, error) {
	if r.turn == nil {
		return nil, ErrNotStarted
	}

	var chosen *Choice
	for i := range r.turn.Choices {
		if r.turn.Choices[i].ConnectionID == connectionID {
			chosen = &r.turn.Choices[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChoice, connectionID)
	}
	ch := *chosen

	cp := r.checkpoint()
	r.ctx.SetCurrentNode(r.current)
	if ch.RawLabel != "" {
		r.ctx.Evaluate(ch.RawLabel, false)
	}

	r.emitEvent("choice.selected", map[string]interface{}{
		"node_id":       r.current,
		"connection_id": ch.ConnectionID,
		"target_id":     ch.TargetNodeID,
		"label":         ch.Label,
	})

	r.history = append(r.history, r.current)
	return r.arriveOrRollback(cp, ch.TargetNodeID, true)
}

// Back returns to the previous element without counting a visit.
// Variable changes are not undone.
func (r *Runtime) Back() (*Turn, error) {
	if r.turn == nil {
		return nil, ErrNotStarted
	}
	if len(r.history) == 0 {
		return nil, ErrNoHistory
	}
	cp := r.checkpoint()
	prev := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]

	r.emitEvent("node.back", map[string]interface{}{
		"from": r.current,
		"to":   prev,
	})
	return r.arriveOrRollback(cp, prev, false)
}

// Jump moves to any element as an operator action.
func (r *Runtime) Jump(nodeID string) (*Turn, error) {
	if _, ok := r.project.Elements[nodeID]; !ok {
		return nil, fmt.Errorf("element not found: %s", nodeID)
	}
	cp := r.checkpoint()
	r.emitEvent("operator.jump", map[string]interface{}{
		"from":    r.current,
		"node_id": nodeID,
	})
	if r.current != "" {
		r.history = append(r.history, r.current)
	}
	return r.arriveOrRollback(cp, nodeID, true)
}

// SetVariable writes a variable as an operator action. The current
// element's choices are re-resolved since conditions may depend on it.
func (r *Runtime) SetVariable(name string, v arcscript.Value) error {
	if !r.ctx.Store().Has(name) {
		return fmt.Errorf("unknown variable: %s", name)
	}
	r.emitEvent("operator.set", map[string]interface{}{
		"name":  name,
		"value": v.Interface(),
		"type":  v.Kind().String(),
	})
	if !r.ctx.SetVariable(name, v) {
		r.emitEvent("variable.rejected", map[string]interface{}{"name": name})
		return fmt.Errorf("variable is read-only: %s", name)
	}
	return r.refresh()
}

// Reset restores every variable to its initial value, clears visits and
// history, and starts again.
func (r *Runtime) Reset() (*Turn, error) {
	r.emitEvent("story.reset", map[string]interface{}{"node_id": r.current})
	for _, name := range sortedKeys(r.project.Variables) {
		v := r.project.Variables[name].initial
		r.ctx.Store().Set(name, v)
		for _, s := range r.sinks {
			s.VariableChanged(name, v)
		}
	}
	r.ctx.Visits().Reset()
	r.current = ""
	r.history = nil
	r.turn = nil
	return r.Start()
}

// checkpoint is the state a failed move returns to.
type checkpoint struct {
	current string
	history []string
	vars    map[string]arcscript.Value
	visits  map[string]int
}

func (r *Runtime) checkpoint() checkpoint {
	return checkpoint{
		current: r.current,
		history: append([]string(nil), r.history...),
		vars:    r.ctx.Store().Snapshot(),
		visits:  r.ctx.Visits().Snapshot(),
	}
}

// arriveOrRollback arrives at nodeID. If the element's choices cannot be
// resolved, every change made since cp is undone so the runtime stays on
// its last good turn.
func (r *Runtime) arriveOrRollback(cp checkpoint, nodeID string, countVisit bool) (*Turn, error) {
	turn, err := r.arrive(nodeID, countVisit)
	if err != nil {
		r.rollback(cp)
		return nil, err
	}
	return turn, nil
}

// rollback restores cp. Variables that changed are reported again with
// their restored values.
func (r *Runtime) rollback(cp checkpoint) {
	r.current = cp.current
	r.history = cp.history
	r.ctx.SetCurrentNode(cp.current)

	visits := r.ctx.Visits()
	visits.Reset()
	for key, n := range cp.visits {
		visits.Set(key, n)
	}

	store := r.ctx.Store()
	for _, name := range sortedKeys(cp.vars) {
		old := cp.vars[name]
		if cur, ok := store.Get(name); ok && cur.Kind() == old.Kind() && arcscript.Equal(cur, old) {
			continue
		}
		store.Set(name, old)
		r.variableChanged(name, old)
	}
}

// arrive is the single entry point for reaching an element: count the
// visit, evaluate content with assignments applied, then resolve choices.
func (r *Runtime) arrive(nodeID string, countVisit bool) (*Turn, error) {
	el, ok := r.project.Elements[nodeID]
	if !ok {
		return nil, fmt.Errorf("element not found: %s", nodeID)
	}

	if countVisit {
		r.ctx.Visits().Increment(nodeID)
	}
	r.current = nodeID
	r.ctx.SetCurrentNode(nodeID)

	text := r.ctx.Evaluate(r.text.ContentText(nodeID), false)

	choices, err := r.resolver.ResolveChoices(nodeID)
	if err != nil {
		r.graphError(nodeID, err)
		return nil, err
	}

	r.turn = &Turn{
		NodeID:  nodeID,
		Title:   el.Title,
		Text:    text,
		Choices: choices,
		Ended:   len(choices) == 0,
	}

	r.emitEvent("node.entered", map[string]interface{}{
		"node_id": nodeID,
		"visits":  r.ctx.Visits().Get(nodeID),
		"counted": countVisit,
		"choices": len(choices),
	})
	if r.turn.Ended {
		r.emitEvent("story.ended", map[string]interface{}{"node_id": nodeID})
	}
	return r.turn, nil
}

// refresh re-resolves the current element's choices after an external
// state change without re-running its content.
func (r *Runtime) refresh() error {
	if r.turn == nil {
		return nil
	}
	r.ctx.SetCurrentNode(r.current)
	choices, err := r.resolver.ResolveChoices(r.current)
	if err != nil {
		r.graphError(r.current, err)
		return err
	}
	r.turn.Choices = choices
	r.turn.Ended = len(choices) == 0
	return nil
}

func (r *Runtime) graphError(nodeID string, err error) {
	fields := map[string]interface{}{
		"node_id": nodeID,
		"error":   err.Error(),
	}
	if kind, ok := arcscript.KindOf(err); ok {
		fields["kind"] = kind.String()
	}
	events.Emit("error", "graph.error", err.Error(), fields)
}

// visitKey resolves a visits() argument given as an element id or title.
func (r *Runtime) visitKey(key string) (string, bool) {
	if _, ok := r.project.Elements[key]; ok {
		return key, true
	}
	id, ok := r.titles[CleanTitle(key)]
	return id, ok
}

func (r *Runtime) emitEvent(name string, fields map[string]interface{}) {
	events.Emit("info", name, "", fields)
}
