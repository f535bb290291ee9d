package arcscript

import (
	"math/rand/v2"
	"time"
)

// maxDiagnostics bounds the diagnostics kept for inspection.
const maxDiagnostics = 256

// InitialValues supplies the starting value of a variable for reset and
// resetAll.
type InitialValues interface {
	InitialValue(name string) (Value, bool)
}

// VariableObserver is notified after every committed variable mutation.
type VariableObserver func(name string, value Value)

// Context is the mutable evaluation state passed by reference to every
// evaluation: the variable store, shadow variables, visit counts and the
// function registry. A Context must only be used from one goroutine at a time.
type Context struct {
	store     *Store
	visits    *Visits
	shadows   map[string]Evaluatable
	functions map[string]Function

	initial       InitialValues
	observer      VariableObserver
	onVisitsReset func()
	sink          DiagnosticSink
	resolve       func(key string) (string, bool)
	rng           *rand.Rand

	currentNode string
	suppress    bool
	diagnostics []Diagnostic
}

// NewContext creates a context over the given store and visit map. Nil
// arguments are replaced by empty instances. Builtin functions are
// registered immediately.
func NewContext(store *Store, visits *Visits) *Context {
	if store == nil {
		store = NewStore()
	}
	if visits == nil {
		visits = NewVisits()
	}
	seed := uint64(time.Now().UnixNano())
	c := &Context{
		store:     store,
		visits:    visits,
		shadows:   make(map[string]Evaluatable),
		functions: make(map[string]Function),
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	registerBuiltins(c)
	return c
}

// Store returns the shared variable store.
func (c *Context) Store() *Store { return c.store }

// Visits returns the shared visit counter map.
func (c *Context) Visits() *Visits { return c.visits }

// SetInitialValues sets the provider used by reset and resetAll.
func (c *Context) SetInitialValues(p InitialValues) { c.initial = p }

// SetObserver installs the single variable-changed callback. Passing nil
// removes it.
func (c *Context) SetObserver(fn VariableObserver) { c.observer = fn }

// SetVisitsResetObserver installs a callback run after resetVisits()
// clears the visit map.
func (c *Context) SetVisitsResetObserver(fn func()) { c.onVisitsReset = fn }

// SetDiagnosticSink installs the callback that receives diagnostics.
func (c *Context) SetDiagnosticSink(fn DiagnosticSink) { c.sink = fn }

// SetVisitKeyResolver installs the lookup that maps a visits() argument
// (a node id or a cleaned node title) to the key used in the visit map.
func (c *Context) SetVisitKeyResolver(fn func(key string) (string, bool)) { c.resolve = fn }

// SetSeed makes random() and roll() deterministic.
func (c *Context) SetSeed(seed uint64) {
	c.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
}

// SetCurrentNode records the node whose content is being evaluated; it is
// the default argument of visits().
func (c *Context) SetCurrentNode(id string) { c.currentNode = id }

// CurrentNode returns the node set by SetCurrentNode.
func (c *Context) CurrentNode() string { return c.currentNode }

// Suppressed reports whether the current evaluation is display-only.
// Functions with side effects should not mutate state while it is true.
func (c *Context) Suppressed() bool { return c.suppress }

// RegisterFunction makes fn callable from expressions under name. A later
// registration replaces an earlier one, including builtins.
func (c *Context) RegisterFunction(name string, fn Function) {
	c.functions[name] = fn
}

// RegisterShadowVariable routes reads of name to p and rejects writes.
// A placeholder is declared in the store so the name resolves.
func (c *Context) RegisterShadowVariable(name string, p Evaluatable) {
	c.shadows[name] = p
	if !c.store.Has(name) {
		c.store.Set(name, Null())
	}
}

// Lookup returns the current value of a variable, consulting shadow
// variables first.
func (c *Context) Lookup(name string) (Value, bool) {
	if p, ok := c.shadows[name]; ok {
		return p.Evaluate(), true
	}
	return c.store.Get(name)
}

// SetVariable writes a variable from outside the interpreter and notifies
// the observer. Shadow variables are rejected.
func (c *Context) SetVariable(name string, v Value) bool {
	if _, ok := c.shadows[name]; ok {
		c.report(errorf(ExecutionError, name, "cannot assign shadow variable %s", name), SeverityWarning)
		return false
	}
	c.commit(name, v)
	return true
}

// commit stores v and notifies the observer.
func (c *Context) commit(name string, v Value) {
	c.store.Set(name, v)
	if c.observer != nil {
		c.observer(name, v)
	}
}

// resetVariable restores name to its initial value.
func (c *Context) resetVariable(name string) bool {
	if c.initial == nil {
		return false
	}
	v, ok := c.initial.InitialValue(name)
	if !ok {
		return false
	}
	if _, shadow := c.shadows[name]; shadow {
		return true
	}
	c.commit(name, v)
	return true
}

// visitKey maps a visits() argument to a visit-map key.
func (c *Context) visitKey(key string) string {
	if key == "" {
		return c.currentNode
	}
	if c.resolve != nil {
		if k, ok := c.resolve(key); ok {
			return k
		}
	}
	return key
}

// Warn reports a host-detected condition as a warning diagnostic.
func (c *Context) Warn(kind ErrorKind, source, msg string) {
	c.report(&Error{Kind: kind, Msg: msg, Source: source}, SeverityWarning)
}

func (c *Context) report(err *Error, sev Severity) {
	d := Diagnostic{
		Kind:     err.Kind,
		Severity: sev,
		Message:  err.Msg,
		Source:   err.Source,
		NodeID:   c.currentNode,
	}
	if len(c.diagnostics) == maxDiagnostics {
		c.diagnostics = c.diagnostics[1:]
	}
	c.diagnostics = append(c.diagnostics, d)
	if c.sink != nil {
		c.sink(d)
	}
}

// Diagnostics returns diagnostics reported since the last drain.
func (c *Context) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// DrainDiagnostics returns and clears the collected diagnostics.
func (c *Context) DrainDiagnostics() []Diagnostic {
	out := c.diagnostics
	c.diagnostics = nil
	return out
}
