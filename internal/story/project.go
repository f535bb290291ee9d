package story

import "github.com/AaronLay10/ArcEngine/internal/arcscript"

// Project is the story project loaded from JSON. Entity maps are keyed by id.
type Project struct {
	Version         int                    `json:"version"`
	Name            string                 `json:"name"`
	StartingElement string                 `json:"starting_element"`
	DefaultLocale   string                 `json:"default_locale"`
	Locales         []string               `json:"locales"`
	Elements        map[string]*Element    `json:"elements"`
	Connections     map[string]*Connection `json:"connections"`
	Branches        map[string]*Branch     `json:"branches"`
	Conditions      map[string]*Condition  `json:"conditions"`
	Jumpers         map[string]*Jumper     `json:"jumpers"`
	Variables       map[string]*Variable   `json:"variables"`
}

// Element is a narrative node: a title, script content per locale and the
// ordered list of outgoing connection ids.
type Element struct {
	ID      string            `json:"-"`
	Title   string            `json:"title"`
	Content map[string]string `json:"content"`
	Outputs []string          `json:"outputs"`
}

// Connection is a directed link from an element or condition to an
// element, branch or jumper. Label holds optional script text per locale.
type Connection struct {
	ID     string            `json:"-"`
	Label  map[string]string `json:"label,omitempty"`
	Source string            `json:"source"`
	Target string            `json:"target"`
}

// Branch selects one outgoing path through its ordered conditions.
type Branch struct {
	ID         string   `json:"-"`
	Conditions []string `json:"conditions"`
}

// Condition is a guarded edge in a branch. An empty Script is the
// unconditional else entry.
type Condition struct {
	ID     string `json:"-"`
	Script string `json:"script,omitempty"`
	Output string `json:"output"`
}

// Jumper redirects to another element.
type Jumper struct {
	ID        string `json:"-"`
	ElementID string `json:"element_id"`
}

// Variable declares a story variable and its initial value.
type Variable struct {
	Name  string      `json:"-"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`

	initial arcscript.Value
}

// Initial returns the decoded initial value.
func (v *Variable) Initial() arcscript.Value {
	return v.initial
}

// TargetKind identifies what a connection target refers to.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetElement
	TargetBranch
	TargetJumper
)

func (k TargetKind) String() string {
	switch k {
	case TargetElement:
		return "element"
	case TargetBranch:
		return "branch"
	case TargetJumper:
		return "jumper"
	default:
		return "none"
	}
}

// Graph is the lookup surface the resolver needs.
type Graph interface {
	Element(id string) (*Element, bool)
	Connection(id string) (*Connection, bool)
	Branch(id string) (*Branch, bool)
	Condition(id string) (*Condition, bool)
	Jumper(id string) (*Jumper, bool)
	TargetKind(id string) TargetKind
}

func (p *Project) Element(id string) (*Element, bool) {
	e, ok := p.Elements[id]
	return e, ok
}

func (p *Project) Connection(id string) (*Connection, bool) {
	c, ok := p.Connections[id]
	return c, ok
}

func (p *Project) Branch(id string) (*Branch, bool) {
	b, ok := p.Branches[id]
	return b, ok
}

func (p *Project) Condition(id string) (*Condition, bool) {
	c, ok := p.Conditions[id]
	return c, ok
}

func (p *Project) Jumper(id string) (*Jumper, bool) {
	j, ok := p.Jumpers[id]
	return j, ok
}

// TargetKind reports which entity map holds id.
func (p *Project) TargetKind(id string) TargetKind {
	switch {
	case p.Elements[id] != nil:
		return TargetElement
	case p.Branches[id] != nil:
		return TargetBranch
	case p.Jumpers[id] != nil:
		return TargetJumper
	}
	return TargetNone
}

// InitialValue implements arcscript.InitialValues.
func (p *Project) InitialValue(name string) (arcscript.Value, bool) {
	v, ok := p.Variables[name]
	if !ok {
		return arcscript.Null(), false
	}
	return v.initial, true
}
