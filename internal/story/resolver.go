package story

import (
	"fmt"
	"strings"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
)

// DefaultLabel is shown for a choice whose links carry no label.
const DefaultLabel = "Continue"

// DefaultMaxHops bounds branch and jumper chains during resolution.
const DefaultMaxHops = 64

// Choice is a resolved, labelled option at a decision point.
type Choice struct {
	Label        string   `json:"label"`
	RawLabel     string   `json:"raw_label,omitempty"`
	TargetNodeID string   `json:"target_node_id"`
	BranchID     string   `json:"branch_id,omitempty"`
	ConnectionID string   `json:"connection_id"`
	Path         []string `json:"path"`
}

// Resolver turns an element's outgoing connections into choices. It
// evaluates branch conditions and labels against the shared context.
type Resolver struct {
	graph   Graph
	text    Text
	ctx     *arcscript.Context
	maxHops int
}

// NewResolver creates a resolver over a graph, a text provider and the
// evaluation context shared with the interpreter.
func NewResolver(g Graph, t Text, ctx *arcscript.Context) *Resolver {
	return &Resolver{graph: g, text: t, ctx: ctx, maxHops: DefaultMaxHops}
}

// SetMaxHops changes the chain length treated as a cycle. Values below 1
// restore the default.
func (r *Resolver) SetMaxHops(n int) {
	if n < 1 {
		n = DefaultMaxHops
	}
	r.maxHops = n
}

// ResolveChoices returns the currently valid choices of an element in
// outgoing-link order. An empty result marks the end of the story. A
// cyclic chain is returned as a CyclicGraph error.
func (r *Resolver) ResolveChoices(nodeID string) ([]Choice, error) {
	el, ok := r.graph.Element(nodeID)
	if !ok {
		return nil, fmt.Errorf("element not found: %s", nodeID)
	}

	choices := make([]Choice, 0, len(el.Outputs))
	for _, linkID := range el.Outputs {
		ch, ok, err := r.ResolveLink(linkID)
		if err != nil {
			return nil, err
		}
		if ok {
			choices = append(choices, ch)
		}
	}
	return choices, nil
}

// ResolveLink follows one outgoing connection through branches and jumpers
// to an element. It reports false when the chain dead-ends.
//
// The label is the first non-empty one walking backwards from the final
// link: each hop's own label wins over the label inherited from the link
// that led into its branch.
func (r *Resolver) ResolveLink(linkID string) (Choice, bool, error) {
	ch := Choice{ConnectionID: linkID}
	seen := make(map[string]bool)
	inherited := ""
	cur := linkID

	for hops := 0; ; hops++ {
		if seen[cur] || hops >= r.maxHops {
			msg := fmt.Sprintf("connection %s does not reach an element within %d hops", linkID, r.maxHops)
			if seen[cur] {
				msg = fmt.Sprintf("connection %s loops back to %s", linkID, cur)
			}
			return Choice{}, false, &arcscript.Error{
				Kind:   arcscript.CyclicGraph,
				Msg:    msg,
				Source: strings.Join(append(ch.Path, cur), " -> "),
			}
		}
		seen[cur] = true
		ch.Path = append(ch.Path, cur)

		conn, ok := r.graph.Connection(cur)
		if !ok {
			return Choice{}, false, nil
		}
		label := r.text.LinkLabel(cur)
		if label == "" {
			label = inherited
		}

		switch r.graph.TargetKind(conn.Target) {
		case TargetElement:
			ch.TargetNodeID = conn.Target
			return r.finish(ch, label), true, nil

		case TargetJumper:
			j, _ := r.graph.Jumper(conn.Target)
			if _, ok := r.graph.Element(j.ElementID); !ok {
				return Choice{}, false, nil
			}
			ch.TargetNodeID = j.ElementID
			return r.finish(ch, label), true, nil

		case TargetBranch:
			if ch.BranchID == "" {
				ch.BranchID = conn.Target
			}
			b, _ := r.graph.Branch(conn.Target)
			out, ok := r.selectCondition(b)
			if !ok {
				r.ctx.Warn(arcscript.UnresolvableBranch, b.ID, "no condition matched")
				return Choice{}, false, nil
			}
			inherited = label
			cur = out

		default:
			return Choice{}, false, nil
		}
	}
}

// selectCondition evaluates a branch's conditions in order and returns the
// output connection of the first true one.
func (r *Resolver) selectCondition(b *Branch) (string, bool) {
	for _, cid := range b.Conditions {
		c, ok := r.graph.Condition(cid)
		if !ok {
			continue
		}
		if r.ctx.EvaluateCondition(c.Script) {
			if c.Output == "" {
				return "", false
			}
			return c.Output, true
		}
	}
	return "", false
}

// finish evaluates the label for display. Assignments inside a label are
// not applied until the choice is selected.
func (r *Resolver) finish(ch Choice, raw string) Choice {
	ch.RawLabel = raw
	ch.Label = DefaultLabel
	if raw != "" {
		if shown := strings.TrimSpace(r.ctx.Evaluate(raw, true)); shown != "" {
			ch.Label = shown
		}
	}
	return ch
}
