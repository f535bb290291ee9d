package arcscript

import "strings"

type segmentKind int

const (
	segNone segmentKind = iota
	segText
	segShow
)

// output joins emitted segments. Consecutive text segments are separated
// by a blank line; a show() result follows text after a single space and
// nothing separates it from what comes next.
type output struct {
	b    strings.Builder
	last segmentKind
}

func (o *output) text(s string) {
	if s == "" {
		return
	}
	if o.last == segText {
		o.b.WriteString("\n\n")
	}
	o.b.WriteString(s)
	o.last = segText
}

func (o *output) show(s string) {
	if s == "" {
		return
	}
	if o.last == segText {
		o.b.WriteByte(' ')
	}
	o.b.WriteString(s)
	o.last = segShow
}

type interpreter struct {
	c     *Context
	lines []Line
	out   output
}

// Evaluate runs a script and returns the produced text. With
// suppressAssignments set the script is evaluated for display only:
// assignments are syntax-checked but not applied and reset functions do
// nothing. Failures are reported as diagnostics; Evaluate never fails.
func (c *Context) Evaluate(script string, suppressAssignments bool) string {
	prev := c.suppress
	c.suppress = suppressAssignments
	defer func() { c.suppress = prev }()

	in := &interpreter{c: c, lines: Scan(script)}
	pos := 0
	for pos < len(in.lines) {
		pos = in.execBlock(pos)
		if pos < len(in.lines) {
			ln := in.lines[pos]
			c.report(errorf(MalformedControlFlow, ln.Text, "line %d: %s without matching if", ln.Number, ln.Kind), SeverityError)
			pos++
		}
	}
	return in.out.b.String()
}

// execBlock executes lines from pos until an elseif, else or endif at the
// same depth, or the end of input. It returns the index of the line that
// stopped it.
func (in *interpreter) execBlock(pos int) int {
	for pos < len(in.lines) {
		ln := in.lines[pos]
		switch ln.Kind {
		case LineElseIf, LineElse, LineEndIf:
			return pos
		case LineIf:
			pos = in.execIf(pos)
			continue
		case LineAssign:
			in.c.execAssign(ln.Name, ln.Op, ln.Expr)
		case LineShow:
			in.out.show(in.c.show(ln.Expr))
		case LineText:
			in.out.text(in.c.interpolate(ln.Text))
		}
		pos++
	}
	return pos
}

// execIf runs the if statement starting at pos. Exactly one branch body is
// executed at most. It returns the index following the matching endif.
func (in *interpreter) execIf(pos int) int {
	start := in.lines[pos]
	taken := in.c.condition(start.Expr)
	if taken {
		pos = in.execBlock(pos + 1)
	} else {
		pos = in.skipBlock(pos + 1)
	}

	sawElse := false
	for pos < len(in.lines) {
		ln := in.lines[pos]
		switch ln.Kind {
		case LineEndIf:
			return pos + 1
		case LineElseIf:
			if sawElse {
				in.c.report(errorf(MalformedControlFlow, ln.Text, "line %d: elseif after else", ln.Number), SeverityError)
				pos = in.skipBlock(pos + 1)
				continue
			}
			if !taken && in.c.condition(ln.Expr) {
				taken = true
				pos = in.execBlock(pos + 1)
			} else {
				pos = in.skipBlock(pos + 1)
			}
		case LineElse:
			if sawElse {
				in.c.report(errorf(MalformedControlFlow, ln.Text, "line %d: duplicate else", ln.Number), SeverityError)
			}
			sawElse = true
			if !taken {
				taken = true
				pos = in.execBlock(pos + 1)
			} else {
				pos = in.skipBlock(pos + 1)
			}
		}
	}

	in.c.report(errorf(MalformedControlFlow, start.Text, "line %d: if without endif", start.Number), SeverityError)
	return pos
}

// skipBlock advances from pos to the next elseif, else or endif at the
// same depth without executing anything.
func (in *interpreter) skipBlock(pos int) int {
	depth := 0
	for ; pos < len(in.lines); pos++ {
		switch in.lines[pos].Kind {
		case LineIf:
			depth++
		case LineEndIf:
			if depth == 0 {
				return pos
			}
			depth--
		case LineElseIf, LineElse:
			if depth == 0 {
				return pos
			}
		}
	}
	return pos
}
