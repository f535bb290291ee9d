package arcscript

import (
	"strings"
	"unicode"
)

// LineKind classifies a script line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineIf
	LineElseIf
	LineElse
	LineEndIf
	LineAssign
	LineShow
	LineText
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineIf:
		return "if"
	case LineElseIf:
		return "elseif"
	case LineElse:
		return "else"
	case LineEndIf:
		return "endif"
	case LineAssign:
		return "assign"
	case LineShow:
		return "show"
	default:
		return "text"
	}
}

// Line is one classified script line. Expr holds the condition of if and
// elseif, the right-hand side of an assignment, or the argument list of
// show(). Name and Op are set for assignments.
type Line struct {
	Kind   LineKind
	Number int
	Text   string
	Expr   string
	Name   string
	Op     string
}

// Scan splits a script into classified lines.
func Scan(script string) []Line {
	script = strings.ReplaceAll(script, "\r\n", "\n")
	raw := strings.Split(script, "\n")
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		ln := ScanLine(text)
		ln.Number = i + 1
		lines = append(lines, ln)
	}
	return lines
}

// ScanLine classifies a single line. It performs no evaluation.
func ScanLine(text string) Line {
	t := strings.TrimSpace(text)
	ln := Line{Text: t}

	switch {
	case t == "":
		ln.Kind = LineBlank
		return ln
	case strings.HasPrefix(t, "//"):
		ln.Kind = LineComment
		return ln
	case t == "else":
		ln.Kind = LineElse
		return ln
	case t == "endif":
		ln.Kind = LineEndIf
		return ln
	}

	if cond, ok := keywordClause(t, "elseif"); ok {
		ln.Kind = LineElseIf
		ln.Expr = cond
		return ln
	}
	if cond, ok := keywordClause(t, "if"); ok {
		ln.Kind = LineIf
		ln.Expr = cond
		return ln
	}
	if args, ok := showArgs(t); ok {
		ln.Kind = LineShow
		ln.Expr = args
		return ln
	}
	if name, op, rhs, ok := detectAssignment(t); ok {
		ln.Kind = LineAssign
		ln.Name = name
		ln.Op = op
		ln.Expr = rhs
		return ln
	}

	ln.Kind = LineText
	return ln
}

// keywordClause matches "<kw> <cond>" or "<kw>(<cond>)" and returns the
// condition text. A bare keyword yields an empty condition.
func keywordClause(t, kw string) (string, bool) {
	if t == kw {
		return "", true
	}
	if !strings.HasPrefix(t, kw) {
		return "", false
	}
	rest := t[len(kw):]
	r := rune(rest[0])
	if !unicode.IsSpace(r) && r != '(' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// showArgs matches a line that is exactly one show(...) call and returns
// the text between its balanced parentheses.
func showArgs(t string) (string, bool) {
	const prefix = "show("
	if !strings.HasPrefix(t, prefix) || !strings.HasSuffix(t, ")") {
		return "", false
	}
	end := matchParen(t, len(prefix)-1)
	if end != len(t)-1 {
		return "", false
	}
	return t[len(prefix):end], true
}

// matchParen returns the index of the parenthesis closing the one at open,
// skipping quoted strings, or -1.
func matchParen(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// detectAssignment recognises "<name> <op> <expr>" where op is one of
// =, +=, -=, *=, /=. Comparison operators (==, !=, >=, <=) are not
// assignments. Exactly one assignment operator must occur outside quotes,
// the left side must be a single identifier not starting with '<', and the
// right side must be non-empty.
func detectAssignment(t string) (name, op, rhs string, ok bool) {
	opStart, opEnd, count := -1, -1, 0
	var quote byte
	for i := 0; i < len(t); i++ {
		ch := t[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '"' || ch == '\'' {
			quote = ch
			continue
		}
		if ch != '=' {
			continue
		}
		var prev, next byte
		if i > 0 {
			prev = t[i-1]
		}
		if i+1 < len(t) {
			next = t[i+1]
		}
		switch {
		case next == '=':
			// == is a comparison; skip its second character.
			i++
		case prev == '!' || prev == '<' || prev == '>':
			// comparison
		case prev == '+' || prev == '-' || prev == '*' || prev == '/':
			count++
			opStart, opEnd = i-1, i+1
		default:
			count++
			opStart, opEnd = i, i+1
		}
	}
	if count != 1 {
		return "", "", "", false
	}

	name = strings.TrimSpace(t[:opStart])
	rhs = strings.TrimSpace(t[opEnd:])
	if name == "" || rhs == "" || strings.HasPrefix(name, "<") || strings.ContainsAny(name, " \t") {
		return "", "", "", false
	}
	if !isIdentifier(name) {
		return "", "", "", false
	}
	return name, t[opStart:opEnd], rhs, true
}
