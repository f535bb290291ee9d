package arcscript

import "strings"

// show evaluates the argument list of a show() statement. Quoted
// arguments are literals; anything else is an expression. The results are
// concatenated and followed by a single space.
func (c *Context) show(args string) string {
	var sb strings.Builder
	for _, arg := range splitArgs(args) {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if lit, ok := quotedLiteral(arg); ok {
			sb.WriteString(lit)
			continue
		}
		sb.WriteString(c.EvaluateExpression(arg).String())
	}
	sb.WriteByte(' ')
	return sb.String()
}

// splitArgs splits on commas that are outside quotes and parentheses.
func splitArgs(s string) []string {
	var (
		args  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
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
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
	}
	return append(args, s[start:])
}

// quotedLiteral reports whether arg is a single quoted string and returns
// its contents with escapes removed. "a" + b is not a single literal.
func quotedLiteral(arg string) (string, bool) {
	if len(arg) < 2 {
		return "", false
	}
	quote := arg[0]
	if quote != '"' && quote != '\'' {
		return "", false
	}
	var sb strings.Builder
	for i := 1; i < len(arg); i++ {
		ch := arg[i]
		switch {
		case ch == '\\' && i+1 < len(arg):
			i++
			switch arg[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(arg[i])
			}
		case ch == quote:
			if i != len(arg)-1 {
				return "", false
			}
			return sb.String(), true
		default:
			sb.WriteByte(ch)
		}
	}
	return "", false
}
