package arcscript

import "strings"

// interpolate replaces every {expr} marker in text with the default string
// conversion of its value, left to right. Quotes are honoured inside a
// marker so "{"}"}" works. An unterminated or empty marker is kept as-is;
// a marker that fails to evaluate is replaced by nothing.
func (c *Context) interpolate(text string) string {
	if !strings.ContainsRune(text, '{') {
		return text
	}

	var sb strings.Builder
	for {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			sb.WriteString(text)
			break
		}
		end := closingBrace(text, open)
		if end < 0 {
			sb.WriteString(text)
			break
		}
		sb.WriteString(text[:open])
		src := text[open+1 : end]
		if strings.TrimSpace(src) == "" {
			sb.WriteString(text[open : end+1])
		} else {
			sb.WriteString(c.EvaluateExpression(src).String())
		}
		text = text[end+1:]
	}
	return sb.String()
}

// closingBrace returns the index of the brace closing the one at open.
func closingBrace(s string, open int) int {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
