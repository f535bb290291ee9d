package arcscript

import (
	"strings"
	"unicode"
)

var singleTokens = map[rune]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'<': TokenLT,
	'>': TokenGT,
	'!': TokenNot,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
}

// Lexer tokenizes a single Arcscript expression.
type Lexer struct {
	input []rune
	pos   int
}

// NewLexer creates a lexer over an expression.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

func (l *Lexer) peek(offset int) rune {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

// Tokenize returns every token up to and including TokenEOF, stopping at the
// first illegal token.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenIllegal {
			return tokens
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}
	}

	ch := l.input[l.pos]
	switch {
	case ch == '"' || ch == '\'':
		return l.readString(ch)
	case unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peek(1))):
		return l.readNumber()
	case ch == '_' || unicode.IsLetter(ch):
		return l.readWord()
	}

	two := string(ch) + string(l.peek(1))
	switch two {
	case "==":
		l.pos += 2
		return Token{Type: TokenEQ, Value: two, Pos: start}
	case "!=":
		l.pos += 2
		return Token{Type: TokenNE, Value: two, Pos: start}
	case "<=":
		l.pos += 2
		return Token{Type: TokenLE, Value: two, Pos: start}
	case ">=":
		l.pos += 2
		return Token{Type: TokenGE, Value: two, Pos: start}
	case "&&":
		l.pos += 2
		return Token{Type: TokenAnd, Value: two, Pos: start}
	case "||":
		l.pos += 2
		return Token{Type: TokenOr, Value: two, Pos: start}
	}

	l.pos++
	if tt, ok := singleTokens[ch]; ok {
		return Token{Type: tt, Value: string(ch), Pos: start}
	}
	return Token{Type: TokenIllegal, Value: string(ch), Pos: start}
}

func (l *Lexer) readString(quote rune) Token {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			switch next := l.input[l.pos]; next {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(next)
			}
			l.pos++
			continue
		}
		if ch == quote {
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start}
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return Token{Type: TokenIllegal, Value: "unterminated string", Pos: start}
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	isFloat := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '.' && !isFloat && unicode.IsDigit(l.peek(1)) {
			isFloat = true
			l.pos++
			continue
		}
		if !unicode.IsDigit(ch) {
			break
		}
		l.pos++
	}
	text := string(l.input[start:l.pos])
	if isFloat {
		return Token{Type: TokenFloat, Value: text, Pos: start}
	}
	return Token{Type: TokenInt, Value: text, Pos: start}
}

// readWord reads an identifier or keyword. "is" becomes ==, and "is not"
// becomes !=, so textual comparisons never reach the parser.
func (l *Lexer) readWord() Token {
	start := l.pos
	word := l.scanIdent()

	if word == "is" {
		save := l.pos
		l.skipWhitespace()
		if l.pos < len(l.input) && (l.input[l.pos] == '_' || unicode.IsLetter(l.input[l.pos])) {
			wordPos := l.pos
			if l.scanIdent() == "not" {
				return Token{Type: TokenNE, Value: "is not", Pos: start}
			}
			l.pos = wordPos
		}
		l.pos = save
		return Token{Type: TokenEQ, Value: "is", Pos: start}
	}

	if tt, ok := keywords[word]; ok {
		return Token{Type: tt, Value: word, Pos: start}
	}
	return Token{Type: TokenIdent, Value: word, Pos: start}
}

func (l *Lexer) scanIdent() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			break
		}
		l.pos++
	}
	return string(l.input[start:l.pos])
}

// isIdentifier reports whether s is a valid variable name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if ch == '_' || unicode.IsLetter(ch) {
			continue
		}
		if i > 0 && unicode.IsDigit(ch) {
			continue
		}
		return false
	}
	_, reserved := keywords[s]
	return !reserved && s != "is"
}
