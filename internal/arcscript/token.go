package arcscript

// TokenType identifies a lexical token in an expression.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	// Literals
	TokenInt    // 42
	TokenFloat  // 3.14
	TokenString // "hello" or 'hello'
	TokenIdent  // gold
	TokenTrue
	TokenFalse

	// Operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenEQ      // == or is
	TokenNE      // != or is not
	TokenLT      // <
	TokenGT      // >
	TokenLE      // <=
	TokenGE      // >=
	TokenAnd     // && or and
	TokenOr      // || or or
	TokenNot     // ! or not

	// Delimiters
	TokenLParen
	TokenRParen
	TokenComma
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "end of expression",
	TokenIllegal: "illegal",
	TokenInt:     "integer",
	TokenFloat:   "float",
	TokenString:  "string",
	TokenIdent:   "identifier",
	TokenTrue:    "true",
	TokenFalse:   "false",
	TokenPlus:    "+",
	TokenMinus:   "-",
	TokenStar:    "*",
	TokenSlash:   "/",
	TokenPercent: "%",
	TokenEQ:      "==",
	TokenNE:      "!=",
	TokenLT:      "<",
	TokenGT:      ">",
	TokenLE:      "<=",
	TokenGE:      ">=",
	TokenAnd:     "&&",
	TokenOr:      "||",
	TokenNot:     "!",
	TokenLParen:  "(",
	TokenRParen:  ")",
	TokenComma:   ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

// Token is a lexical token with its source text and rune offset.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

var keywords = map[string]TokenType{
	"true":  TokenTrue,
	"false": TokenFalse,
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
}
