package arcscript

import (
	"fmt"
	"strconv"
)

// Expr is a parsed expression.
type Expr interface {
	exprNode()
}

type literalExpr struct {
	value Value
}

type identExpr struct {
	name string
}

type unaryExpr struct {
	op      TokenType
	operand Expr
}

type binaryExpr struct {
	op          TokenType
	left, right Expr
}

type callExpr struct {
	name string
	args []Expr
}

func (*literalExpr) exprNode() {}
func (*identExpr) exprNode() {}
func (*unaryExpr) exprNode() {}
func (*binaryExpr) exprNode() {}
func (*callExpr) exprNode() {}

// Parser is a recursive-descent parser over the token stream of one
// expression. Precedence, lowest first: or, and, equality, comparison,
// additive, multiplicative, unary, call/primary.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses a complete expression.
func Parse(input string) (Expr, error) {
	tokens := NewLexer(input).Tokenize()
	last := tokens[len(tokens)-1]
	if last.Type == TokenIllegal {
		return nil, fmt.Errorf("illegal token %q at position %d", last.Value, last.Pos)
	}
	p := &Parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %s %q at position %d", tok.Type, tok.Value, tok.Pos)
	}
	return expr, nil
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) match(types ...TokenType) (Token, bool) {
	tok := p.current()
	for _, t := range types {
		if tok.Type == t {
			p.advance()
			return tok, true
		}
	}
	return tok, false
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(TokenOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: TokenOr, left: left, right: right}
	}
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.match(TokenAnd); !ok {
			return left, nil
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: TokenAnd, left: left, right: right}
	}
}

func (p *Parser) parseEquality() (Expr, error) {
	return p.parseBinary(p.parseComparison, TokenEQ, TokenNE)
}

func (p *Parser) parseComparison() (Expr, error) {
	return p.parseBinary(p.parseAdditive, TokenLT, TokenGT, TokenLE, TokenGE)
}

func (p *Parser) parseAdditive() (Expr, error) {
	return p.parseBinary(p.parseMultiplicative, TokenPlus, TokenMinus)
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary(p.parseUnary, TokenStar, TokenSlash, TokenPercent)
}

// parseBinary parses a left-associative chain of the given operators.
func (p *Parser) parseBinary(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: tok.Type, left: left, right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	if tok, ok := p.match(TokenNot, TokenMinus, TokenPlus); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenPlus {
			return operand, nil
		}
		return &unaryExpr{op: tok.Type, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenInt:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", tok.Value)
		}
		return &literalExpr{value: Int(n)}, nil
	case TokenFloat:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", tok.Value)
		}
		return &literalExpr{value: Float(f)}, nil
	case TokenString:
		return &literalExpr{value: String(tok.Value)}, nil
	case TokenTrue:
		return &literalExpr{value: Bool(true)}, nil
	case TokenFalse:
		return &literalExpr{value: Bool(false)}, nil
	case TokenIdent:
		if _, ok := p.match(TokenLParen); ok {
			return p.parseCall(tok.Value)
		}
		return &identExpr{name: tok.Value}, nil
	case TokenLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(TokenRParen); !ok {
			return nil, fmt.Errorf("expected ) at position %d", p.current().Pos)
		}
		return expr, nil
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %s %q at position %d", tok.Type, tok.Value, tok.Pos)
}

// parseCall parses an argument list after "name(".
func (p *Parser) parseCall(name string) (Expr, error) {
	call := &callExpr{name: name}
	if _, ok := p.match(TokenRParen); ok {
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
		if _, ok := p.match(TokenComma); ok {
			continue
		}
		if _, ok := p.match(TokenRParen); ok {
			return call, nil
		}
		return nil, fmt.Errorf("expected , or ) in call to %s at position %d", name, p.current().Pos)
	}
}
