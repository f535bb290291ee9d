package arcscript

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// prepare decodes HTML entities left by rich-text editors and trims the
// expression before it is tokenized.
func prepare(src string) string {
	if strings.ContainsRune(src, '&') {
		src = html.UnescapeString(src)
	}
	return strings.TrimSpace(src)
}

// Eval parses and evaluates an expression against the context. The error,
// if any, is an *Error of kind ParseError or ExecutionError. Eval does not
// report diagnostics; callers decide how to recover.
func (c *Context) Eval(src string) (Value, error) {
	src = prepare(src)
	expr, err := Parse(src)
	if err != nil {
		return Null(), NewError(ParseError, src, err)
	}
	v, err := c.evalExpr(expr)
	if err != nil {
		var classified *Error
		if errors.As(err, &classified) {
			return Null(), classified
		}
		return Null(), NewError(ExecutionError, src, err)
	}
	return v, nil
}

// EvaluateExpression evaluates src and reports any failure as a diagnostic,
// returning null in that case.
func (c *Context) EvaluateExpression(src string) Value {
	v, err := c.Eval(src)
	if err != nil {
		c.reportErr(err)
		return Null()
	}
	return v
}

// EvaluateCondition evaluates src as a boolean condition. An empty
// condition is true. A bare function call such as visits(Cellar) is
// compared > 0. Failures are reported and count as false.
func (c *Context) EvaluateCondition(src string) bool {
	if strings.TrimSpace(src) == "" {
		return true
	}
	return c.condition(src)
}

// condition is EvaluateCondition without the empty-means-true rule; an
// empty "if" is a parse error.
func (c *Context) condition(src string) bool {
	src = prepare(src)
	expr, err := Parse(src)
	if err != nil {
		c.report(NewError(ParseError, src, err), SeverityError)
		return false
	}
	v, err := c.evalExpr(expr)
	if err != nil {
		c.reportErr(NewError(ExecutionError, src, err))
		return false
	}
	if _, isCall := expr.(*callExpr); isCall && v.kind != KindString {
		f, _ := v.AsFloat()
		return f > 0
	}
	return v.Truthy()
}

func (c *Context) reportErr(err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = NewError(ExecutionError, "", err)
	}
	sev := SeverityError
	if e.Kind == UnknownVariable {
		sev = SeverityWarning
	}
	c.report(e, sev)
}

func (c *Context) evalExpr(e Expr) (Value, error) {
	switch n := e.(type) {
	case *literalExpr:
		return n.value, nil

	case *identExpr:
		if v, ok := c.Lookup(n.name); ok {
			return v, nil
		}
		// Unknown variables read as null and are only warned about.
		c.report(errorf(UnknownVariable, n.name, "unknown variable %s", n.name), SeverityWarning)
		return Null(), nil

	case *unaryExpr:
		v, err := c.evalExpr(n.operand)
		if err != nil {
			return Null(), err
		}
		if n.op == TokenNot {
			return Bool(!v.Truthy()), nil
		}
		return Negate(v)

	case *binaryExpr:
		return c.evalBinary(n)

	case *callExpr:
		return c.evalCall(n)
	}
	return Null(), fmt.Errorf("unsupported expression %T", e)
}

func (c *Context) evalBinary(n *binaryExpr) (Value, error) {
	left, err := c.evalExpr(n.left)
	if err != nil {
		return Null(), err
	}

	// Logical operators short-circuit.
	switch n.op {
	case TokenAnd:
		if !left.Truthy() {
			return Bool(false), nil
		}
		right, err := c.evalExpr(n.right)
		if err != nil {
			return Null(), err
		}
		return Bool(right.Truthy()), nil
	case TokenOr:
		if left.Truthy() {
			return Bool(true), nil
		}
		right, err := c.evalExpr(n.right)
		if err != nil {
			return Null(), err
		}
		return Bool(right.Truthy()), nil
	}

	right, err := c.evalExpr(n.right)
	if err != nil {
		return Null(), err
	}

	switch n.op {
	case TokenPlus:
		return Add(left, right)
	case TokenMinus:
		return Sub(left, right)
	case TokenStar:
		return Mul(left, right)
	case TokenSlash:
		return Div(left, right)
	case TokenPercent:
		return Mod(left, right)
	case TokenEQ:
		return Bool(Equal(left, right)), nil
	case TokenNE:
		return Bool(!Equal(left, right)), nil
	}

	cmp, err := Compare(left, right)
	if err != nil {
		return Null(), err
	}
	switch n.op {
	case TokenLT:
		return Bool(cmp < 0), nil
	case TokenGT:
		return Bool(cmp > 0), nil
	case TokenLE:
		return Bool(cmp <= 0), nil
	case TokenGE:
		return Bool(cmp >= 0), nil
	}
	return Null(), fmt.Errorf("unsupported operator %s", n.op)
}

func (c *Context) evalCall(n *callExpr) (Value, error) {
	fn, ok := c.functions[n.name]
	if !ok {
		return Null(), fmt.Errorf("unknown function %s", n.name)
	}

	takesNames := false
	if nt, ok := fn.(NameTaker); ok {
		takesNames = nt.TakesNames()
	}

	args := make([]Value, 0, len(n.args))
	for _, a := range n.args {
		if id, isIdent := a.(*identExpr); isIdent && takesNames {
			args = append(args, String(id.name))
			continue
		}
		v, err := c.evalExpr(a)
		if err != nil {
			return Null(), err
		}
		args = append(args, v)
	}

	v, err := fn.Call(c, args)
	if err != nil {
		return Null(), fmt.Errorf("%s: %w", n.name, err)
	}
	return v, nil
}
