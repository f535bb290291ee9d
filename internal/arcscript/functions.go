package arcscript

// Function is a host-extensible function callable from expressions.
type Function interface {
	Call(c *Context, args []Value) (Value, error)
}

// FunctionFunc adapts a plain func to Function.
type FunctionFunc func(c *Context, args []Value) (Value, error)

// Call implements Function.
func (f FunctionFunc) Call(c *Context, args []Value) (Value, error) {
	return f(c, args)
}

// NameTaker is implemented by functions whose bare identifier arguments are
// names rather than variable reads, e.g. visits(Cellar) or reset(gold).
type NameTaker interface {
	TakesNames() bool
}

type nameFunction struct {
	FunctionFunc
}

func (nameFunction) TakesNames() bool { return true }

// NameFunction wraps fn so that identifier arguments arrive as strings
// holding the identifier's name.
func NameFunction(fn FunctionFunc) Function {
	return nameFunction{fn}
}

// Evaluatable produces the value of a shadow variable on every read.
type Evaluatable interface {
	Evaluate() Value
}

// EvaluatableFunc adapts a plain func to Evaluatable.
type EvaluatableFunc func() Value

// Evaluate implements Evaluatable.
func (f EvaluatableFunc) Evaluate() Value {
	return f()
}
