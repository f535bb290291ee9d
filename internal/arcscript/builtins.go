package arcscript

import (
	"fmt"
	"math"
	"strings"
)

func registerBuiltins(c *Context) {
	c.functions["sqr"] = FunctionFunc(builtinSqr)
	c.functions["sqrt"] = FunctionFunc(builtinSqrt)
	c.functions["abs"] = FunctionFunc(builtinAbs)
	c.functions["round"] = FunctionFunc(builtinRound)
	c.functions["min"] = FunctionFunc(builtinMin)
	c.functions["max"] = FunctionFunc(builtinMax)
	c.functions["random"] = FunctionFunc(builtinRandom)
	c.functions["roll"] = FunctionFunc(builtinRoll)
	c.functions["visits"] = NameFunction(builtinVisits)
	c.functions["reset"] = NameFunction(builtinReset)
	c.functions["resetAll"] = NameFunction(builtinResetAll)
	c.functions["resetVisits"] = FunctionFunc(builtinResetVisits)
}

func wantArgs(args []Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("expected %d argument(s), got %d", lo, len(args))
		}
		return fmt.Errorf("expected %d to %d arguments, got %d", lo, hi, len(args))
	}
	return nil
}

func numberArg(v Value) (Value, error) {
	if v.kind == KindString {
		return Null(), fmt.Errorf("expected a number, got string")
	}
	return v, nil
}

func builtinSqr(_ *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return Null(), err
	}
	v, err := numberArg(args[0])
	if err != nil {
		return Null(), err
	}
	return Mul(v, v)
}

func builtinSqrt(_ *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return Null(), err
	}
	f, ok := args[0].AsFloat()
	if !ok || args[0].kind == KindString {
		return Null(), fmt.Errorf("expected a number, got %s", args[0].kind)
	}
	if f < 0 {
		return Null(), fmt.Errorf("square root of negative number %v", f)
	}
	return Float(math.Sqrt(f)), nil
}

func builtinAbs(_ *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return Null(), err
	}
	v, err := numberArg(args[0])
	if err != nil {
		return Null(), err
	}
	if cmp, _ := Compare(v, Int(0)); cmp < 0 {
		return Negate(v)
	}
	return v, nil
}

func builtinRound(_ *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return Null(), err
	}
	f, ok := args[0].AsFloat()
	if !ok || args[0].kind == KindString {
		return Null(), fmt.Errorf("expected a number, got %s", args[0].kind)
	}
	return Int(int64(math.Round(f))), nil
}

func builtinMin(_ *Context, args []Value) (Value, error) {
	return extreme(args, -1)
}

func builtinMax(_ *Context, args []Value) (Value, error) {
	return extreme(args, 1)
}

// extreme returns the smallest (sign -1) or largest (sign 1) argument.
func extreme(args []Value, sign int) (Value, error) {
	if len(args) == 0 {
		return Null(), fmt.Errorf("expected at least 1 argument")
	}
	best, err := numberArg(args[0])
	if err != nil {
		return Null(), err
	}
	for _, a := range args[1:] {
		v, err := numberArg(a)
		if err != nil {
			return Null(), err
		}
		if cmp, _ := Compare(v, best); cmp == sign {
			best = v
		}
	}
	return best, nil
}

func builtinRandom(c *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 0, 0); err != nil {
		return Null(), err
	}
	return Float(c.rng.Float64()), nil
}

// builtinRoll returns an integer drawn uniformly from
// [multiplier, max*multiplier].
func builtinRoll(c *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 1, 2); err != nil {
		return Null(), err
	}
	sides, ok := args[0].AsInt()
	if !ok || args[0].kind == KindString || sides < 1 {
		return Null(), fmt.Errorf("die size must be a positive integer, got %s", args[0].String())
	}
	mult := int64(1)
	if len(args) == 2 {
		mult, ok = args[1].AsInt()
		if !ok || args[1].kind == KindString || mult < 1 {
			return Null(), fmt.Errorf("roll multiplier must be a positive integer, got %s", args[1].String())
		}
	}
	if sides > math.MaxInt64/mult {
		return Null(), fmt.Errorf("roll(%d, %d) is out of integer range", sides, mult)
	}
	span := sides*mult - mult + 1
	return Int(mult + c.rng.Int64N(span)), nil
}

func builtinVisits(c *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 0, 1); err != nil {
		return Null(), err
	}
	key := ""
	if len(args) == 1 {
		key = args[0].String()
	}
	return Int(int64(c.visits.Get(c.visitKey(key)))), nil
}

// nameArgs flattens name arguments. A string argument may hold several
// comma-separated names.
func nameArgs(args []Value) ([]string, error) {
	var names []string
	for _, a := range args {
		if a.kind != KindString {
			return nil, fmt.Errorf("expected variable names, got %s", a.kind)
		}
		for _, part := range strings.Split(a.s, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func builtinReset(c *Context, args []Value) (Value, error) {
	names, err := nameArgs(args)
	if err != nil {
		return Null(), err
	}
	if c.suppress {
		return Null(), nil
	}
	for _, name := range names {
		if !c.resetVariable(name) {
			c.report(errorf(UnknownVariable, name, "reset: unknown variable %s", name), SeverityWarning)
		}
	}
	return Null(), nil
}

func builtinResetAll(c *Context, args []Value) (Value, error) {
	names, err := nameArgs(args)
	if err != nil {
		return Null(), err
	}
	if c.suppress {
		return Null(), nil
	}
	exclude := make(map[string]bool, len(names))
	for _, name := range names {
		exclude[name] = true
	}
	for _, name := range c.store.Names() {
		if exclude[name] {
			continue
		}
		c.resetVariable(name)
	}
	return Null(), nil
}

func builtinResetVisits(c *Context, args []Value) (Value, error) {
	if err := wantArgs(args, 0, 0); err != nil {
		return Null(), err
	}
	if !c.suppress {
		c.visits.Reset()
		if c.onVisitsReset != nil {
			c.onVisitsReset()
		}
	}
	return Null(), nil
}
