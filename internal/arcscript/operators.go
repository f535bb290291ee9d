package arcscript

import (
	"fmt"
	"math"
	"strings"
)

// Add implements "+". If either side is a string the result is the
// concatenation of both default string conversions, otherwise numeric
// addition with integer/float promotion.
func Add(left, right Value) (Value, error) {
	if left.kind == KindString || right.kind == KindString {
		return String(left.String() + right.String()), nil
	}
	return arith("+", left, right)
}

// Sub implements "-".
func Sub(left, right Value) (Value, error) {
	return arith("-", left, right)
}

// Mul implements "*".
func Mul(left, right Value) (Value, error) {
	return arith("*", left, right)
}

// Div implements "/". Integer division that leaves no remainder stays an
// integer; anything else produces a float. A zero divisor is an error.
func Div(left, right Value) (Value, error) {
	return arith("/", left, right)
}

// Mod implements "%".
func Mod(left, right Value) (Value, error) {
	return arith("%", left, right)
}

func arith(op string, left, right Value) (Value, error) {
	li, lf, lFloat, lok := left.numeric()
	ri, rf, rFloat, rok := right.numeric()
	if !lok || !rok {
		return Null(), fmt.Errorf("invalid operands for %s: %s and %s", op, left.kind, right.kind)
	}

	if (op == "/" || op == "%") && rf == 0 {
		return Null(), ErrDivisionByZero
	}

	if lFloat || rFloat {
		switch op {
		case "+":
			return Float(lf + rf), nil
		case "-":
			return Float(lf - rf), nil
		case "*":
			return Float(lf * rf), nil
		case "/":
			return Float(lf / rf), nil
		case "%":
			return Float(math.Mod(lf, rf)), nil
		}
	}

	switch op {
	case "+":
		sum := li + ri
		if (li^sum)&(ri^sum) < 0 {
			return Null(), overflow(op, li, ri)
		}
		return Int(sum), nil
	case "-":
		diff := li - ri
		if (li^ri)&(li^diff) < 0 {
			return Null(), overflow(op, li, ri)
		}
		return Int(diff), nil
	case "*":
		prod := li * ri
		if li != 0 && (prod/li != ri || (li == -1 && ri == math.MinInt64)) {
			return Null(), overflow(op, li, ri)
		}
		return Int(prod), nil
	case "/":
		if li == math.MinInt64 && ri == -1 {
			return Null(), overflow(op, li, ri)
		}
		if li%ri == 0 {
			return Int(li / ri), nil
		}
		return Float(lf / rf), nil
	case "%":
		return Int(li % ri), nil
	}
	return Null(), fmt.Errorf("unknown operator %s", op)
}

func overflow(op string, l, r int64) error {
	return fmt.Errorf("%d %s %d: %w", l, op, r, ErrIntegerOverflow)
}

// Negate implements unary "-".
func Negate(v Value) (Value, error) {
	i, f, isFloat, ok := v.numeric()
	if !ok {
		return Null(), fmt.Errorf("invalid operand for unary -: %s", v.kind)
	}
	if isFloat {
		return Float(-f), nil
	}
	if i == math.MinInt64 {
		return Null(), fmt.Errorf("-%d: %w", i, ErrIntegerOverflow)
	}
	return Int(-i), nil
}

// Equal implements "==". Strings only equal strings; numbers, booleans and
// null compare numerically, so an unset variable equals 0 and false.
func Equal(left, right Value) bool {
	if left.kind == KindString || right.kind == KindString {
		return left.kind == right.kind && left.s == right.s
	}
	if left.kind == KindBool && right.kind == KindBool {
		return left.b == right.b
	}
	_, lf, _, _ := left.numeric()
	_, rf, _, _ := right.numeric()
	return lf == rf
}

// Compare orders two values for <, <=, > and >=. Strings compare
// lexically with strings; everything else compares numerically.
func Compare(left, right Value) (int, error) {
	if left.kind == KindString && right.kind == KindString {
		return strings.Compare(left.s, right.s), nil
	}
	if left.kind == KindString || right.kind == KindString {
		return 0, fmt.Errorf("cannot compare %s with %s", left.kind, right.kind)
	}
	li, lf, lFloat, _ := left.numeric()
	ri, rf, rFloat, _ := right.numeric()
	if !lFloat && !rFloat {
		switch {
		case li < ri:
			return -1, nil
		case li > ri:
			return 1, nil
		}
		return 0, nil
	}
	switch {
	case lf < rf:
		return -1, nil
	case lf > rf:
		return 1, nil
	}
	return 0, nil
}

// compound maps a compound assignment operator to its arithmetic operator.
func compound(op string) (func(Value, Value) (Value, error), bool) {
	switch op {
	case "+=":
		return Add, true
	case "-=":
		return Sub, true
	case "*=":
		return Mul, true
	case "/=":
		return Div, true
	}
	return nil, false
}
