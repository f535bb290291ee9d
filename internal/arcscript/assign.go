package arcscript

// execAssign applies "name op src". The right-hand side is evaluated
// first; compound operators then combine it with the current value. Any
// failure leaves the variable unchanged.
func (c *Context) execAssign(name, op, src string) {
	if c.suppress {
		if _, err := Parse(prepare(src)); err != nil {
			c.report(NewError(ParseError, src, err), SeverityError)
		}
		return
	}

	rhs, err := c.Eval(src)
	if err != nil {
		c.reportErr(err)
		return
	}

	if _, shadow := c.shadows[name]; shadow {
		c.report(errorf(ExecutionError, name, "cannot assign shadow variable %s", name), SeverityWarning)
		return
	}

	if op != "=" {
		fn, ok := compound(op)
		if !ok {
			c.report(errorf(ParseError, op, "unknown assignment operator %s", op), SeverityError)
			return
		}
		cur, _ := c.store.Get(name)
		v, err := fn(cur, rhs)
		if err != nil {
			c.report(NewError(ExecutionError, name+" "+op+" "+src, err), SeverityError)
			return
		}
		rhs = v
	}

	c.commit(name, rhs)
}
