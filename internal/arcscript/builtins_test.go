package arcscript

import "testing"

type initialValues map[string]Value

func (m initialValues) InitialValue(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

func TestMathBuiltins(t *testing.T) {
	c := NewContext(nil, nil)

	tests := []struct {
		src  string
		want string
	}{
		{"sqr(3)", "9"},
		{"sqr(1.5)", "2.25"},
		{"sqrt(16)", "4"},
		{"abs(-3)", "3"},
		{"abs(2.5)", "2.5"},
		{"round(2.5)", "3"},
		{"round(2.4)", "2"},
		{"min(3, 1, 2)", "1"},
		{"max(1, 2.5)", "2.5"},
	}
	for _, tt := range tests {
		v, err := c.Eval(tt.src)
		if err != nil {
			t.Errorf("Eval(%q) returned error: %v", tt.src, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("Eval(%q) = %s, want %s", tt.src, v.String(), tt.want)
		}
	}

	if _, err := c.Eval(`sqr("a")`); err == nil {
		t.Error("expected error for sqr of a string")
	}
	if _, err := c.Eval("sqrt(-1)"); err == nil {
		t.Error("expected error for sqrt of a negative number")
	}
}

func TestRandomRange(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetSeed(7)

	for i := 0; i < 500; i++ {
		v, err := c.Eval("random()")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f, _ := v.AsFloat()
		if v.Kind() != KindFloat || f < 0 || f >= 1 {
			t.Fatalf("random() = %v, want float in [0,1)", v.String())
		}
	}
}

func TestRollRange(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetSeed(1)

	for i := 0; i < 500; i++ {
		v, err := c.Eval("roll(6, 1)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, _ := v.AsInt()
		if v.Kind() != KindInt || n < 1 || n > 6 {
			t.Fatalf("roll(6, 1) = %s, want integer in [1,6]", v.String())
		}

		v, err = c.Eval("roll(6, 10)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, _ = v.AsInt()
		if n < 10 || n > 60 {
			t.Fatalf("roll(6, 10) = %d, want integer in [10,60]", n)
		}
	}

	if _, err := c.Eval("roll(0)"); err == nil {
		t.Error("expected error for zero-sided die")
	}
}

func TestRollIsUniform(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetSeed(7)

	// A sum of ten dice would almost never reach either end.
	seen := make(map[int64]bool)
	for i := 0; i < 2000; i++ {
		v, err := c.Eval("roll(6, 10)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, _ := v.AsInt()
		seen[n] = true
	}
	if !seen[10] || !seen[60] {
		t.Errorf("expected both 10 and 60 to be drawn, saw %d distinct values", len(seen))
	}

	if _, err := c.Eval("roll(9223372036854775807, 2)"); err == nil {
		t.Error("expected error for a range beyond int64")
	}
}

func TestRollDeterministicWithSeed(t *testing.T) {
	a := NewContext(nil, nil)
	b := NewContext(nil, nil)
	a.SetSeed(99)
	b.SetSeed(99)

	for i := 0; i < 20; i++ {
		va, _ := a.Eval("roll(20)")
		vb, _ := b.Eval("roll(20)")
		if va.String() != vb.String() {
			t.Fatalf("roll %d differs with same seed: %s vs %s", i, va.String(), vb.String())
		}
	}
}

func TestVisitsDefaultsToCurrentNode(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetCurrentNode("n1")

	if got := c.Evaluate("{visits()}", false); got != "0" {
		t.Errorf("expected 0 visits, got %q", got)
	}

	c.Visits().Increment("n1")
	if got := c.Evaluate("{visits()}", false); got != "1" {
		t.Errorf("expected 1 visit, got %q", got)
	}
	if got := c.Evaluate(`{visits("n1")}`, false); got != "1" {
		t.Errorf("expected 1 visit by quoted id, got %q", got)
	}
}

func TestVisitsKeyResolver(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetVisitKeyResolver(func(key string) (string, bool) {
		if key == "The Cellar" || key == "Cellar" {
			return "node_7", true
		}
		return "", false
	})
	c.Visits().Increment("node_7")

	if got := c.Evaluate(`{visits("The Cellar")}`, false); got != "1" {
		t.Errorf("expected visits by title to resolve, got %q", got)
	}
	if got := c.Evaluate("{visits(Cellar)}", false); got != "1" {
		t.Errorf("expected visits by bare name to resolve, got %q", got)
	}
}

func TestResetAndResetAll(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetInitialValues(initialValues{
		"gold":   Int(0),
		"health": Int(10),
		"name":   String("hero"),
	})
	c.Store().Set("gold", Int(50))
	c.Store().Set("health", Int(3))
	c.Store().Set("name", String("villain"))

	c.Evaluate("{reset(gold)}", false)
	if v, _ := c.Store().Get("gold"); v.String() != "0" {
		t.Errorf("expected gold reset to 0, got %s", v.String())
	}
	if v, _ := c.Store().Get("health"); v.String() != "3" {
		t.Errorf("health should be untouched, got %s", v.String())
	}

	c.Store().Set("gold", Int(50))
	c.Evaluate("{resetAll(gold)}", false)
	if v, _ := c.Store().Get("gold"); v.String() != "50" {
		t.Errorf("excluded gold should be untouched, got %s", v.String())
	}
	if v, _ := c.Store().Get("health"); v.String() != "10" {
		t.Errorf("expected health reset to 10, got %s", v.String())
	}
	if v, _ := c.Store().Get("name"); v.String() != "hero" {
		t.Errorf("expected name reset to hero, got %s", v.String())
	}

	c.Evaluate(`{reset("ghost")}`, false)
	if !hasDiagnostic(c, UnknownVariable) {
		t.Error("expected unknown_variable warning for reset of unknown name")
	}
}

func TestResetSuppressed(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetInitialValues(initialValues{"gold": Int(0)})
	c.Store().Set("gold", Int(50))
	c.Visits().Increment("n1")

	c.Evaluate("{reset(gold)}{resetVisits()}", true)

	if v, _ := c.Store().Get("gold"); v.String() != "50" {
		t.Errorf("suppressed reset should not mutate, got %s", v.String())
	}
	if c.Visits().Get("n1") != 1 {
		t.Error("suppressed resetVisits should not clear visits")
	}
}

func TestResetVisits(t *testing.T) {
	c := NewContext(nil, nil)
	c.Visits().Increment("a")
	c.Visits().Increment("b")

	notified := false
	c.SetVisitsResetObserver(func() { notified = true })

	c.Evaluate("{resetVisits()}", false)

	if c.Visits().Get("a") != 0 || c.Visits().Get("b") != 0 {
		t.Error("expected all visits cleared")
	}
	if !notified {
		t.Error("expected visits reset observer to be called")
	}
}
