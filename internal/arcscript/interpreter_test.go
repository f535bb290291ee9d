package arcscript

import (
	"strings"
	"testing"
)

func TestEvaluateRoundTrip(t *testing.T) {
	c := NewContext(nil, nil)

	if got := c.Evaluate("{2+2}", false); got != "4" {
		t.Errorf("expected %q, got %q", "4", got)
	}
	if got := c.Evaluate(`show("Hi ", 2+2)`, false); got != "Hi 4 " {
		t.Errorf("expected %q, got %q", "Hi 4 ", got)
	}
}

const nestedScript = `if a
A
if b
AB
else
A-notB
endif
elseif c
C
else
none
endif`

func TestNestedConditionals(t *testing.T) {
	tests := []struct {
		a, b, c bool
		want    string
	}{
		{true, true, false, "A\n\nAB"},
		{true, false, true, "A\n\nA-notB"},
		{false, true, true, "C"},
		{false, false, false, "none"},
	}

	for _, tt := range tests {
		c := NewContext(nil, nil)
		c.Store().Set("a", Bool(tt.a))
		c.Store().Set("b", Bool(tt.b))
		c.Store().Set("c", Bool(tt.c))

		got := c.Evaluate(nestedScript, false)
		if got != tt.want {
			t.Errorf("a=%v b=%v c=%v: got %q, want %q", tt.a, tt.b, tt.c, got, tt.want)
		}
		if len(c.Diagnostics()) != 0 {
			t.Errorf("unexpected diagnostics: %+v", c.Diagnostics())
		}
	}
}

func TestSkippedSiblingWithElseIsNotExecuted(t *testing.T) {
	script := `if false
if true
inner
else
inner-else
endif
elseif true
taken
endif`

	c := NewContext(nil, nil)
	if got := c.Evaluate(script, false); got != "taken" {
		t.Errorf("expected only the elseif body, got %q", got)
	}
}

func TestOnlyFirstTrueBranchRuns(t *testing.T) {
	script := `if x > 0
x += 100
elseif x > 50
x += 1000
endif`

	c := NewContext(nil, nil)
	c.Store().Set("x", Int(1))
	c.Evaluate(script, false)

	if v, _ := c.Store().Get("x"); v.String() != "101" {
		t.Errorf("expected 101, got %s", v.String())
	}
}

func TestTextJoining(t *testing.T) {
	c := NewContext(nil, nil)

	got := c.Evaluate("// heading\nFirst\n\nSecond", false)
	if got != "First\n\nSecond" {
		t.Errorf("expected blank line between paragraphs, got %q", got)
	}

	got = c.Evaluate("Hello\nshow(\"there\")\nfriend", false)
	if got != "Hello there friend" {
		t.Errorf("expected show to join inline, got %q", got)
	}

	got = c.Evaluate("if true\nOne\nendif\nTwo", false)
	if got != "One\n\nTwo" {
		t.Errorf("expected control lines to emit nothing, got %q", got)
	}
}

func TestAssignments(t *testing.T) {
	c := NewContext(nil, nil)
	c.Store().Set("x", Int(3))

	var changed []string
	c.SetObserver(func(name string, v Value) {
		changed = append(changed, name+"="+v.String())
	})

	c.Evaluate("x += 5", false)
	if v, _ := c.Store().Get("x"); v.String() != "8" {
		t.Errorf("expected x=8, got %s", v.String())
	}

	c.Evaluate("x /= 0", false)
	if v, _ := c.Store().Get("x"); v.String() != "8" {
		t.Errorf("division by zero should leave x unchanged, got %s", v.String())
	}
	if !hasDiagnostic(c, ExecutionError) {
		t.Error("expected execution error for x /= 0")
	}

	c.Evaluate("x *= 2\nx -= 1\nname = \"Ada\"\nlabel = name + \" \" + x", false)
	if v, _ := c.Store().Get("x"); v.String() != "15" {
		t.Errorf("expected x=15, got %s", v.String())
	}
	if v, _ := c.Store().Get("label"); v.String() != "Ada 15" {
		t.Errorf("expected label %q, got %q", "Ada 15", v.String())
	}

	want := []string{"x=8", "x=16", "x=15", "name=Ada", "label=Ada 15"}
	if strings.Join(changed, ",") != strings.Join(want, ",") {
		t.Errorf("observer saw %v, want %v", changed, want)
	}
}

func TestSuppressedAssignments(t *testing.T) {
	c := NewContext(nil, nil)
	c.Store().Set("x", Int(1))

	got := c.Evaluate("x = 10\nvalue {x}", true)
	if got != "value 1" {
		t.Errorf("expected %q, got %q", "value 1", got)
	}
	if v, _ := c.Store().Get("x"); v.String() != "1" {
		t.Errorf("suppressed assignment should not apply, got %s", v.String())
	}
	if c.Suppressed() {
		t.Error("suppression should be restored after Evaluate")
	}

	c.Evaluate("x = 1 +", true)
	if !hasDiagnostic(c, ParseError) {
		t.Error("suppressed assignment should still be syntax checked")
	}
}

func TestInterpolation(t *testing.T) {
	c := NewContext(nil, nil)
	c.Store().Set("gold", Int(5))

	tests := []struct {
		text string
		want string
	}{
		{"You have {gold} gold", "You have 5 gold"},
		{"{gold}{gold}", "55"},
		{"{gold * 2} and {gold + 1}", "10 and 6"},
		{`{"}"}`, "}"},
		{"keep { } braces", "keep { } braces"},
		{"open {brace", "open {brace"},
		{"a{1 +}b", "ab"},
	}

	for _, tt := range tests {
		if got := c.Evaluate(tt.text, false); got != tt.want {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
	if !hasDiagnostic(c, ParseError) {
		t.Error("expected parse error from failed marker")
	}
}

func TestShowArguments(t *testing.T) {
	c := NewContext(nil, nil)
	c.Store().Set("name", String("Ada"))

	tests := []struct {
		script string
		want   string
	}{
		{`show("Hello, ", name, "!")`, "Hello, Ada! "},
		{`show('it\'s ', max(1, 2))`, "it's 2 "},
		{`show("a" + "b")`, "ab "},
		{`show()`, " "},
	}

	for _, tt := range tests {
		if got := c.Evaluate(tt.script, false); got != tt.want {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.script, got, tt.want)
		}
	}
}

func TestMalformedControlFlowRecovers(t *testing.T) {
	c := NewContext(nil, nil)
	got := c.Evaluate("endif\nText", false)
	if got != "Text" {
		t.Errorf("expected stray endif to be skipped, got %q", got)
	}
	if !hasDiagnostic(c, MalformedControlFlow) {
		t.Error("expected malformed control flow diagnostic for stray endif")
	}

	c = NewContext(nil, nil)
	got = c.Evaluate("if true\nA\nB", false)
	if got != "A\n\nB" {
		t.Errorf("expected unterminated if to run to end, got %q", got)
	}
	if !hasDiagnostic(c, MalformedControlFlow) {
		t.Error("expected malformed control flow diagnostic for missing endif")
	}

	c = NewContext(nil, nil)
	got = c.Evaluate("if\nA\nendif\nB", false)
	if got != "B" {
		t.Errorf("expected empty if to be false, got %q", got)
	}
	if !hasDiagnostic(c, ParseError) {
		t.Error("expected parse error for empty if condition")
	}
}

func TestDiagnosticSink(t *testing.T) {
	c := NewContext(nil, nil)
	c.SetCurrentNode("n3")

	var got []Diagnostic
	c.SetDiagnosticSink(func(d Diagnostic) { got = append(got, d) })

	c.Evaluate("{1/0}", false)
	if len(got) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(got))
	}
	if got[0].Kind != ExecutionError || got[0].NodeID != "n3" {
		t.Errorf("unexpected diagnostic %+v", got[0])
	}

	if n := len(c.DrainDiagnostics()); n != 1 {
		t.Errorf("expected 1 drained diagnostic, got %d", n)
	}
	if n := len(c.Diagnostics()); n != 0 {
		t.Errorf("expected diagnostics cleared, got %d", n)
	}
}
