package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/config"
	"github.com/AaronLay10/ArcEngine/internal/story"
)

// errProblems is returned when a command ran but found problems to report.
var errProblems = errors.New("problems found")

// Config holds the settings shared by every subcommand.
type Config struct {
	Project string `env:"ARC_PROJECT"`
	Locale  string `env:"ARC_LOCALE"`
	Seed    uint64 `env:"ARC_SEED"`
	MaxHops int    `env:"ARC_MAX_HOPS"`

	// eval only
	Node      string
	Condition bool
	DryRun    bool
	PrintVars bool
	Vars      []string
}

// ParseConfig parses env defaults, then flags, into a Config. The remaining
// positional arguments are returned.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, nil, err
	}

	fs.StringVar(&cfg.Project, "project", cfg.Project, "path to the story project JSON")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "preferred locale for content and labels")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 for a random seed)")
	fs.IntVar(&cfg.MaxHops, "max-hops", cfg.MaxHops, "bound on branch and jumper chains")
	if fs.Name() == "eval" {
		fs.StringVar(&cfg.Node, "node", "", "element to evaluate at (for visits())")
		fs.BoolVar(&cfg.Condition, "cond", false, "evaluate as a condition and print true or false")
		fs.BoolVar(&cfg.DryRun, "dry-run", false, "suppress assignments")
		fs.BoolVar(&cfg.PrintVars, "vars", false, "print all variables as JSON afterwards")
		fs.Func("set", "name=value to assign before evaluating (repeatable)", func(s string) error {
			cfg.Vars = append(cfg.Vars, s)
			return nil
		})
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}
	if cfg.Project == "" {
		return Config{}, nil, errors.New("-project is required")
	}
	return cfg, fs.Args(), nil
}

func newRuntime(cfg Config) (*story.Runtime, error) {
	p, err := story.LoadProject(cfg.Project)
	if err != nil {
		return nil, err
	}
	rt := story.NewRuntime(p, story.NewLocalizer(p, cfg.Locale))
	if cfg.Seed != 0 {
		rt.SetSeed(cfg.Seed)
	}
	if cfg.MaxHops > 0 {
		rt.SetMaxHops(cfg.MaxHops)
	}
	return rt, nil
}

// printDiagnostics writes collected diagnostics and reports whether any
// were errors.
func printDiagnostics(rt *story.Runtime, errOut io.Writer) bool {
	hasErr := false
	for _, d := range rt.Context().DrainDiagnostics() {
		if d.Severity == arcscript.SeverityError {
			hasErr = true
		}
		where := ""
		if d.NodeID != "" {
			where = " at " + d.NodeID
		}
		fmt.Fprintf(errOut, "%s: %s%s: %s\n", d.Severity, d.Kind, where, d.Message)
	}
	return hasErr
}

// setVars applies name=value pairs, decoding the value as JSON when it
// parses and as a string otherwise.
func setVars(rt *story.Runtime, vars []string) error {
	for _, kv := range vars {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid -set %q, want name=value", kv)
		}
		v, err := arcscript.DecodeJSON([]byte(raw), "")
		if err != nil {
			v = arcscript.String(raw)
		}
		if err := rt.SetVariable(name, v); err != nil {
			return err
		}
	}
	return nil
}

// RunEval evaluates a script or condition against a fresh story state.
func RunEval(cfg Config, args []string, out, errOut io.Writer) error {
	if len(args) == 0 {
		return errors.New("eval: script argument required")
	}
	script := strings.Join(args, " ")

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	if err := setVars(rt, cfg.Vars); err != nil {
		return err
	}
	if cfg.Node != "" {
		if _, ok := rt.Project().Element(cfg.Node); !ok {
			return fmt.Errorf("element not found: %s", cfg.Node)
		}
		rt.Context().SetCurrentNode(cfg.Node)
	}

	if cfg.Condition {
		fmt.Fprintln(out, rt.EvaluateCondition(script))
	} else {
		fmt.Fprintln(out, rt.Evaluate(script, cfg.DryRun))
	}

	if cfg.PrintVars {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rt.Context().Store().Snapshot()); err != nil {
			return err
		}
	}

	if printDiagnostics(rt, errOut) {
		return errProblems
	}
	return nil
}

// RunChoices prints the resolved choices of one element.
func RunChoices(cfg Config, args []string, out, errOut io.Writer) error {
	if len(args) != 1 {
		return errors.New("choices: exactly one element id required")
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	nodeID := args[0]
	if _, ok := rt.Project().Element(nodeID); !ok {
		return fmt.Errorf("element not found: %s", nodeID)
	}

	rt.Context().SetCurrentNode(nodeID)
	choices, err := rt.ResolveChoices(nodeID)
	printDiagnostics(rt, errOut)
	if err != nil {
		return err
	}
	if len(choices) == 0 {
		fmt.Fprintln(out, "(terminal)")
		return nil
	}
	for _, c := range choices {
		fmt.Fprintf(out, "%s\t%q\t-> %s\t[%s]\n", c.ConnectionID, c.Label, c.TargetNodeID, strings.Join(c.Path, " "))
	}
	return nil
}

// RunCheck resolves the choices of every element with the initial story
// state and reports graph errors and script diagnostics.
func RunCheck(cfg Config, out, errOut io.Writer) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		// Validation errors are joined; print one per line.
		fmt.Fprintln(errOut, err)
		return errProblems
	}

	p := rt.Project()
	text := rt.Text()
	ids := make([]string, 0, len(p.Elements))
	for id := range p.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	problems := 0
	for _, id := range ids {
		rt.Context().SetCurrentNode(id)
		rt.Evaluate(text.ContentText(id), true)
		if _, err := rt.ResolveChoices(id); err != nil {
			fmt.Fprintf(errOut, "error: %s: %v\n", id, err)
			problems++
		}
		for _, d := range rt.Context().DrainDiagnostics() {
			fmt.Fprintf(errOut, "%s: %s: %s: %s\n", d.Severity, id, d.Kind, d.Message)
			if d.Severity == arcscript.SeverityError {
				problems++
			}
		}
	}

	if problems > 0 {
		fmt.Fprintf(out, "%d elements checked, %d problems\n", len(ids), problems)
		return errProblems
	}
	fmt.Fprintf(out, "%d elements checked, ok\n", len(ids))
	return nil
}
