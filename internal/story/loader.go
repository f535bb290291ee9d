package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
)

// LoadProject loads and validates a story project from a JSON file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	return ParseProject(data)
}

// ParseProject decodes and validates a story project.
func ParseProject(data []byte) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project JSON: %w", err)
	}

	if p.Version != 1 {
		return nil, fmt.Errorf("unsupported project version: %d", p.Version)
	}

	if err := p.index(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// index fills in ids from map keys and decodes initial variable values.
func (p *Project) index() error {
	for id, e := range p.Elements {
		if e == nil {
			return fmt.Errorf("element %s is null", id)
		}
		e.ID = id
	}
	for id, c := range p.Connections {
		if c == nil {
			return fmt.Errorf("connection %s is null", id)
		}
		c.ID = id
	}
	for id, b := range p.Branches {
		if b == nil {
			return fmt.Errorf("branch %s is null", id)
		}
		b.ID = id
	}
	for id, c := range p.Conditions {
		if c == nil {
			return fmt.Errorf("condition %s is null", id)
		}
		c.ID = id
	}
	for id, j := range p.Jumpers {
		if j == nil {
			return fmt.Errorf("jumper %s is null", id)
		}
		j.ID = id
	}
	for name, v := range p.Variables {
		if v == nil {
			return fmt.Errorf("variable %s is null", name)
		}
		v.Name = name
		initial, err := arcscript.FromTyped(v.Type, v.Value)
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		v.initial = initial
	}
	return nil
}

// Validate checks referential integrity and branch shape. All problems are
// returned joined.
func (p *Project) Validate() error {
	var errs []error

	if p.StartingElement == "" {
		errs = append(errs, errors.New("starting_element is not set"))
	} else if _, ok := p.Elements[p.StartingElement]; !ok {
		errs = append(errs, fmt.Errorf("starting_element %s does not exist", p.StartingElement))
	}

	for _, id := range sortedKeys(p.Elements) {
		for _, out := range p.Elements[id].Outputs {
			c, ok := p.Connections[out]
			if !ok {
				errs = append(errs, fmt.Errorf("element %s: output %s does not exist", id, out))
				continue
			}
			if c.Source != "" && c.Source != id {
				errs = append(errs, fmt.Errorf("element %s: output %s has source %s", id, out, c.Source))
			}
		}
	}

	for _, id := range sortedKeys(p.Connections) {
		if p.TargetKind(p.Connections[id].Target) == TargetNone {
			errs = append(errs, fmt.Errorf("connection %s: target %q does not exist", id, p.Connections[id].Target))
		}
	}

	for _, id := range sortedKeys(p.Branches) {
		conds := p.Branches[id].Conditions
		elseAt := -1
		for i, cid := range conds {
			c, ok := p.Conditions[cid]
			if !ok {
				errs = append(errs, fmt.Errorf("branch %s: condition %s does not exist", id, cid))
				continue
			}
			if c.Script != "" {
				continue
			}
			if elseAt >= 0 {
				errs = append(errs, fmt.Errorf("branch %s: more than one unconditional condition", id))
			}
			elseAt = i
		}
		if elseAt >= 0 && elseAt != len(conds)-1 {
			errs = append(errs, fmt.Errorf("branch %s: unconditional condition %s is not last", id, conds[elseAt]))
		}
	}

	for _, id := range sortedKeys(p.Conditions) {
		out := p.Conditions[id].Output
		if out == "" {
			continue
		}
		if _, ok := p.Connections[out]; !ok {
			errs = append(errs, fmt.Errorf("condition %s: output %s does not exist", id, out))
		}
	}

	for _, id := range sortedKeys(p.Jumpers) {
		if _, ok := p.Elements[p.Jumpers[id].ElementID]; !ok {
			errs = append(errs, fmt.Errorf("jumper %s: element %q does not exist", id, p.Jumpers[id].ElementID))
		}
	}

	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
