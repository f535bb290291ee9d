package arcscript

import "sort"

// Store is the variable store shared by the interpreter, the resolver and
// the host. It is not safe for concurrent use.
type Store struct {
	vars map[string]Value
}

// NewStore creates an empty variable store.
func NewStore() *Store {
	return &Store{vars: make(map[string]Value)}
}

// Get returns the stored value of name.
func (s *Store) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Has returns true if name is declared.
func (s *Store) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Set stores v under name.
func (s *Store) Set(name string, v Value) {
	s.vars[name] = v
}

// Names returns all variable names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of variables.
func (s *Store) Len() int {
	return len(s.vars)
}

// Snapshot returns a copy of the store contents.
func (s *Store) Snapshot() map[string]Value {
	out := make(map[string]Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Visits counts arrivals per node key.
type Visits struct {
	counts map[string]int
}

// NewVisits creates an empty visit counter map.
func NewVisits() *Visits {
	return &Visits{counts: make(map[string]int)}
}

// Get returns the visit count for key, 0 if never visited.
func (v *Visits) Get(key string) int {
	return v.counts[key]
}

// Increment adds one arrival for key and returns the new count.
func (v *Visits) Increment(key string) int {
	v.counts[key]++
	return v.counts[key]
}

// Set overwrites the count for key. Used when restoring saved state.
func (v *Visits) Set(key string, n int) {
	if n <= 0 {
		delete(v.counts, key)
		return
	}
	v.counts[key] = n
}

// Reset clears every count.
func (v *Visits) Reset() {
	v.counts = make(map[string]int)
}

// Snapshot returns a copy of the counts.
func (v *Visits) Snapshot() map[string]int {
	out := make(map[string]int, len(v.counts))
	for k, n := range v.counts {
		out[k] = n
	}
	return out
}
