package story

import (
	"sync"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
)

// Session serialises access to a Runtime for the HTTP API and the MQTT
// command subscriber.
type Session struct {
	mu sync.Mutex
	rt *Runtime
}

// NewSession wraps rt.
func NewSession(rt *Runtime) *Session {
	return &Session{rt: rt}
}

// Start starts the story unless a restored turn is already current.
func (s *Session) Start() (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.rt.Current(); t != nil {
		return copyTurn(t), nil
	}
	t, err := s.rt.Start()
	return copyTurn(t), err
}

// Current returns a copy of the current turn, or nil before Start.
func (s *Session) Current() *Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTurn(s.rt.Current())
}

// HasNode reports whether id is an element of the project.
func (s *Session) HasNode(id string) bool {
	_, ok := s.rt.Project().Elements[id]
	return ok
}

func (s *Session) Select(connectionID string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.rt.Select(connectionID)
	return copyTurn(t), err
}

func (s *Session) Back() (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.rt.Back()
	return copyTurn(t), err
}

func (s *Session) Jump(nodeID string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.rt.Jump(nodeID)
	return copyTurn(t), err
}

func (s *Session) SetVariable(name string, v arcscript.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.SetVariable(name, v)
}

func (s *Session) Reset() (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.rt.Reset()
	return copyTurn(t), err
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.Snapshot()
}

func copyTurn(t *Turn) *Turn {
	if t == nil {
		return nil
	}
	c := *t
	c.Choices = append([]Choice(nil), t.Choices...)
	return &c
}
