package story

import (
	"sync"
	"testing"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
)

func TestSessionStartKeepsRestoredTurn(t *testing.T) {
	rt := newCellarRuntime(t)
	s := NewSession(rt)

	if s.Current() != nil {
		t.Error("expected no turn before start")
	}
	first, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Select("c_cellar"); err != nil {
		t.Fatalf("select: %v", err)
	}

	again, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if again.NodeID != "e_cellar" || first.NodeID != "e_start" {
		t.Errorf("expected second start to keep the current turn, got %s", again.NodeID)
	}
}

func TestSessionReturnsCopies(t *testing.T) {
	s := NewSession(newCellarRuntime(t))
	turn, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	turn.Choices[0].Label = "changed"
	if s.Current().Choices[0].Label != "Go down" {
		t.Error("expected session state to be isolated from callers")
	}
}

func TestSessionOperations(t *testing.T) {
	s := NewSession(newCellarRuntime(t))
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if !s.HasNode("e_garden") || s.HasNode("nowhere") {
		t.Error("unexpected HasNode result")
	}
	if err := s.SetVariable("has_key", arcscript.Bool(true)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Jump("e_cellar"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if turn, err := s.Back(); err != nil || turn.NodeID != "e_start" {
		t.Fatalf("back: %v %+v", err, turn)
	}

	snap := s.Snapshot()
	if !snap.Started || !snap.Variables["has_key"].Truthy() {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	turn, err := s.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if turn.NodeID != "e_start" || s.Snapshot().Variables["has_key"].Truthy() {
		t.Errorf("expected reset to initial state, got %+v", turn)
	}
}

func TestSessionConcurrentAccess(t *testing.T) {
	s := NewSession(newCellarRuntime(t))
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Select("c_shop")
				s.Current()
				s.Snapshot()
			}
		}()
	}
	wg.Wait()

	v := s.Snapshot().Variables["gold"]
	if !arcscript.Equal(v, arcscript.Int(800)) {
		t.Errorf("expected 160 selections of 5 gold, got %v", v)
	}
}
