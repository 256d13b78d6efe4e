package set_test

import (
	"testing"

	"github.com/cloud-shuttle/go-fsm/pkg/set"
)

func TestSet(t *testing.T) {
	s := set.New("a", "b")
	s.Add("c", "b")

	if s.Size() != 3 {
		t.Errorf("expected size 3, got %d", s.Size())
	}
	if !s.Contains("c") {
		t.Errorf("expected set to contain c")
	}

	s.Remove("a")
	if s.Contains("a") {
		t.Errorf("expected a to be removed")
	}

	seen := 0
	for range s.Items() {
		seen++
	}
	if seen != s.Size() {
		t.Errorf("Items yielded %d of %d items", seen, s.Size())
	}

	diff := s.Difference(set.New("b"))
	if diff.Size() != 1 || !diff.Contains("c") {
		t.Errorf("unexpected difference: %v", diff)
	}
}
