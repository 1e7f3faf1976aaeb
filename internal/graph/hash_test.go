package graph

import "testing"

func TestFingerprint_IdenticalStructureProducesSameHash(t *testing.T) {
	leaf := func() *Thunk {
		return &Thunk{ID: 1, F: func(args ...any) (any, error) { return nil, nil }, Inputs: []any{7}}
	}
	a, b := leaf(), leaf()
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("expected identical structures to fingerprint the same")
	}
}

func TestFingerprint_DifferingInputsProduceDifferentHash(t *testing.T) {
	a := &Thunk{ID: 1, Inputs: []any{7}}
	b := &Thunk{ID: 1, Inputs: []any{8}}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("expected differing inputs to fingerprint differently")
	}
}

func TestFingerprint_NilThunkReturnsEmptyString(t *testing.T) {
	if got := Fingerprint(nil); got != "" {
		t.Fatalf("expected empty string for nil thunk, got %q", got)
	}
}

func TestFingerprint_SelfReferentialInputGuardsAgainstInfiniteRecursion(t *testing.T) {
	a := &Thunk{ID: 1}
	a.Inputs = []any{a}
	if got := Fingerprint(a); got == "" {
		t.Fatalf("expected a non-empty fingerprint even with a cyclic input")
	}
}
