package interp

import (
	"errors"
	"testing"
)

type shape interface{ area() float64 }

type square struct{ side float64 }

func (s square) area() float64 { return s.side * s.side }

type circle struct{ radius float64 }

func (c circle) area() float64 { return 3 * c.radius * c.radius }

const testSig Signature = "Test"

func handlerReturning(v any) Handler {
	return func([]any) (any, error) { return v, nil }
}

func TestDispatchMostSpecificWins(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[shape]()}, handlerReturning("generic")); err != nil {
		t.Fatalf("register generic: %v", err)
	}
	if err := r.Register(testSig, Pattern{OfType[square]()}, handlerReturning("square")); err != nil {
		t.Fatalf("register square: %v", err)
	}

	h, err := r.Dispatch(testSig, []any{square{side: 2}})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	got, _ := h(nil)
	if got != "square" {
		t.Errorf("dispatch picked %q, want square rule", got)
	}

	h, err = r.Dispatch(testSig, []any{circle{radius: 1}})
	if err != nil {
		t.Fatalf("dispatch circle: %v", err)
	}
	got, _ = h(nil)
	if got != "generic" {
		t.Errorf("dispatch picked %q, want generic rule", got)
	}
}

func TestDispatchValueBeatsType(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[int]()}, handlerReturning("any int")); err != nil {
		t.Fatalf("register type: %v", err)
	}
	if err := r.Register(testSig, Pattern{Exactly(2)}, handlerReturning("two")); err != nil {
		t.Fatalf("register value: %v", err)
	}

	h, err := r.Dispatch(testSig, []any{2})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got, _ := h(nil); got != "two" {
		t.Errorf("dispatch picked %q, want exact-value rule", got)
	}

	h, err = r.Dispatch(testSig, []any{3})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got, _ := h(nil); got != "any int" {
		t.Errorf("dispatch picked %q, want type rule", got)
	}
}

func TestDispatchDeterministic(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[shape](), OfType[shape]()}, handlerReturning("ss")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(testSig, Pattern{OfType[square](), OfType[square]()}, handlerReturning("qq")); err != nil {
		t.Fatalf("register: %v", err)
	}
	args := []any{square{1}, square{2}}
	for i := 0; i < 100; i++ {
		h, err := r.Dispatch(testSig, args)
		if err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		if got, _ := h(nil); got != "qq" {
			t.Fatalf("dispatch %d picked %q", i, got)
		}
	}
}

func TestNoRuleError(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[shape]()}, handlerReturning("s")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Dispatch(testSig, []any{"not a shape"})
	var noRule *NoRuleError
	if !errors.As(err, &noRule) {
		t.Fatalf("got %v, want NoRuleError", err)
	}
	_, err = r.Dispatch("Unknown", []any{square{1}})
	if !errors.As(err, &noRule) {
		t.Fatalf("got %v, want NoRuleError for unknown signature", err)
	}
}

func TestAmbiguousRegistrationRejected(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[square](), OfType[shape]()}, handlerReturning("a")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(testSig, Pattern{OfType[shape](), OfType[square]()}, handlerReturning("b"))
	var ambiguous *AmbiguousRuleError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got %v, want AmbiguousRuleError", err)
	}
}

func TestLastRegistrationWins(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[square]()}, handlerReturning("first")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(testSig, Pattern{OfType[square]()}, handlerReturning("second")); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	h, err := r.Dispatch(testSig, []any{square{1}})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got, _ := h(nil); got != "second" {
		t.Errorf("dispatch picked %q, want the re-registered rule", got)
	}
}

func TestValueMatchIsTypeQualified(t *testing.T) {
	r := NewRegistry("test")
	// int 2 and float64 2 share the structural key "2"; the value rule
	// must still be confined to its own type, so these two patterns are
	// disjoint and both register.
	if err := r.Register(testSig, Pattern{Exactly(2)}, handlerReturning("int two")); err != nil {
		t.Fatalf("register value: %v", err)
	}
	if err := r.Register(testSig, Pattern{OfType[float64]()}, handlerReturning("any float")); err != nil {
		t.Fatalf("register float type: %v", err)
	}

	h, err := r.Dispatch(testSig, []any{float64(2)})
	if err != nil {
		t.Fatalf("dispatch float64(2): %v", err)
	}
	if got, _ := h(nil); got != "any float" {
		t.Errorf("float64(2) picked %q, want the float type rule", got)
	}

	h, err = r.Dispatch(testSig, []any{2})
	if err != nil {
		t.Fatalf("dispatch int 2: %v", err)
	}
	if got, _ := h(nil); got != "int two" {
		t.Errorf("int 2 picked %q, want the exact-value rule", got)
	}

	_, err = r.Dispatch(testSig, []any{3})
	var noRule *NoRuleError
	if !errors.As(err, &noRule) {
		t.Fatalf("int 3 got %v, want NoRuleError", err)
	}
}

// sized declares area with a different signature than shape, so no type
// can implement both.
type sized interface{ area() int }

type labeled interface{ label() string }

func TestDisjointInterfacesCoexist(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[shape]()}, handlerReturning("shape")); err != nil {
		t.Fatalf("register shape: %v", err)
	}
	if err := r.Register(testSig, Pattern{OfType[sized]()}, handlerReturning("sized")); err != nil {
		t.Fatalf("register sized: %v", err)
	}

	h, err := r.Dispatch(testSig, []any{square{side: 2}})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got, _ := h(nil); got != "shape" {
		t.Errorf("dispatch picked %q, want the shape rule", got)
	}

	// Interfaces with no conflicting methods can share implementors, so
	// they still count as overlapping.
	err = r.Register(testSig, Pattern{OfType[labeled]()}, handlerReturning("labeled"))
	var ambiguous *AmbiguousRuleError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("got %v, want AmbiguousRuleError for a possibly shared implementor", err)
	}
}

func TestPatternArityMustMatch(t *testing.T) {
	r := NewRegistry("test")
	if err := r.Register(testSig, Pattern{OfType[square]()}, handlerReturning("one")); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Dispatch(testSig, []any{square{1}, square{2}})
	var noRule *NoRuleError
	if !errors.As(err, &noRule) {
		t.Fatalf("got %v, want NoRuleError for arity mismatch", err)
	}
}
