package interp

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Signature identifies a term class, e.g. "Binary" or "Reduce". Every
// construction call is a (signature, args) pair.
type Signature string

// Handler is a registered rewrite/evaluation rule body. Handlers may make
// nested construction calls, which re-enter the interpretation stack.
type Handler func(args []any) (any, error)

// Matcher matches a single argument position of a pattern.
type Matcher interface {
	Matches(x any) bool
	// SubsetOf reports whether every value this matcher accepts is also
	// accepted by other. It is the specificity ordering: a pattern built
	// from subset matchers beats the pattern it is a subset of.
	SubsetOf(other Matcher) bool
	String() string
}

// Pattern is an ordered tuple of matchers, one per argument.
type Pattern []Matcher

func (p Pattern) matches(args []any) bool {
	if len(p) != len(args) {
		return false
	}
	for i, m := range p {
		if !m.Matches(args[i]) {
			return false
		}
	}
	return true
}

// subsetOf reports whether p matches a subset of what q matches.
func (p Pattern) subsetOf(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if !p[i].SubsetOf(q[i]) {
			return false
		}
	}
	return true
}

// overlaps conservatively reports whether some call could match both
// patterns.
func (p Pattern) overlaps(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if !matchersIntersect(p[i], q[i]) {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, m := range p {
		parts[i] = m.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type typeMatcher struct{ t reflect.Type }

func (m typeMatcher) Matches(x any) bool {
	if x == nil {
		return false
	}
	return reflect.TypeOf(x).AssignableTo(m.t)
}

func (m typeMatcher) SubsetOf(other Matcher) bool {
	switch o := other.(type) {
	case anyMatcher:
		return true
	case typeMatcher:
		return m.t.AssignableTo(o.t)
	default:
		return false
	}
}

func (m typeMatcher) String() string { return m.t.String() }

// valueMatcher identifies a value by its dynamic type plus its structural
// key. The type check matters: structural keys of scalars are not
// type-qualified (KeyOf renders int 2 and float64 2 both as "2"), and a
// value pattern must only ever match values of its own type, or it could
// collide with a type pattern the registration-time ambiguity check
// considers disjoint.
type valueMatcher struct {
	typ reflect.Type
	key string
}

func (m valueMatcher) Matches(x any) bool {
	if x == nil {
		return false
	}
	return reflect.TypeOf(x) == m.typ && KeyOf(x) == m.key
}

func (m valueMatcher) SubsetOf(other Matcher) bool {
	switch o := other.(type) {
	case anyMatcher:
		return true
	case valueMatcher:
		return m.typ == o.typ && m.key == o.key
	case typeMatcher:
		return m.typ.AssignableTo(o.t)
	default:
		return false
	}
}

func (m valueMatcher) String() string {
	return fmt.Sprintf("=%s(%s)", m.typ, m.key)
}

type anyMatcher struct{}

func (anyMatcher) Matches(x any) bool { return true }

func (anyMatcher) SubsetOf(other Matcher) bool {
	_, ok := other.(anyMatcher)
	return ok
}

func (anyMatcher) String() string { return "_" }

// OfType matches any argument whose dynamic type is assignable to T.
// With an interface T this acts as a supertype pattern; with a concrete T
// it matches that type exactly.
func OfType[T any]() Matcher {
	return typeMatcher{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// Exactly matches one specific value: same dynamic type, same structural
// identity. Exact-value patterns beat type-only patterns.
func Exactly(v any) Matcher {
	return valueMatcher{typ: reflect.TypeOf(v), key: KeyOf(v)}
}

// Anything matches every argument.
func Anything() Matcher { return anyMatcher{} }

func matchersIntersect(a, b Matcher) bool {
	if a.SubsetOf(b) || b.SubsetOf(a) {
		return true
	}
	// Two interface patterns can share implementors even when neither is
	// assignable to the other, so interface/interface pairs count as
	// intersecting unless their method sets prove no common implementor
	// can exist. This stays conservative: interfaces with no conflicting
	// methods are treated as overlapping even if no shared implementor is
	// registered anywhere.
	ta, aok := a.(typeMatcher)
	tb, bok := b.(typeMatcher)
	if aok && bok && ta.t.Kind() == reflect.Interface && tb.t.Kind() == reflect.Interface {
		return !interfacesDisjoint(ta.t, tb.t)
	}
	return false
}

// interfacesDisjoint reports whether no type can implement both
// interfaces: they declare a method with the same name but different
// signatures.
func interfacesDisjoint(a, b reflect.Type) bool {
	for i := 0; i < a.NumMethod(); i++ {
		m := a.Method(i)
		if o, ok := b.MethodByName(m.Name); ok && o.Type != m.Type {
			return true
		}
	}
	return false
}

type rule struct {
	pattern Pattern
	handler Handler
}

// Registry is a keyed rule registry with most-specific-match dispatch.
// Registration is additive and expected to happen during initialization;
// concurrent dispatch is safe, concurrent registration is serialized by
// the registry lock.
type Registry struct {
	name  string
	mu    sync.RWMutex
	rules map[Signature][]rule
}

func NewRegistry(name string) *Registry {
	return &Registry{name: name, rules: make(map[Signature][]rule)}
}

func (r *Registry) Name() string { return r.name }

// Register installs a handler for a pattern. Registering the identical
// pattern again replaces the earlier handler: last registration wins, by
// design, so callers can intentionally re-register a rule. Registering a
// pattern that overlaps an existing incomparable pattern fails with
// AmbiguousRuleError.
func (r *Registry) Register(sig Signature, pattern Pattern, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.rules[sig]
	for i, old := range existing {
		if old.pattern.subsetOf(pattern) && pattern.subsetOf(old.pattern) {
			// Identical coverage: intentional re-registration.
			existing[i] = rule{pattern: pattern, handler: h}
			return nil
		}
		if old.pattern.overlaps(pattern) &&
			!old.pattern.subsetOf(pattern) && !pattern.subsetOf(old.pattern) {
			return &AmbiguousRuleError{
				Sig:      sig,
				Pattern:  pattern.String(),
				Conflict: old.pattern.String(),
			}
		}
	}
	r.rules[sig] = append(existing, rule{pattern: pattern, handler: h})
	return nil
}

// MustRegister is Register for init-time use.
func (r *Registry) MustRegister(sig Signature, pattern Pattern, h Handler) {
	if err := r.Register(sig, pattern, h); err != nil {
		panic(fmt.Sprintf("interp: %v", err))
	}
}

// Dispatch finds the unique most specific rule matching the runtime types
// (and values) of args. It fails with NoRuleError when nothing matches and
// with AmbiguousRuleError in the defensive case of an irresolvable tie,
// which registration-time checking should have made unreachable.
func (r *Registry) Dispatch(sig Signature, args []any) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *rule
	for i := range r.rules[sig] {
		c := &r.rules[sig][i]
		if !c.pattern.matches(args) {
			continue
		}
		switch {
		case best == nil:
			best = c
		case c.pattern.subsetOf(best.pattern):
			best = c
		case best.pattern.subsetOf(c.pattern):
			// keep best
		default:
			return nil, &AmbiguousRuleError{
				Sig:      sig,
				Pattern:  c.pattern.String(),
				Conflict: best.pattern.String(),
			}
		}
	}
	if best == nil {
		types := make([]string, len(args))
		for i, arg := range args {
			types[i] = fmt.Sprintf("%T", arg)
		}
		return nil, &NoRuleError{Sig: sig, Types: types}
	}
	return best.handler, nil
}
