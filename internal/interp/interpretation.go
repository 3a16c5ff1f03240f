package interp

import (
	"errors"
	"fmt"
	"sync"
)

// Interpretation decides how a construction call is handled: evaluated
// now, deferred, cached, or sampled. Decorating interpretations hold an
// inner Interpretation and delegate after applying their own policy.
type Interpretation interface {
	Name() string
	Interpret(sig Signature, args []any) (any, error)
}

// Reflector builds the plain, unevaluated node for a signature. Each term
// class registers one at init time; Reflect is the only path that
// allocates nodes.
type Reflector func(args []any) (any, error)

var (
	reflectorsMu sync.RWMutex
	reflectors   = map[Signature]Reflector{}
)

// RegisterReflector installs the node builder for a signature.
func RegisterReflector(sig Signature, fn Reflector) {
	reflectorsMu.Lock()
	defer reflectorsMu.Unlock()
	reflectors[sig] = fn
}

// consCache interns nodes by structural identity so that repeated
// construction with identical args yields the identical node. Pointer
// identity of nodes therefore coincides with structural identity, which
// reinterpretation and memoization rely on.
//
// TODO: bound the cache; long-running processes that build many distinct
// terms keep them all reachable through here.
var (
	consMu    sync.Mutex
	consCache = map[string]any{}
)

// Reflect constructs (or retrieves the interned copy of) the plain node
// for a call, without dispatching any rule.
func Reflect(sig Signature, args []any) (any, error) {
	key := CallKey(sig, args)
	consMu.Lock()
	if node, ok := consCache[key]; ok {
		consMu.Unlock()
		return node, nil
	}
	consMu.Unlock()

	reflectorsMu.RLock()
	fn, ok := reflectors[sig]
	reflectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("interp: no reflector for signature %q", sig)
	}
	node, err := fn(args)
	if err != nil {
		return nil, err
	}
	consMu.Lock()
	if prior, ok := consCache[key]; ok {
		node = prior
	} else {
		consCache[key] = node
	}
	consMu.Unlock()
	return node, nil
}

// ResetConsCache drops all interned nodes. Intended for tests.
func ResetConsCache() {
	consMu.Lock()
	consCache = map[string]any{}
	consMu.Unlock()
}

// EagerInterpretation dispatches every call immediately and returns the
// rule's result: a reduced value when a reduction applies, or a symbolic
// node when the matched rule itself chooses to stay symbolic. It carries
// no state and fails exactly as the dispatcher fails.
type EagerInterpretation struct {
	registry *Registry
}

// Eager is the default base interpretation.
var Eager = &EagerInterpretation{registry: NewRegistry("eager")}

func (e *EagerInterpretation) Name() string { return "eager" }

// Registry exposes the eager rule set for registration by term classes.
func (e *EagerInterpretation) Registry() *Registry { return e.registry }

func (e *EagerInterpretation) Interpret(sig Signature, args []any) (any, error) {
	h, err := e.registry.Dispatch(sig, args)
	if err != nil {
		return nil, err
	}
	return h(args)
}

// LazyInterpretation defers evaluation: construction calls return plain
// unevaluated nodes to be forced later via Reinterpret. Substitution is
// the one exception: rules registered in the lazy rule set (substitution
// application) still run eagerly, so a lazily built graph does not
// accumulate trivially collapsible bindings.
type LazyInterpretation struct {
	registry *Registry
}

// Lazy is the deferring interpretation.
var Lazy = &LazyInterpretation{registry: NewRegistry("lazy")}

func (l *LazyInterpretation) Name() string { return "lazy" }

// Registry exposes the lazy rule set for registration by term classes.
func (l *LazyInterpretation) Registry() *Registry { return l.registry }

func (l *LazyInterpretation) Interpret(sig Signature, args []any) (any, error) {
	h, err := l.registry.Dispatch(sig, args)
	if err != nil {
		var noRule *NoRuleError
		if errors.As(err, &noRule) {
			return Reflect(sig, args)
		}
		return nil, err
	}
	return h(args)
}
