// Package memoize provides the result-caching interpretation: a decorator
// that guarantees at most one evaluation per distinct call shape for the
// lifetime of one Memoize instance.
package memoize

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
	"github.com/funvibe/funsor/internal/term"
)

// Memoize wraps an inner interpretation with a cache keyed by the
// structural identity of the call. The cache lives exactly as long as the
// instance; two instances never share entries unless the same cache map
// is passed to both on purpose.
type Memoize struct {
	inner interp.Interpretation
	mu    sync.Mutex
	cache map[string]any
	store *Store
}

// Option configures a Memoize instance.
type Option func(*Memoize)

// WithCache supplies the cache map, letting a caller inspect entries or
// deliberately reuse one cache across instances.
func WithCache(cache map[string]any) Option {
	return func(m *Memoize) { m.cache = cache }
}

// WithStore attaches a persistent store consulted on in-memory misses.
// Only scalar results are persisted.
func WithStore(store *Store) Option {
	return func(m *Memoize) { m.store = store }
}

// New wraps inner.
func New(inner interp.Interpretation, opts ...Option) *Memoize {
	m := &Memoize{inner: inner}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = make(map[string]any)
	}
	return m
}

func (m *Memoize) Name() string {
	return fmt.Sprintf("memoize(%s)", m.inner.Name())
}

// Len reports the number of cached call shapes.
func (m *Memoize) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}

// Interpret returns the cached result for the call shape if present,
// without re-running the inner interpretation; otherwise it delegates,
// stores and returns. Errors are not cached.
func (m *Memoize) Interpret(sig interp.Signature, args []any) (any, error) {
	key := cacheKey(sig, args)

	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	if m.store != nil {
		if data, ok, err := m.store.Get(key); err != nil {
			return nil, err
		} else if ok {
			v, err := interp.Reflect(term.NumberSig, []any{data, domain.Real()})
			if err != nil {
				return nil, err
			}
			m.put(key, v)
			return v, nil
		}
	}

	v, err := m.inner.Interpret(sig, args)
	if err != nil {
		return nil, err
	}
	m.put(key, v)
	if m.store != nil {
		if n, ok := v.(*term.Number); ok && !n.Output().Bounded {
			if err := m.store.Put(key, n.Data); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func (m *Memoize) put(key string, v any) {
	m.mu.Lock()
	if _, ok := m.cache[key]; !ok {
		m.cache[key] = v
	}
	m.mu.Unlock()
}

// cacheKey is interp.CallKey with one refinement: for binary calls whose
// op is declared commutative, the operand keys are sorted, so op(a, b)
// and op(b, a) share an entry. Order stays significant for every other
// operation.
func cacheKey(sig interp.Signature, args []any) string {
	if sig == term.BinarySig && len(args) == 3 {
		if op, ok := args[0].(*ops.BinaryOp); ok && op.Commutative {
			operands := []string{interp.KeyOf(args[1]), interp.KeyOf(args[2])}
			sort.Strings(operands)
			return string(sig) + "(" + interp.KeyOf(op) + "," + strings.Join(operands, ",") + ")"
		}
	}
	return interp.CallKey(sig, args)
}

// With runs fn on stack with the current interpretation wrapped in a
// fresh Memoize holding cache (which may be nil for a throwaway cache).
// The instance, and with it the at-most-once guarantee, is scoped to this
// call.
func With(stack *interp.Stack, cache map[string]any, fn func() error) error {
	m := New(stack.Current(), WithCache(cache))
	return stack.With(m, fn)
}
