package interp

import "fmt"

// Term is the node view reinterpretation needs: a signature, the ordered
// construction arguments, and a structural identity.
type Term interface {
	Keyed
	Signature() Signature
	Children() []any
}

// Composite is implemented by non-node argument values that contain nodes
// (e.g. a substitution list), so reinterpretation can map the nodes inside
// and rebuild the container.
type Composite interface {
	Parts() []any
	Rebuild(parts []any) (any, error)
}

// maxReinterpretDepth caps recursion so a cyclic or degenerate graph
// fails with an error instead of exhausting the goroutine stack.
const maxReinterpretDepth = 10000

type reinterpreter struct {
	in    Interpretation
	memo  map[string]any
	depth int
}

// Reinterpret forces a deferred graph bottom-up under in: every node is
// re-fed to in.Interpret with its already-reinterpreted children. A memo
// table keyed by structural identity visits each shared subgraph at most
// once per pass, so diamond-shaped graphs cost linear work. Ground values
// (numbers, strings, operation tags) pass through unchanged.
func Reinterpret(x any, in Interpretation) (any, error) {
	r := &reinterpreter{in: in, memo: map[string]any{}}
	return r.walk(x)
}

func (r *reinterpreter) walk(x any) (any, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxReinterpretDepth {
		return nil, fmt.Errorf("interp: reinterpret exceeded depth %d", maxReinterpretDepth)
	}

	switch v := x.(type) {
	case Term:
		key := v.StructuralKey()
		if done, ok := r.memo[key]; ok {
			return done, nil
		}
		kids := v.Children()
		mapped := make([]any, len(kids))
		for i, c := range kids {
			m, err := r.walk(c)
			if err != nil {
				return nil, err
			}
			mapped[i] = m
		}
		out, err := r.in.Interpret(v.Signature(), mapped)
		if err != nil {
			return nil, err
		}
		r.memo[key] = out
		return out, nil
	case Composite:
		parts := v.Parts()
		mapped := make([]any, len(parts))
		for i, p := range parts {
			m, err := r.walk(p)
			if err != nil {
				return nil, err
			}
			mapped[i] = m
		}
		return v.Rebuild(mapped)
	default:
		return x, nil
	}
}
