package term

import (
	"fmt"
	"strings"

	"github.com/funvibe/funsor/internal/domain"
)

// Inputs is an ordered mapping from free-variable name to domain. It can
// be viewed as the typed context of a term. Inputs are built once during
// node construction and never mutated afterwards.
type Inputs struct {
	names []string
	doms  map[string]domain.Domain
}

func NewInputs() *Inputs {
	return &Inputs{doms: make(map[string]domain.Domain)}
}

// Add appends a name unless present. Re-adding a name with a different
// domain is a construction error.
func (in *Inputs) Add(name string, d domain.Domain) error {
	if prior, ok := in.doms[name]; ok {
		if prior != d {
			return fmt.Errorf("conflicting domains for %q: %s vs %s", name, prior, d)
		}
		return nil
	}
	in.names = append(in.names, name)
	in.doms[name] = d
	return nil
}

func (in *Inputs) Has(name string) bool {
	_, ok := in.doms[name]
	return ok
}

func (in *Inputs) Domain(name string) (domain.Domain, bool) {
	d, ok := in.doms[name]
	return d, ok
}

// Names returns the input names in insertion order. The caller must not
// modify the returned slice.
func (in *Inputs) Names() []string { return in.names }

func (in *Inputs) Len() int { return len(in.names) }

// Copy returns an independent copy.
func (in *Inputs) Copy() *Inputs {
	out := NewInputs()
	for _, name := range in.names {
		out.names = append(out.names, name)
		out.doms[name] = in.doms[name]
	}
	return out
}

// Union appends other's entries, preserving insertion order.
func (in *Inputs) Union(other *Inputs) (*Inputs, error) {
	out := in.Copy()
	for _, name := range other.names {
		if err := out.Add(name, other.doms[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Without returns a copy with the given names removed.
func (in *Inputs) Without(names VarSet) *Inputs {
	out := NewInputs()
	for _, name := range in.names {
		if names.Has(name) {
			continue
		}
		out.names = append(out.names, name)
		out.doms[name] = in.doms[name]
	}
	return out
}

func (in *Inputs) String() string {
	parts := make([]string, len(in.names))
	for i, name := range in.names {
		parts[i] = name + ":" + in.doms[name].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
