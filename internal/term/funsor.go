package term

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
)

// Signatures of the term classes. Every construction call is routed
// through the interpretation stack as (signature, args).
const (
	NumberSig   interp.Signature = "Number"
	VariableSig interp.Signature = "Variable"
	BinarySig   interp.Signature = "Binary"
	UnarySig    interp.Signature = "Unary"
	ReduceSig   interp.Signature = "Reduce"
	SubsSig     interp.Signature = "Subs"
)

// Funsor is an immutable symbolic term: a typed context of free-variable
// inputs and an output domain, hashable by structural content. Nodes are
// interned by structural identity, so pointer equality coincides with
// structural equality.
type Funsor interface {
	interp.Term
	Inputs() *Inputs
	Output() domain.Domain
	String() string
}

// VarSet is a sorted, duplicate-free set of variable names, used for the
// reduced variables of a Reduce term.
type VarSet []string

// NewVarSet builds a VarSet from names, sorting and deduplicating.
func NewVarSet(names ...string) VarSet {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	out := sorted[:0]
	for i, name := range sorted {
		if i == 0 || sorted[i-1] != name {
			out = append(out, name)
		}
	}
	return VarSet(out)
}

func (vs VarSet) Has(name string) bool {
	for _, n := range vs {
		if n == name {
			return true
		}
	}
	return false
}

// Union merges two sets.
func (vs VarSet) Union(other VarSet) VarSet {
	return NewVarSet(append(append([]string(nil), vs...), other...)...)
}

func (vs VarSet) StructuralKey() string {
	return "{" + strings.Join(vs, ",") + "}"
}

func (vs VarSet) String() string { return vs.StructuralKey() }

// SubsPair is one binding of a substitution.
type SubsPair struct {
	Name  string
	Value Funsor
}

// Subst is an ordered substitution, the second argument of a Subs term.
// Order is significant for structural identity.
type Subst []SubsPair

func (s Subst) Get(name string) (Funsor, bool) {
	for _, p := range s {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func (s Subst) StructuralKey() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.Name + "=" + p.Value.StructuralKey()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (s Subst) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.Name + "=" + p.Value.String()
	}
	return strings.Join(parts, ", ")
}

// Parts exposes the bound values for reinterpretation.
func (s Subst) Parts() []any {
	parts := make([]any, len(s))
	for i, p := range s {
		parts[i] = p.Value
	}
	return parts
}

// Rebuild reassembles a Subst from reinterpreted values.
func (s Subst) Rebuild(parts []any) (any, error) {
	if len(parts) != len(s) {
		return nil, fmt.Errorf("substitution arity changed: %d vs %d", len(parts), len(s))
	}
	out := make(Subst, len(s))
	for i, p := range parts {
		f, ok := p.(Funsor)
		if !ok {
			return nil, fmt.Errorf("substitution value for %q is %T, not a funsor", s[i].Name, p)
		}
		out[i] = SubsPair{Name: s[i].Name, Value: f}
	}
	return out, nil
}

// Interpret routes one construction call through the default stack and
// asserts the result is a funsor.
func Interpret(sig interp.Signature, args []any) (Funsor, error) {
	v, err := interp.Interpret(sig, args)
	if err != nil {
		return nil, err
	}
	f, ok := v.(Funsor)
	if !ok {
		return nil, fmt.Errorf("interpretation of %s returned %T, not a funsor", sig, v)
	}
	return f, nil
}

// NewNumber constructs a real-valued number term.
func NewNumber(data float64) (Funsor, error) {
	return Interpret(NumberSig, []any{data, domain.Real()})
}

// NewNumberIn constructs a number term in an explicit domain.
func NewNumberIn(data float64, d domain.Domain) (Funsor, error) {
	return Interpret(NumberSig, []any{data, d})
}

// NewVariable constructs a real-valued free variable.
func NewVariable(name string) (Funsor, error) {
	return Interpret(VariableSig, []any{name, domain.Real()})
}

// NewVariableIn constructs a free variable with an explicit domain.
func NewVariableIn(name string, d domain.Domain) (Funsor, error) {
	return Interpret(VariableSig, []any{name, d})
}

// NewBinary constructs op(lhs, rhs).
func NewBinary(op *ops.BinaryOp, lhs, rhs Funsor) (Funsor, error) {
	return Interpret(BinarySig, []any{op, lhs, rhs})
}

// NewUnary constructs op(arg).
func NewUnary(op *ops.UnaryOp, arg Funsor) (Funsor, error) {
	return Interpret(UnarySig, []any{op, arg})
}

// NewReduce constructs the reduction of arg by op over the given
// variables.
func NewReduce(op *ops.BinaryOp, arg Funsor, vars VarSet) (Funsor, error) {
	return Interpret(ReduceSig, []any{op, arg, vars})
}

// Substitute applies bindings to arg. Bindings for names that are not
// free in arg are ignored.
func Substitute(arg Funsor, s Subst) (Funsor, error) {
	return Interpret(SubsSig, []any{arg, s})
}

// ToFunsor coerces a Go value to a funsor.
func ToFunsor(x any) (Funsor, error) {
	switch v := x.(type) {
	case Funsor:
		return v, nil
	case float64:
		return NewNumber(v)
	case int:
		return NewNumber(float64(v))
	default:
		return nil, fmt.Errorf("cannot convert %T to a funsor", x)
	}
}
