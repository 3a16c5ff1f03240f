package term

import (
	"fmt"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
)

// Eager and lazy rule sets for the term classes. Rule bodies construct
// nested terms through the public constructors, so they re-enter the
// interpretation stack and stay cacheable under decorating
// interpretations.

func init() {
	eager := interp.Eager.Registry()
	lazy := interp.Lazy.Registry()

	funsorM := interp.OfType[Funsor]()
	binOpM := interp.OfType[*ops.BinaryOp]()
	unOpM := interp.OfType[*ops.UnaryOp]()

	// Leaf classes have no reduction to perform; their rules reflect.
	eager.MustRegister(NumberSig,
		interp.Pattern{interp.OfType[float64](), interp.OfType[domain.Domain]()},
		func(args []any) (any, error) { return interp.Reflect(NumberSig, args) })
	eager.MustRegister(VariableSig,
		interp.Pattern{interp.OfType[string](), interp.OfType[domain.Domain]()},
		func(args []any) (any, error) { return interp.Reflect(VariableSig, args) })

	eager.MustRegister(BinarySig,
		interp.Pattern{binOpM, funsorM, funsorM}, eagerBinary)
	eager.MustRegister(BinarySig,
		interp.Pattern{binOpM, interp.OfType[*Number](), interp.OfType[*Number]()},
		eagerBinaryNumberNumber)

	eager.MustRegister(UnarySig,
		interp.Pattern{unOpM, funsorM}, eagerUnary)
	eager.MustRegister(UnarySig,
		interp.Pattern{unOpM, interp.OfType[*Number]()}, eagerUnaryNumber)

	eager.MustRegister(ReduceSig,
		interp.Pattern{binOpM, funsorM, interp.OfType[VarSet]()}, eagerReduce)

	// Substitution applies eagerly under both interpretations, so lazily
	// built graphs do not pile up trivially collapsible bindings.
	subsPattern := interp.Pattern{funsorM, interp.OfType[Subst]()}
	eager.MustRegister(SubsSig, subsPattern, eagerSubs)
	lazy.MustRegister(SubsSig, subsPattern, eagerSubs)
}

func eagerBinaryNumberNumber(args []any) (any, error) {
	op, lhs, rhs, err := binaryArgs(args)
	if err != nil {
		return nil, err
	}
	l := lhs.(*Number)
	r := rhs.(*Number)
	return NewNumberIn(op.Apply(l.Data, r.Data), domain.FindBinary(op, l.output, r.output))
}

// eagerBinary handles the symbolic case: absorb unit elements, otherwise
// stay a deferred node.
func eagerBinary(args []any) (any, error) {
	op, lhs, rhs, err := binaryArgs(args)
	if err != nil {
		return nil, err
	}
	if op.HasUnit && op.Commutative {
		if n, ok := lhs.(*Number); ok && n.Data == op.Unit && !n.output.Bounded {
			return rhs, nil
		}
		if n, ok := rhs.(*Number); ok && n.Data == op.Unit && !n.output.Bounded {
			return lhs, nil
		}
	}
	return interp.Reflect(BinarySig, args)
}

func eagerUnaryNumber(args []any) (any, error) {
	op, arg, err := unaryArgs(args)
	if err != nil {
		return nil, err
	}
	n := arg.(*Number)
	return NewNumberIn(op.Apply(n.Data), domain.FindUnary(op, n.output))
}

func eagerUnary(args []any) (any, error) {
	return interp.Reflect(UnarySig, args)
}

// substituter is implemented per term class; the generic rule prunes the
// substitution to the term's inputs and delegates here.
type substituter interface {
	substitute(s Subst) (Funsor, error)
}

func eagerSubs(args []any) (any, error) {
	arg, subst, err := subsArgs(args)
	if err != nil {
		return nil, err
	}
	pruned := make(Subst, 0, len(subst))
	for _, p := range subst {
		if arg.Inputs().Has(p.Name) {
			pruned = append(pruned, p)
		}
	}
	if len(pruned) == 0 {
		return arg, nil
	}
	sub, ok := arg.(substituter)
	if !ok {
		return nil, fmt.Errorf("cannot substitute into %T", arg)
	}
	return sub.substitute(pruned)
}

func (n *Number) substitute(Subst) (Funsor, error) { return n, nil }

func (v *Variable) substitute(s Subst) (Funsor, error) {
	val, ok := s.Get(v.VarName)
	if !ok {
		return v, nil
	}
	if v.output.Bounded && val.Output() != v.output {
		return nil, fmt.Errorf("substitution of %q: want %s, got %s",
			v.VarName, v.output, val.Output())
	}
	return val, nil
}

func (b *Binary) substitute(s Subst) (Funsor, error) {
	lhs, err := Substitute(b.Lhs, s)
	if err != nil {
		return nil, err
	}
	rhs, err := Substitute(b.Rhs, s)
	if err != nil {
		return nil, err
	}
	return NewBinary(b.Op, lhs, rhs)
}

func (u *Unary) substitute(s Subst) (Funsor, error) {
	arg, err := Substitute(u.Arg, s)
	if err != nil {
		return nil, err
	}
	return NewUnary(u.Op, arg)
}

func (r *Reduce) substitute(s Subst) (Funsor, error) {
	pruned := make(Subst, 0, len(s))
	for _, p := range s {
		if r.ReducedVars.Has(p.Name) {
			continue
		}
		for _, free := range p.Value.Inputs().Names() {
			if r.ReducedVars.Has(free) {
				return nil, fmt.Errorf("substitution of %q into %s would capture %q",
					p.Name, r, free)
			}
		}
		pruned = append(pruned, p)
	}
	arg, err := Substitute(r.Arg, pruned)
	if err != nil {
		return nil, err
	}
	return NewReduce(r.Op, arg, r.ReducedVars)
}

func (s *Subs) substitute(outer Subst) (Funsor, error) {
	// Compose: push the outer substitution through the recorded one, then
	// append outer bindings not shadowed by it.
	composed := make(Subst, 0, len(s.Subst)+len(outer))
	for _, p := range s.Subst {
		val, err := Substitute(p.Value, outer)
		if err != nil {
			return nil, err
		}
		composed = append(composed, SubsPair{Name: p.Name, Value: val})
	}
	for _, p := range outer {
		if _, shadowed := s.Subst.Get(p.Name); !shadowed {
			composed = append(composed, p)
		}
	}
	return Substitute(s.Arg, composed)
}

// eagerReduce reduces exactly when every reduced variable ranges over an
// enumerable domain, fuses nested reductions by the same op, and stays
// symbolic otherwise.
func eagerReduce(args []any) (any, error) {
	op, arg, vars, err := reduceArgs(args)
	if err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return arg, nil
	}
	if inner, ok := arg.(*Reduce); ok && inner.Op == op {
		return NewReduce(op, inner.Arg, vars.Union(inner.ReducedVars))
	}
	for _, name := range vars {
		d, ok := arg.Inputs().Domain(name)
		if !ok {
			return nil, fmt.Errorf("Reduce(%s): %q is not an input of %s", op.Name(), name, arg)
		}
		if !d.Enumerable() {
			return interp.Reflect(ReduceSig, args)
		}
	}
	return enumerateReduce(op, arg, vars)
}

// enumerateReduce folds op over the full cartesian product of the
// reduced variables' bounded domains.
func enumerateReduce(op *ops.BinaryOp, arg Funsor, vars VarSet) (Funsor, error) {
	doms := make([]domain.Domain, len(vars))
	for i, name := range vars {
		doms[i], _ = arg.Inputs().Domain(name)
		if doms[i].Size == 0 {
			if op.HasUnit {
				return NewNumber(op.Unit)
			}
			return nil, fmt.Errorf("Reduce(%s): empty domain and no unit element", op.Name())
		}
	}

	var acc Funsor
	assign := make([]int, len(vars))
	for {
		subst := make(Subst, len(vars))
		for i, name := range vars {
			val, err := NewNumberIn(float64(assign[i]), doms[i])
			if err != nil {
				return nil, err
			}
			subst[i] = SubsPair{Name: name, Value: val}
		}
		point, err := Substitute(arg, subst)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = point
		} else {
			acc, err = NewBinary(op, acc, point)
			if err != nil {
				return nil, err
			}
		}

		carry := len(vars) - 1
		for carry >= 0 {
			assign[carry]++
			if assign[carry] < doms[carry].Size {
				break
			}
			assign[carry] = 0
			carry--
		}
		if carry < 0 {
			break
		}
	}

	return acc, nil
}
