package term

import (
	"fmt"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
)

// base carries the fields shared by every term class.
type base struct {
	inputs *Inputs
	output domain.Domain
	key    string
}

func (b *base) Inputs() *Inputs       { return b.inputs }
func (b *base) Output() domain.Domain { return b.output }
func (b *base) StructuralKey() string { return b.key }

// Number is a term backed by a scalar.
type Number struct {
	base
	Data float64
}

func (n *Number) Signature() interp.Signature { return NumberSig }
func (n *Number) Children() []any             { return []any{n.Data, n.output} }

func (n *Number) String() string {
	if n.output.Bounded {
		return fmt.Sprintf("Number(%v, %s)", n.Data, n.output)
	}
	return fmt.Sprintf("%v", n.Data)
}

// Variable is a single free variable.
type Variable struct {
	base
	VarName string
}

func (v *Variable) Signature() interp.Signature { return VariableSig }
func (v *Variable) Children() []any             { return []any{v.VarName, v.output} }
func (v *Variable) String() string              { return v.VarName }

// Binary is a deferred binary operation.
type Binary struct {
	base
	Op  *ops.BinaryOp
	Lhs Funsor
	Rhs Funsor
}

func (b *Binary) Signature() interp.Signature { return BinarySig }
func (b *Binary) Children() []any             { return []any{b.Op, b.Lhs, b.Rhs} }

func (b *Binary) String() string {
	return fmt.Sprintf("Binary(%s, %s, %s)", b.Op.Name(), b.Lhs, b.Rhs)
}

// Unary is a deferred unary operation.
type Unary struct {
	base
	Op  *ops.UnaryOp
	Arg Funsor
}

func (u *Unary) Signature() interp.Signature { return UnarySig }
func (u *Unary) Children() []any             { return []any{u.Op, u.Arg} }

func (u *Unary) String() string {
	return fmt.Sprintf("Unary(%s, %s)", u.Op.Name(), u.Arg)
}

// Reduce is a deferred reduction over one or more free variables.
type Reduce struct {
	base
	Op          *ops.BinaryOp
	Arg         Funsor
	ReducedVars VarSet
}

func (r *Reduce) Signature() interp.Signature { return ReduceSig }
func (r *Reduce) Children() []any             { return []any{r.Op, r.Arg, r.ReducedVars} }

func (r *Reduce) String() string {
	return fmt.Sprintf("Reduce(%s, %s, %s)", r.Op.Name(), r.Arg, r.ReducedVars)
}

// Subs is a deferred substitution of the form arg(x=y, ...).
type Subs struct {
	base
	Arg   Funsor
	Subst Subst
}

func (s *Subs) Signature() interp.Signature { return SubsSig }
func (s *Subs) Children() []any             { return []any{s.Arg, s.Subst} }

func (s *Subs) String() string {
	return fmt.Sprintf("%s(%s)", s.Arg, s.Subst)
}

// Reflectors: the plain node builders invoked by interp.Reflect. These
// are the only places term nodes are allocated; interp interns the
// results by structural identity.

func init() {
	interp.RegisterReflector(NumberSig, reflectNumber)
	interp.RegisterReflector(VariableSig, reflectVariable)
	interp.RegisterReflector(BinarySig, reflectBinary)
	interp.RegisterReflector(UnarySig, reflectUnary)
	interp.RegisterReflector(ReduceSig, reflectReduce)
	interp.RegisterReflector(SubsSig, reflectSubs)
}

func reflectNumber(args []any) (any, error) {
	data, dom, err := numberArgs(args)
	if err != nil {
		return nil, err
	}
	if !dom.Contains(data) {
		return nil, fmt.Errorf("Number: %v is not in %s", data, dom)
	}
	return &Number{
		base: base{
			inputs: NewInputs(),
			output: dom,
			key:    interp.CallKey(NumberSig, args),
		},
		Data: data,
	}, nil
}

func numberArgs(args []any) (float64, domain.Domain, error) {
	if len(args) != 2 {
		return 0, domain.Domain{}, fmt.Errorf("Number: want 2 args, got %d", len(args))
	}
	data, ok := args[0].(float64)
	if !ok {
		return 0, domain.Domain{}, fmt.Errorf("Number: data is %T, want float64", args[0])
	}
	dom, ok := args[1].(domain.Domain)
	if !ok {
		return 0, domain.Domain{}, fmt.Errorf("Number: domain is %T", args[1])
	}
	return data, dom, nil
}

func reflectVariable(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("Variable: want 2 args, got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Variable: name is %T, want string", args[0])
	}
	if name == "" {
		return nil, fmt.Errorf("Variable: empty name")
	}
	dom, ok := args[1].(domain.Domain)
	if !ok {
		return nil, fmt.Errorf("Variable: domain is %T", args[1])
	}
	inputs := NewInputs()
	if err := inputs.Add(name, dom); err != nil {
		return nil, err
	}
	return &Variable{
		base: base{
			inputs: inputs,
			output: dom,
			key:    interp.CallKey(VariableSig, args),
		},
		VarName: name,
	}, nil
}

func reflectBinary(args []any) (any, error) {
	op, lhs, rhs, err := binaryArgs(args)
	if err != nil {
		return nil, err
	}
	inputs, err := lhs.Inputs().Union(rhs.Inputs())
	if err != nil {
		return nil, fmt.Errorf("Binary(%s): %w", op.Name(), err)
	}
	return &Binary{
		base: base{
			inputs: inputs,
			output: domain.FindBinary(op, lhs.Output(), rhs.Output()),
			key:    interp.CallKey(BinarySig, args),
		},
		Op:  op,
		Lhs: lhs,
		Rhs: rhs,
	}, nil
}

func binaryArgs(args []any) (*ops.BinaryOp, Funsor, Funsor, error) {
	if len(args) != 3 {
		return nil, nil, nil, fmt.Errorf("Binary: want 3 args, got %d", len(args))
	}
	op, ok := args[0].(*ops.BinaryOp)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Binary: op is %T", args[0])
	}
	lhs, ok := args[1].(Funsor)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Binary: lhs is %T, not a funsor", args[1])
	}
	rhs, ok := args[2].(Funsor)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Binary: rhs is %T, not a funsor", args[2])
	}
	return op, lhs, rhs, nil
}

func reflectUnary(args []any) (any, error) {
	op, arg, err := unaryArgs(args)
	if err != nil {
		return nil, err
	}
	return &Unary{
		base: base{
			inputs: arg.Inputs().Copy(),
			output: domain.FindUnary(op, arg.Output()),
			key:    interp.CallKey(UnarySig, args),
		},
		Op:  op,
		Arg: arg,
	}, nil
}

func unaryArgs(args []any) (*ops.UnaryOp, Funsor, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("Unary: want 2 args, got %d", len(args))
	}
	op, ok := args[0].(*ops.UnaryOp)
	if !ok {
		return nil, nil, fmt.Errorf("Unary: op is %T", args[0])
	}
	arg, ok := args[1].(Funsor)
	if !ok {
		return nil, nil, fmt.Errorf("Unary: arg is %T, not a funsor", args[1])
	}
	return op, arg, nil
}

func reflectReduce(args []any) (any, error) {
	op, arg, vars, err := reduceArgs(args)
	if err != nil {
		return nil, err
	}
	for _, name := range vars {
		if !arg.Inputs().Has(name) {
			return nil, fmt.Errorf("Reduce(%s): %q is not an input of %s", op.Name(), name, arg)
		}
	}
	return &Reduce{
		base: base{
			inputs: arg.Inputs().Without(vars),
			output: arg.Output(),
			key:    interp.CallKey(ReduceSig, args),
		},
		Op:          op,
		Arg:         arg,
		ReducedVars: vars,
	}, nil
}

func reduceArgs(args []any) (*ops.BinaryOp, Funsor, VarSet, error) {
	if len(args) != 3 {
		return nil, nil, nil, fmt.Errorf("Reduce: want 3 args, got %d", len(args))
	}
	op, ok := args[0].(*ops.BinaryOp)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Reduce: op is %T", args[0])
	}
	if !op.Associative {
		return nil, nil, nil, fmt.Errorf("Reduce: op %s is not associative", op.Name())
	}
	arg, ok := args[1].(Funsor)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Reduce: arg is %T, not a funsor", args[1])
	}
	vars, ok := args[2].(VarSet)
	if !ok {
		return nil, nil, nil, fmt.Errorf("Reduce: vars is %T, want VarSet", args[2])
	}
	return op, arg, vars, nil
}

func reflectSubs(args []any) (any, error) {
	arg, subst, err := subsArgs(args)
	if err != nil {
		return nil, err
	}
	inputs := arg.Inputs().Copy()
	names := make([]string, len(subst))
	for i, p := range subst {
		if !arg.Inputs().Has(p.Name) {
			return nil, fmt.Errorf("Subs: %q is not an input of %s", p.Name, arg)
		}
		names[i] = p.Name
	}
	inputs = inputs.Without(NewVarSet(names...))
	for _, p := range subst {
		var uerr error
		inputs, uerr = inputs.Union(p.Value.Inputs())
		if uerr != nil {
			return nil, fmt.Errorf("Subs: %w", uerr)
		}
	}
	return &Subs{
		base: base{
			inputs: inputs,
			output: arg.Output(),
			key:    interp.CallKey(SubsSig, args),
		},
		Arg:   arg,
		Subst: subst,
	}, nil
}

func subsArgs(args []any) (Funsor, Subst, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("Subs: want 2 args, got %d", len(args))
	}
	arg, ok := args[0].(Funsor)
	if !ok {
		return nil, nil, fmt.Errorf("Subs: arg is %T, not a funsor", args[0])
	}
	subst, ok := args[1].(Subst)
	if !ok {
		return nil, nil, fmt.Errorf("Subs: substitution is %T, want Subst", args[1])
	}
	return arg, subst, nil
}
