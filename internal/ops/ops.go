package ops

import "math"

// Op is an operation tag attached to Binary, Unary and Reduce terms.
// Ops are compared by pointer identity; each op is declared exactly once
// in this package.
type Op interface {
	Name() string
}

// BinaryOp is a scalar binary operation together with its algebraic
// properties. Properties are declared explicitly, never inferred: the
// Commutative flag drives cache-key canonicalization in memoize, and the
// SumLike flag marks ops whose reductions admit a Monte Carlo estimate.
type BinaryOp struct {
	name        string
	fn          func(x, y float64) float64
	Associative bool
	Commutative bool
	// SumLike marks ops that behave like a (possibly log-space) sum, so
	// that Reduce over a bounded domain can be estimated by uniform
	// sampling with an unbiasing scale factor.
	SumLike bool
	// HasUnit reports whether Unit is the identity element of the op.
	HasUnit bool
	Unit    float64
	// LogSpace marks ops whose unbiasing scale is additive in log space.
	LogSpace bool
}

func (op *BinaryOp) Name() string { return op.name }

// Apply evaluates the op on scalar data.
func (op *BinaryOp) Apply(x, y float64) float64 { return op.fn(x, y) }

// UnaryOp is a scalar unary operation.
type UnaryOp struct {
	name string
	fn   func(x float64) float64
}

func (op *UnaryOp) Name() string { return op.name }

func (op *UnaryOp) Apply(x float64) float64 { return op.fn(x) }

var (
	Add = &BinaryOp{
		name:        "add",
		fn:          func(x, y float64) float64 { return x + y },
		Associative: true,
		Commutative: true,
		SumLike:     true,
		HasUnit:     true,
		Unit:        0,
	}
	Sub = &BinaryOp{
		name: "sub",
		fn:   func(x, y float64) float64 { return x - y },
	}
	Mul = &BinaryOp{
		name:        "mul",
		fn:          func(x, y float64) float64 { return x * y },
		Associative: true,
		Commutative: true,
		HasUnit:     true,
		Unit:        1,
	}
	Div = &BinaryOp{
		name: "div",
		fn:   func(x, y float64) float64 { return x / y },
	}
	Pow = &BinaryOp{
		name: "pow",
		fn:   math.Pow,
	}
	Min = &BinaryOp{
		name:        "min",
		fn:          math.Min,
		Associative: true,
		Commutative: true,
	}
	Max = &BinaryOp{
		name:        "max",
		fn:          math.Max,
		Associative: true,
		Commutative: true,
	}
	// LogAddExp is the reduction op of log-space marginalization
	// (logsumexp). Its Monte Carlo scale factor is additive: log(n).
	LogAddExp = &BinaryOp{
		name: "logaddexp",
		fn: func(x, y float64) float64 {
			if math.IsInf(x, -1) {
				return y
			}
			if math.IsInf(y, -1) {
				return x
			}
			m := math.Max(x, y)
			return m + math.Log(math.Exp(x-m)+math.Exp(y-m))
		},
		Associative: true,
		Commutative: true,
		SumLike:     true,
		HasUnit:     true,
		Unit:        math.Inf(-1),
		LogSpace:    true,
	}
)

var (
	Neg  = &UnaryOp{name: "neg", fn: func(x float64) float64 { return -x }}
	Abs  = &UnaryOp{name: "abs", fn: math.Abs}
	Exp  = &UnaryOp{name: "exp", fn: math.Exp}
	Log  = &UnaryOp{name: "log", fn: math.Log}
	Sqrt = &UnaryOp{name: "sqrt", fn: math.Sqrt}
)

// binaryOps indexes the declared binary ops by name, for the parser and
// for decoding persisted cache entries.
var binaryOps = map[string]*BinaryOp{}

// unaryOps indexes the declared unary ops by name.
var unaryOps = map[string]*UnaryOp{}

func init() {
	for _, op := range []*BinaryOp{Add, Sub, Mul, Div, Pow, Min, Max, LogAddExp} {
		binaryOps[op.name] = op
	}
	for _, op := range []*UnaryOp{Neg, Abs, Exp, Log, Sqrt} {
		unaryOps[op.name] = op
	}
}

// BinaryByName looks up a declared binary op by its name.
func BinaryByName(name string) (*BinaryOp, bool) {
	op, ok := binaryOps[name]
	return op, ok
}

// UnaryByName looks up a declared unary op by its name.
func UnaryByName(name string) (*UnaryOp, bool) {
	op, ok := unaryOps[name]
	return op, ok
}
