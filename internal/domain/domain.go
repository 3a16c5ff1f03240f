package domain

import (
	"fmt"

	"github.com/funvibe/funsor/internal/ops"
)

// Domain is the output type of a term: either the real line or a bounded
// integer range {0, ..., Size-1}. Domains are small values and are
// compared with ==.
type Domain struct {
	// Bounded is true for Bint domains; false means real.
	Bounded bool
	// Size is the number of elements of a bounded domain.
	Size int
}

// Real returns the real scalar domain.
func Real() Domain { return Domain{} }

// Bint returns the bounded integer domain of the given size.
func Bint(size int) Domain {
	if size < 0 {
		panic(fmt.Sprintf("domain: negative Bint size %d", size))
	}
	return Domain{Bounded: true, Size: size}
}

func (d Domain) String() string {
	if d.Bounded {
		return fmt.Sprintf("bint(%d)", d.Size)
	}
	return "real"
}

// Enumerable reports whether the domain supports exact reduction by
// enumeration.
func (d Domain) Enumerable() bool { return d.Bounded }

// Contains reports whether a scalar value inhabits the domain.
func (d Domain) Contains(v float64) bool {
	if !d.Bounded {
		return true
	}
	i := int(v)
	return float64(i) == v && 0 <= i && i < d.Size
}

// FindBinary infers the output domain of a binary op. Min and max of two
// bounded domains stay bounded; every other combination widens to real.
func FindBinary(op *ops.BinaryOp, lhs, rhs Domain) Domain {
	if lhs.Bounded && rhs.Bounded && (op == ops.Min || op == ops.Max) {
		if lhs.Size > rhs.Size {
			return lhs
		}
		return rhs
	}
	return Real()
}

// FindUnary infers the output domain of a unary op. All declared unary
// ops are real-valued.
func FindUnary(op *ops.UnaryOp, arg Domain) Domain {
	_ = op
	_ = arg
	return Real()
}
