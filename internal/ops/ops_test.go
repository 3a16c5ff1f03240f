package ops

import (
	"math"
	"testing"
)

func TestBinaryApply(t *testing.T) {
	tests := []struct {
		op   *BinaryOp
		x, y float64
		want float64
	}{
		{Add, 2, 3, 5},
		{Sub, 2, 3, -1},
		{Mul, 2, 3, 6},
		{Div, 1, 4, 0.25},
		{Pow, 2, 10, 1024},
		{Min, -1, 1, -1},
		{Max, -1, 1, 1},
	}
	for _, tt := range tests {
		if got := tt.op.Apply(tt.x, tt.y); got != tt.want {
			t.Errorf("%s(%v, %v) = %v, want %v", tt.op.Name(), tt.x, tt.y, got, tt.want)
		}
	}
}

func TestLogAddExp(t *testing.T) {
	got := LogAddExp.Apply(math.Log(2), math.Log(3))
	if want := math.Log(5); math.Abs(got-want) > 1e-12 {
		t.Errorf("logaddexp(log 2, log 3) = %v, want log 5 = %v", got, want)
	}

	// The unit absorbs on either side.
	if got := LogAddExp.Apply(math.Inf(-1), 7); got != 7 {
		t.Errorf("logaddexp(-inf, 7) = %v, want 7", got)
	}
	if got := LogAddExp.Apply(7, math.Inf(-1)); got != 7 {
		t.Errorf("logaddexp(7, -inf) = %v, want 7", got)
	}

	// Large magnitudes must not overflow through exp.
	got = LogAddExp.Apply(1000, 1000)
	if want := 1000 + math.Log(2); math.Abs(got-want) > 1e-9 {
		t.Errorf("logaddexp(1000, 1000) = %v, want %v", got, want)
	}
}

func TestUnits(t *testing.T) {
	tests := []struct {
		op *BinaryOp
		x  float64
	}{
		{Add, 3.5},
		{Mul, 3.5},
		{LogAddExp, 3.5},
	}
	for _, tt := range tests {
		if !tt.op.HasUnit {
			t.Errorf("%s has no declared unit", tt.op.Name())
			continue
		}
		if got := tt.op.Apply(tt.x, tt.op.Unit); got != tt.x {
			t.Errorf("%s(%v, unit) = %v, want %v", tt.op.Name(), tt.x, got, tt.x)
		}
	}
}

func TestAlgebraicFlags(t *testing.T) {
	for _, op := range []*BinaryOp{Add, Mul, Min, Max, LogAddExp} {
		if !op.Commutative || !op.Associative {
			t.Errorf("%s should be commutative and associative", op.Name())
		}
	}
	for _, op := range []*BinaryOp{Sub, Div, Pow} {
		if op.Commutative {
			t.Errorf("%s should not be commutative", op.Name())
		}
	}
	for _, op := range []*BinaryOp{Add, LogAddExp} {
		if !op.SumLike {
			t.Errorf("%s should be sum-like", op.Name())
		}
	}
	if Max.SumLike {
		t.Error("max is not sum-like")
	}
	if !LogAddExp.LogSpace || Add.LogSpace {
		t.Error("log-space flag should mark logaddexp only")
	}
}

func TestLookupByName(t *testing.T) {
	if op, ok := BinaryByName("logaddexp"); !ok || op != LogAddExp {
		t.Error("logaddexp lookup failed")
	}
	if _, ok := BinaryByName("frob"); ok {
		t.Error("frob should not resolve")
	}
	if op, ok := UnaryByName("sqrt"); !ok || op != Sqrt {
		t.Error("sqrt lookup failed")
	}
	if _, ok := UnaryByName("add"); ok {
		t.Error("add is not a unary op")
	}
}

func TestUnaryApply(t *testing.T) {
	tests := []struct {
		op   *UnaryOp
		x    float64
		want float64
	}{
		{Neg, 3, -3},
		{Abs, -4, 4},
		{Exp, 0, 1},
		{Log, 1, 0},
		{Sqrt, 9, 3},
	}
	for _, tt := range tests {
		if got := tt.op.Apply(tt.x); got != tt.want {
			t.Errorf("%s(%v) = %v, want %v", tt.op.Name(), tt.x, got, tt.want)
		}
	}
}
