package montecarlo

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
	"github.com/funvibe/funsor/internal/term"
)

func mustFunsor(t *testing.T) func(term.Funsor, error) term.Funsor {
	return func(f term.Funsor, err error) term.Funsor {
		t.Helper()
		if err != nil {
			t.Fatalf("construction failed: %v", err)
		}
		return f
	}
}

func asNumber(t *testing.T, v any) *term.Number {
	t.Helper()
	n, ok := v.(*term.Number)
	if !ok {
		t.Fatalf("got %T (%v), want *Number", v, v)
	}
	return n
}

// squared builds x*x over the given domain for x, lazily so the reduction
// reaches the decorator unevaluated.
func squaredReduce(t *testing.T, d domain.Domain) (term.Funsor, term.Funsor, term.VarSet) {
	t.Helper()
	x := mustFunsor(t)(term.NewVariableIn("x", d))
	sq := mustFunsor(t)(term.NewBinary(ops.Mul, x, x))
	return x, sq, term.NewVarSet("x")
}

func estimateOnce(t *testing.T, mc *MonteCarlo, arg term.Funsor, vars term.VarSet) float64 {
	t.Helper()
	v, err := mc.Interpret(term.ReduceSig, []any{ops.Add, arg, vars})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	return asNumber(t, v).Data
}

func TestSeededEstimatesReproduce(t *testing.T) {
	_, sq, vars := squaredReduce(t, domain.Real())

	a := estimateOnce(t, New(interp.Eager, WithSeed(7)), sq, vars)
	b := estimateOnce(t, New(interp.Eager, WithSeed(7)), sq, vars)
	if a != b {
		t.Errorf("same seed gave %v and %v", a, b)
	}

	c := estimateOnce(t, New(interp.Eager, WithSeed(8)), sq, vars)
	if a == c {
		t.Errorf("different seeds gave the same estimate %v", a)
	}
}

func TestUnseededEstimatesVary(t *testing.T) {
	_, sq, vars := squaredReduce(t, domain.Real())

	first := estimateOnce(t, New(interp.Eager), sq, vars)
	for i := 0; i < 20; i++ {
		if estimateOnce(t, New(interp.Eager), sq, vars) != first {
			return
		}
	}
	t.Error("20 unseeded estimates over a continuous domain all agree")
}

func TestNonSumLikeDelegates(t *testing.T) {
	x := mustFunsor(t)(term.NewVariableIn("x", domain.Bint(4)))
	mc := New(interp.Eager, WithSeed(1))
	v, err := mc.Interpret(term.ReduceSig, []any{ops.Max, x, term.NewVarSet("x")})
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if n := asNumber(t, v); n.Data != 3 {
		t.Errorf("max over bint(4) = %v, want the exact 3", n.Data)
	}
	if len(mc.Draws()) != 0 {
		t.Errorf("exact reduction recorded %d draws, want 0", len(mc.Draws()))
	}
}

func TestNonReduceDelegates(t *testing.T) {
	mc := New(interp.Eager, WithSeed(1))
	two := mustFunsor(t)(term.NewNumber(2))
	three := mustFunsor(t)(term.NewNumber(3))
	v, err := mc.Interpret(term.BinarySig, []any{ops.Add, two, three})
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if n := asNumber(t, v); n.Data != 5 {
		t.Errorf("2 + 3 = %v, want 5", n.Data)
	}
}

func TestBoundedScalingIsUnbiasedPerDraw(t *testing.T) {
	x := mustFunsor(t)(term.NewVariableIn("x", domain.Bint(5)))
	mc := New(interp.Eager, WithSeed(3))
	v, err := mc.Interpret(term.ReduceSig, []any{ops.Add, x, term.NewVarSet("x")})
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	got := asNumber(t, v).Data

	draws := mc.Draws()
	draw, ok := draws["x"]
	if !ok {
		t.Fatal("no draw recorded for x")
	}
	drawn := asNumber(t, draw.Value).Data
	if want := 5 * drawn; got != want {
		t.Errorf("estimate = %v, want size times the draw = %v", got, want)
	}
	if drawn < 0 || drawn > 4 {
		t.Errorf("drawn value %v outside bint(5)", drawn)
	}
}

func TestSampleContextReused(t *testing.T) {
	_, sq, vars := squaredReduce(t, domain.Real())
	x := mustFunsor(t)(term.NewVariable("x"))

	mc := New(interp.Eager, WithSeed(11))
	first, err := mc.Interpret(term.ReduceSig, []any{ops.Add, sq, vars})
	if err != nil {
		t.Fatalf("first reduction: %v", err)
	}
	second, err := mc.Interpret(term.ReduceSig, []any{ops.Add, x, vars})
	if err != nil {
		t.Fatalf("second reduction: %v", err)
	}

	drawn := asNumber(t, mc.Draws()["x"].Value).Data
	if got := asNumber(t, second).Data; got != drawn {
		t.Errorf("second reduction used %v, want the recorded draw %v", got, drawn)
	}
	if got, want := asNumber(t, first).Data, drawn*drawn; got != want {
		t.Errorf("first reduction = %v, want draw squared %v", got, want)
	}
}

func TestResetStartsFreshContext(t *testing.T) {
	_, sq, vars := squaredReduce(t, domain.Real())
	mc := New(interp.Eager)
	if _, err := mc.Interpret(term.ReduceSig, []any{ops.Add, sq, vars}); err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if len(mc.Draws()) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(mc.Draws()))
	}
	mc.Reset()
	if len(mc.Draws()) != 0 {
		t.Errorf("draws after reset = %d, want 0", len(mc.Draws()))
	}
}

type failingSampler struct{ err error }

func (f failingSampler) Sample(string, domain.Domain, uuid.UUID) (float64, error) {
	return 0, f.err
}

func TestSamplerFailureSurfaces(t *testing.T) {
	_, sq, vars := squaredReduce(t, domain.Real())
	cause := errors.New("no density")
	mc := New(interp.Eager, WithSampler(failingSampler{err: cause}))
	_, err := mc.Interpret(term.ReduceSig, []any{ops.Add, sq, vars})
	var serr *SamplingError
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want SamplingError", err)
	}
	if serr.Var != "x" || !errors.Is(err, cause) {
		t.Errorf("error = %v, want variable x wrapping the cause", serr)
	}
}

type fixedSampler struct{ values map[string][]float64 }

func (f fixedSampler) Sample(name string, d domain.Domain, key uuid.UUID) (float64, error) {
	vals := f.values[name]
	v := vals[0]
	if len(vals) > 1 {
		f.values[name] = vals[1:]
	}
	return v, nil
}

func TestDeclaredSampleCountAverages(t *testing.T) {
	x := mustFunsor(t)(term.NewVariable("x"))
	sampler := fixedSampler{values: map[string][]float64{"x": {1, 2, 6}}}
	mc := New(interp.Eager, WithSampler(sampler), WithSamples(3))

	v, err := mc.Interpret(term.ReduceSig, []any{ops.Add, x, term.NewVarSet("x")})
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if got := asNumber(t, v).Data; got != 3 {
		t.Errorf("mean of 1, 2, 6 = %v, want 3", got)
	}
	if len(mc.Draws()) != 0 {
		t.Errorf("batched draws recorded %d entries, want 0", len(mc.Draws()))
	}
}

func TestLogSpaceScaling(t *testing.T) {
	x := mustFunsor(t)(term.NewVariableIn("x", domain.Bint(4)))
	sampler := fixedSampler{values: map[string][]float64{"x": {2}}}
	mc := New(interp.Eager, WithSampler(sampler))

	v, err := mc.Interpret(term.ReduceSig, []any{ops.LogAddExp, x, term.NewVarSet("x")})
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	// The estimate is the draw plus log of the domain size.
	got := asNumber(t, v).Data
	want := 2 + 1.3862943611198906
	if diff := got - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("log-space estimate = %v, want %v", got, want)
	}
}
