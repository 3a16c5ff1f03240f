// Package montecarlo provides the sampling interpretation: a decorator
// that replaces exact probabilistic reductions with stochastic estimates
// by drawing sample keys and substituting the drawn values.
package montecarlo

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/funvibe/funsor/internal/domain"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/ops"
	"github.com/funvibe/funsor/internal/term"
)

// SamplingError reports a sampler failure for one variable. Monte Carlo
// surfaces it without retrying.
type SamplingError struct {
	Var string
	Err error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling %q: %v", e.Var, e.Err)
}

func (e *SamplingError) Unwrap() error { return e.Err }

// Sampler draws the value for one reduced variable. The key identifies
// the draw; the default sampler derives all of its randomness from it, so
// deterministic keys give deterministic values.
type Sampler interface {
	Sample(name string, d domain.Domain, key uuid.UUID) (float64, error)
}

// Draw is one recorded sample: its key and the substituted value.
type Draw struct {
	Key   uuid.UUID
	Value term.Funsor
}

// MonteCarlo wraps an inner interpretation. Reduce constructions whose op
// is declared sum-like are estimated by sampling; everything else
// delegates to the inner interpretation unchanged. Results are
// estimators, not exact reductions.
//
// The sample context maps reduced-variable names to draws and accumulates
// over nested reductions within the instance's lifetime, so the same
// variable is drawn at most once per call tree. Reproducibility requires
// an explicit seed; without one, sample keys are random by design.
type MonteCarlo struct {
	inner   interp.Interpretation
	sampler Sampler
	seed    *int64
	samples int
	draws   map[string]Draw
}

// Option configures a MonteCarlo instance.
type Option func(*MonteCarlo)

// WithSeed makes sample keys (and so sampled values) deterministic.
func WithSeed(seed int64) Option {
	return func(mc *MonteCarlo) { mc.seed = &seed }
}

// WithSampler replaces the default sampler.
func WithSampler(s Sampler) Option {
	return func(mc *MonteCarlo) { mc.sampler = s }
}

// WithSamples sets the declared sample count: each estimated reduction
// averages n independent draws. Draws are recorded in the shared sample
// context only when n is 1; batched draws stay local to their reduction.
func WithSamples(n int) Option {
	return func(mc *MonteCarlo) {
		if n > 0 {
			mc.samples = n
		}
	}
}

// New wraps inner.
func New(inner interp.Interpretation, opts ...Option) *MonteCarlo {
	mc := &MonteCarlo{
		inner:   inner,
		sampler: defaultSampler{},
		samples: 1,
		draws:   make(map[string]Draw),
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

func (mc *MonteCarlo) Name() string {
	return fmt.Sprintf("montecarlo(%s)", mc.inner.Name())
}

// Draws returns a copy of the sample context.
func (mc *MonteCarlo) Draws() map[string]Draw {
	out := make(map[string]Draw, len(mc.draws))
	for k, v := range mc.draws {
		out[k] = v
	}
	return out
}

// Reset clears the sample context, starting a fresh call tree.
func (mc *MonteCarlo) Reset() { mc.draws = make(map[string]Draw) }

func (mc *MonteCarlo) Interpret(sig interp.Signature, args []any) (any, error) {
	if sig != term.ReduceSig || len(args) != 3 {
		return mc.inner.Interpret(sig, args)
	}
	op, opOK := args[0].(*ops.BinaryOp)
	arg, argOK := args[1].(term.Funsor)
	vars, varsOK := args[2].(term.VarSet)
	if !opOK || !argOK || !varsOK || !op.SumLike || len(vars) == 0 {
		return mc.inner.Interpret(sig, args)
	}

	if mc.samples == 1 {
		return mc.estimate(op, arg, vars, 0, true)
	}

	// Declared-sample-count mode: average independent replicates.
	results := make([]any, mc.samples)
	for i := range results {
		r, err := mc.estimate(op, arg, vars, i, false)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return mc.combine(op, results)
}

// estimate computes one single-draw estimate of Reduce(op, arg, vars):
// draw (or reuse) a value per reduced variable, substitute, and scale to
// keep sum-like estimates over bounded domains unbiased.
func (mc *MonteCarlo) estimate(op *ops.BinaryOp, arg term.Funsor, vars term.VarSet, replicate int, record bool) (any, error) {
	subst := make(term.Subst, 0, len(vars))
	factor := 1.0
	logScale := 0.0
	for _, name := range vars {
		d, ok := arg.Inputs().Domain(name)
		if !ok {
			return nil, &SamplingError{Var: name, Err: fmt.Errorf("not an input of %s", arg)}
		}
		draw, have := mc.draws[name]
		if !have || !record {
			var err error
			draw, err = mc.draw(name, d, replicate)
			if err != nil {
				return nil, err
			}
			if record {
				mc.draws[name] = draw
			}
		}
		subst = append(subst, term.SubsPair{Name: name, Value: draw.Value})
		if d.Bounded {
			if op.LogSpace {
				logScale += math.Log(float64(d.Size))
			} else {
				factor *= float64(d.Size)
			}
		}
	}

	result, err := mc.inner.Interpret(term.SubsSig, []any{arg, subst})
	if err != nil {
		return nil, err
	}
	if op.LogSpace && logScale != 0 {
		return mc.apply(ops.Add, result, logScale)
	}
	if !op.LogSpace && factor != 1 {
		return mc.apply(ops.Mul, result, factor)
	}
	return result, nil
}

func (mc *MonteCarlo) draw(name string, d domain.Domain, replicate int) (Draw, error) {
	key := mc.sampleKey(name, replicate)
	data, err := mc.sampler.Sample(name, d, key)
	if err != nil {
		return Draw{}, &SamplingError{Var: name, Err: err}
	}
	v, err := mc.inner.Interpret(term.NumberSig, []any{data, d})
	if err != nil {
		return Draw{}, err
	}
	f, ok := v.(term.Funsor)
	if !ok {
		return Draw{}, fmt.Errorf("montecarlo: sample value is %T, not a funsor", v)
	}
	return Draw{Key: key, Value: f}, nil
}

// sampleKey identifies one draw. Seeded instances derive a V5 UUID from
// the seed, variable name and replicate index, so keys (and values) are
// reproducible across runs; unseeded instances use random V4 keys.
func (mc *MonteCarlo) sampleKey(name string, replicate int) uuid.UUID {
	if mc.seed == nil {
		return uuid.New()
	}
	material := fmt.Sprintf("%d/%s/%d", *mc.seed, name, replicate)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(material))
}

// combine averages replicate estimates: arithmetic mean for sums,
// logsumexp minus log n in log space.
func (mc *MonteCarlo) combine(op *ops.BinaryOp, results []any) (any, error) {
	foldOp := ops.Add
	if op.LogSpace {
		foldOp = ops.LogAddExp
	}
	acc := results[0]
	for _, r := range results[1:] {
		var err error
		acc, err = mc.applyBinary(foldOp, acc, r)
		if err != nil {
			return nil, err
		}
	}
	n := float64(len(results))
	if op.LogSpace {
		return mc.apply(ops.Sub, acc, math.Log(n))
	}
	return mc.apply(ops.Div, acc, n)
}

// apply builds op(result, scalar) through the inner interpretation.
func (mc *MonteCarlo) apply(op *ops.BinaryOp, result any, scalar float64) (any, error) {
	num, err := mc.inner.Interpret(term.NumberSig, []any{scalar, domain.Real()})
	if err != nil {
		return nil, err
	}
	return mc.applyBinary(op, result, num)
}

func (mc *MonteCarlo) applyBinary(op *ops.BinaryOp, lhs, rhs any) (any, error) {
	return mc.inner.Interpret(term.BinarySig, []any{op, lhs, rhs})
}
