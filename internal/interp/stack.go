package interp

// Stack is a dynamically scoped stack of active interpretations. The top
// of the stack governs every construction call made through it until it
// is changed. A Stack is owned by a single goroutine; goroutines that
// need independent interpretations must each own their own Stack, since
// unsynchronized cross-goroutine push/pop would corrupt scoping.
//
// Term constructors route through the process-wide default stack, so the
// nested construction calls a rule body makes are governed by it, not by
// the Stack the top-level call came in on. A caller-owned Stack therefore
// governs only calls routed through it explicitly; an interpretation that
// must also see the re-entrant calls is installed on the default stack
// (With) for the duration of the pass.
type Stack struct {
	frames []Interpretation
}

// NewStack returns a stack whose base is the Eager interpretation.
func NewStack() *Stack {
	return &Stack{}
}

// Current returns the top of the stack. The stack is never observably
// empty: with no frames installed it reports Eager.
func (s *Stack) Current() Interpretation {
	if len(s.frames) == 0 {
		return Eager
	}
	return s.frames[len(s.frames)-1]
}

// Push installs an interpretation. Prefer With, which guarantees the
// matching Pop on every exit path.
func (s *Stack) Push(in Interpretation) {
	s.frames = append(s.frames, in)
}

// Pop removes the top interpretation. Popping the base is a
// programming-logic fault reported as ErrStackUnderflow.
func (s *Stack) Pop() (Interpretation, error) {
	if len(s.frames) == 0 {
		return nil, ErrStackUnderflow
	}
	in := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return in, nil
}

// With runs fn with in installed on top of the stack, restoring the prior
// top on every exit path, panics included.
func (s *Stack) With(in Interpretation, fn func() error) error {
	s.Push(in)
	defer s.Pop()
	return fn()
}

// Interpret routes one construction call to the current interpretation.
func (s *Stack) Interpret(sig Signature, args []any) (any, error) {
	if debugEnabled {
		return s.interpretTraced(sig, args)
	}
	return s.Current().Interpret(sig, args)
}

// defaultStack backs the package-level entry points. It is process-wide
// state with the same single-goroutine ownership rule as any Stack.
var defaultStack = NewStack()

// Default returns the process-wide stack used by the package-level
// Interpret, With, PushInterpretation and PopInterpretation — and, through
// them, by every term constructor a rule body re-enters.
func Default() *Stack { return defaultStack }

// Interpret is the single entry point every term constructor calls. The
// indirection through the current interpretation is what makes
// interpretations swappable without touching construction call sites.
func Interpret(sig Signature, args []any) (any, error) {
	return defaultStack.Interpret(sig, args)
}

// With runs fn with in installed on the default stack.
func With(in Interpretation, fn func() error) error {
	return defaultStack.With(in, fn)
}

// PushInterpretation installs in on the default stack.
func PushInterpretation(in Interpretation) { defaultStack.Push(in) }

// PopInterpretation removes the top of the default stack.
func PopInterpretation() (Interpretation, error) { return defaultStack.Pop() }
