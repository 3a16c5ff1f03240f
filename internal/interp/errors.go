package interp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStackUnderflow reports a Pop without a matching Push. Unreachable when
// interpretations are installed through Stack.With.
var ErrStackUnderflow = errors.New("interpretation stack underflow")

// NoRuleError is returned by Dispatch when no registered pattern matches a
// call. It is fatal for that call and is never silently defaulted.
type NoRuleError struct {
	Sig   Signature
	Types []string
}

func (e *NoRuleError) Error() string {
	return fmt.Sprintf("no rule for %s(%s); this is most likely due to a missing pattern",
		e.Sig, strings.Join(e.Types, ", "))
}

// AmbiguousRuleError reports two registered patterns that are incomparable
// under the specificity ordering yet can match the same call. It is raised
// at registration time, not resolved at dispatch time.
type AmbiguousRuleError struct {
	Sig      Signature
	Pattern  string
	Conflict string
}

func (e *AmbiguousRuleError) Error() string {
	return fmt.Sprintf("ambiguous rules for %s: %s overlaps %s and neither is more specific",
		e.Sig, e.Pattern, e.Conflict)
}
