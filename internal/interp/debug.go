package interp

import (
	"fmt"
	"os"
	"strings"
)

// debugEnabled is read once at startup from FUNSOR_DEBUG. When set, every
// call routed through a Stack prints an indented dispatch trace to stderr.
var debugEnabled = os.Getenv("FUNSOR_DEBUG") != ""

var debugDepth int

func (s *Stack) interpretTraced(sig Signature, args []any) (any, error) {
	indent := strings.Repeat("  ", debugDepth)
	types := make([]string, len(args))
	for i, arg := range args {
		types[i] = fmt.Sprintf("%T", arg)
	}
	fmt.Fprintf(os.Stderr, "%s%s %s(%s)\n",
		indent, s.Current().Name(), sig, strings.Join(types, ", "))

	debugDepth++
	result, err := s.Current().Interpret(sig, args)
	debugDepth--

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s-> error: %v\n", indent, err)
	} else {
		fmt.Fprintf(os.Stderr, "%s-> %T\n", indent, result)
	}
	return result, err
}
