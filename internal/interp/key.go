package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// Keyed is implemented by values with a stable content-based identity.
// Term nodes and composite argument values implement it so that two
// structurally equal calls produce the same key regardless of where the
// values were allocated.
type Keyed interface {
	StructuralKey() string
}

// named matches operation tags without depending on the ops package.
type named interface {
	Name() string
}

// KeyOf returns the structural identity of a single argument value.
func KeyOf(x any) string {
	switch v := x.(type) {
	case Keyed:
		return v.StructuralKey()
	case named:
		return "op/" + v.Name()
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		// Deterministic for value types; pointer types fall back to %v
		// which is stable for the lifetime of the value.
		return fmt.Sprintf("%T(%v)", v, v)
	}
}

// CallKey returns the structural identity of a whole construction call:
// the signature plus the ordered argument identities.
func CallKey(sig Signature, args []any) string {
	var b strings.Builder
	b.WriteString(string(sig))
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(KeyOf(arg))
	}
	b.WriteByte(')')
	return b.String()
}
