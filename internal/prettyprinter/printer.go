// Package prettyprinter renders funsor terms as infix source text and as
// indented trees.
package prettyprinter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/funsor/internal/ops"
	"github.com/funvibe/funsor/internal/term"
)

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"add": 1,
	"sub": 1,
	"mul": 2,
	"div": 2,
	"pow": 3,
}

var infixSymbols = map[string]string{
	"add": "+",
	"sub": "-",
	"mul": "*",
	"div": "/",
	"pow": "**",
}

// reduceKeywords are the spellings the parser accepts back.
var reduceKeywords = map[string]string{
	"add":       "sum",
	"mul":       "prod",
	"max":       "max",
	"min":       "min",
	"logaddexp": "logsumexp",
}

// Print renders f as parseable infix source text.
func Print(f term.Funsor) string {
	return print(f, 0)
}

func print(f term.Funsor, parentPrec int) string {
	switch t := f.(type) {
	case *term.Number:
		s := strconv.FormatFloat(t.Data, 'g', -1, 64)
		if t.Data < 0 && parentPrec > 0 {
			return "(" + s + ")"
		}
		return s
	case *term.Variable:
		return t.VarName
	case *term.Binary:
		sym, ok := infixSymbols[t.Op.Name()]
		if !ok {
			return fmt.Sprintf("%s(%s, %s)", t.Op.Name(), print(t.Lhs, 0), print(t.Rhs, 0))
		}
		prec := operatorPrecedence[t.Op.Name()]
		out := print(t.Lhs, prec) + " " + sym + " " + print(t.Rhs, prec+1)
		if prec < parentPrec {
			return "(" + out + ")"
		}
		return out
	case *term.Unary:
		if t.Op == ops.Neg {
			return "-" + print(t.Arg, 4)
		}
		return fmt.Sprintf("%s(%s)", t.Op.Name(), print(t.Arg, 0))
	case *term.Reduce:
		kw, ok := reduceKeywords[t.Op.Name()]
		if !ok {
			kw = t.Op.Name()
		}
		vars := make([]string, len(t.ReducedVars))
		for i, name := range t.ReducedVars {
			d, _ := t.Arg.Inputs().Domain(name)
			if d.Bounded {
				vars[i] = fmt.Sprintf("%s:%s", name, d)
			} else {
				vars[i] = name
			}
		}
		out := fmt.Sprintf("%s[%s] %s", kw, strings.Join(vars, ", "), print(t.Arg, 0))
		if parentPrec > 0 {
			return "(" + out + ")"
		}
		return out
	case *term.Subs:
		return fmt.Sprintf("%s(%s)", print(t.Arg, 4), t.Subst)
	default:
		return f.String()
	}
}

// ANSI styles used by the tree renderer.
const (
	styleReset = "\x1b[0m"
	styleNode  = "\x1b[36m"
	styleLeaf  = "\x1b[33m"
	styleMeta  = "\x1b[90m"
)

// Tree renders f as an indented tree, one node per line, optionally
// colored for terminal output.
func Tree(f term.Funsor, color bool) string {
	var b strings.Builder
	tree(&b, f, 0, color)
	return b.String()
}

func tree(b *strings.Builder, f term.Funsor, indent int, color bool) {
	prefix := strings.Repeat("|   ", indent)

	line := func(style, text, meta string) {
		b.WriteString(prefix)
		if color {
			b.WriteString(style + text + styleReset)
			if meta != "" {
				b.WriteString(" " + styleMeta + meta + styleReset)
			}
		} else {
			b.WriteString(text)
			if meta != "" {
				b.WriteString(" " + meta)
			}
		}
		b.WriteByte('\n')
	}

	switch t := f.(type) {
	case *term.Number:
		line(styleLeaf, strconv.FormatFloat(t.Data, 'g', -1, 64), t.Output().String())
	case *term.Variable:
		line(styleLeaf, t.VarName, t.Output().String())
	case *term.Binary:
		line(styleNode, "Binary "+t.Op.Name(), "")
		tree(b, t.Lhs, indent+1, color)
		tree(b, t.Rhs, indent+1, color)
	case *term.Unary:
		line(styleNode, "Unary "+t.Op.Name(), "")
		tree(b, t.Arg, indent+1, color)
	case *term.Reduce:
		line(styleNode, "Reduce "+t.Op.Name(), t.ReducedVars.String())
		tree(b, t.Arg, indent+1, color)
	case *term.Subs:
		line(styleNode, "Subs", "")
		tree(b, t.Arg, indent+1, color)
		for _, p := range t.Subst {
			line(styleMeta, p.Name+" =", "")
			tree(b, p.Value, indent+1, color)
		}
	default:
		line(styleNode, f.String(), "")
	}
}
