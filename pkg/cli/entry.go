// Package cli implements the funsor command line entry point.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/funsor/internal/config"
	"github.com/funvibe/funsor/internal/interp"
	"github.com/funvibe/funsor/internal/memoize"
	"github.com/funvibe/funsor/internal/montecarlo"
	"github.com/funvibe/funsor/internal/parser"
	"github.com/funvibe/funsor/internal/prettyprinter"
	"github.com/funvibe/funsor/internal/term"
)

// Entry runs the CLI and returns the process exit code.
func Entry(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("funsor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		mode     = fs.String("m", "", "interpretation: eager, lazy, memoize or montecarlo")
		bindings = fs.String("b", "", "variable bindings, e.g. x=1,y=2.5")
		seed     = fs.Int64("seed", 0, "random seed for montecarlo (reproducible when set)")
		samples  = fs.Int("n", 0, "sample count per estimated reduction")
		cache    = fs.String("cache", "", "path to a persistent memoize cache database")
		tree     = fs.Bool("tree", false, "print the result as a tree")
		noColor  = fs.Bool("no-color", false, "disable colored output")
		confDir  = fs.String("config", ".", "directory containing "+config.ConfigFileName)
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: funsor [flags] EXPR")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*confDir)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if *mode != "" {
		cfg.Interpretation = *mode
	}
	if *samples > 0 {
		cfg.MonteCarlo.Samples = *samples
	}
	seedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if seedSet {
		s := *seed
		cfg.MonteCarlo.Seed = &s
	}
	if *cache != "" {
		cfg.Cache.Path = *cache
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	result, err := run(fs.Arg(0), *bindings, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if *tree {
		fmt.Fprint(stdout, prettyprinter.Tree(result, useColor(stdout, *noColor)))
	} else {
		fmt.Fprintln(stdout, prettyprinter.Print(result))
	}
	return 0
}

// run parses the expression lazily, applies bindings, and forces the
// deferred graph under the configured interpretation.
func run(input, bindings string, cfg *config.Config) (term.Funsor, error) {
	var graph term.Funsor
	err := interp.With(interp.Lazy, func() error {
		f, err := parser.Parse(input)
		if err != nil {
			return err
		}
		if bindings != "" {
			subst, err := parseBindings(bindings, f)
			if err != nil {
				return err
			}
			f, err = term.Substitute(f, subst)
			if err != nil {
				return err
			}
		}
		graph = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	in, cleanup, err := buildInterpretation(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Install the interpretation for the whole forcing pass, so nested
	// construction calls made by rule bodies are governed by it as well.
	var result term.Funsor
	err = interp.With(in, func() error {
		forced, err := interp.Reinterpret(graph, in)
		if err != nil {
			return err
		}
		f, ok := forced.(term.Funsor)
		if !ok {
			return fmt.Errorf("interpretation returned %T, not a funsor", forced)
		}
		result = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func buildInterpretation(cfg *config.Config) (interp.Interpretation, func(), error) {
	nop := func() {}
	switch cfg.Interpretation {
	case config.ModeEager:
		return interp.Eager, nop, nil
	case config.ModeLazy:
		return interp.Lazy, nop, nil
	case config.ModeMemoize:
		opts := []memoize.Option{}
		if cfg.Cache.Path != "" {
			store, err := memoize.OpenStore(cfg.Cache.Path)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, memoize.WithStore(store))
			return memoize.New(interp.Eager, opts...), func() { store.Close() }, nil
		}
		return memoize.New(interp.Eager), nop, nil
	case config.ModeMonteCarlo:
		opts := []montecarlo.Option{montecarlo.WithSamples(cfg.MonteCarlo.Samples)}
		if cfg.MonteCarlo.Seed != nil {
			opts = append(opts, montecarlo.WithSeed(*cfg.MonteCarlo.Seed))
		}
		return montecarlo.New(interp.Eager, opts...), nop, nil
	default:
		return nil, nil, fmt.Errorf("unknown interpretation %q", cfg.Interpretation)
	}
}

// parseBindings parses "x=1,y=2.5" into a substitution, typing each value
// by the bound variable's domain.
func parseBindings(s string, f term.Funsor) (term.Subst, error) {
	var subst term.Subst
	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("bad binding %q, want name=value", part)
		}
		name = strings.TrimSpace(name)
		data, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("bad binding value %q: %w", value, err)
		}
		d, ok := f.Inputs().Domain(name)
		if !ok {
			// Ignore bindings for variables the expression never uses,
			// matching substitution semantics.
			continue
		}
		num, err := term.NewNumberIn(data, d)
		if err != nil {
			return nil, err
		}
		subst = append(subst, term.SubsPair{Name: name, Value: num})
	}
	return subst, nil
}

func useColor(stdout io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
