// Package loader resolves test selectors into suites of parsed cases.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// Env is the loader's view of process settings.
type Env struct {
	// CasesDir is the root of the case tree.
	CasesDir string
	// Suites maps alias names to lists of selectors.
	Suites map[string][]string
}

// Loader turns selector strings into suites. Selectors may be suite
// aliases, case-file paths, directories, component names, inverted
// components ("!name"), or intersections ("a&&b").
type Loader struct {
	env        Env
	patterns   []pattern
	components map[string]bool
}

// New builds a Loader over the given environment.
func New(env Env) *Loader {
	l := &Loader{env: env}
	l.patterns = []pattern{
		aliasPattern{},
		filePattern{},
		dirPattern{},
		intersectionPattern{loader: l},
		componentPattern{loader: l},
		inversePattern{loader: l},
	}
	return l
}

// LoadArgs loads every selector and merges the results. With no selectors
// the whole cases directory is loaded.
func (l *Loader) LoadArgs(args []string) (*testrun.Suite, error) {
	if len(args) == 0 {
		return l.Load(l.env.CasesDir)
	}

	suite := testrun.NewSuite()
	for _, arg := range args {
		s, err := l.Load(arg)
		if err != nil {
			return nil, err
		}
		suite.Merge(s)
	}
	return suite, nil
}

// Load resolves a single selector. Patterns are tried in registration
// order; the first that recognizes the selector wins, and may yield
// cases, further selectors, or both.
func (l *Loader) Load(sel string) (*testrun.Suite, error) {
	suite := testrun.NewSuite()
	stack := []string{sel}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		resolved := false
		for _, p := range l.patterns {
			res, err := p.load(cur, l.env)
			if err != nil {
				return nil, err
			}
			if !res.matched {
				continue
			}
			for _, c := range res.cases {
				suite.Add(c)
			}
			// Push in reverse so expansion keeps the original order.
			for i := len(res.selectors) - 1; i >= 0; i-- {
				stack = append(stack, res.selectors[i])
			}
			resolved = true
			break
		}
		if !resolved {
			return nil, fmt.Errorf("no test matches selector %q", cur)
		}
	}
	return suite, nil
}

// knownComponents lists the first-level directories of the cases root.
func (l *Loader) knownComponents() map[string]bool {
	if l.components != nil {
		return l.components
	}
	l.components = make(map[string]bool)
	entries, err := os.ReadDir(l.env.CasesDir)
	if err != nil {
		return l.components
	}
	for _, e := range entries {
		if e.IsDir() {
			l.components[e.Name()] = true
		}
	}
	return l.components
}

// ParseFile parses one case file from disk.
func ParseFile(path string, env Env) (*testrun.Case, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}
	return ParseCase(abs, string(data), env.CasesDir)
}
