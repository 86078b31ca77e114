package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/huanghao/nose-xcase/internal/domain/testrun"
)

// caseExt is the file extension of test case files.
const caseExt = ".case"

type result struct {
	matched   bool
	cases     []*testrun.Case
	selectors []string
}

type pattern interface {
	load(sel string, env Env) (result, error)
}

// aliasPattern expands a suite alias into its configured selectors.
type aliasPattern struct{}

func (aliasPattern) load(sel string, env Env) (result, error) {
	selectors, ok := env.Suites[sel]
	if !ok {
		return result{}, nil
	}
	return result{matched: true, selectors: selectors}, nil
}

// filePattern parses a selector naming a case file.
type filePattern struct{}

func (filePattern) load(sel string, env Env) (result, error) {
	info, err := os.Stat(sel)
	if err != nil || info.IsDir() {
		return result{}, nil
	}
	c, err := ParseFile(sel, env)
	if err != nil {
		return result{}, err
	}
	return result{matched: true, cases: []*testrun.Case{c}}, nil
}

// dirPattern finds all case files recursively under a directory.
type dirPattern struct{}

func (dirPattern) load(sel string, env Env) (result, error) {
	info, err := os.Stat(sel)
	if err != nil || !info.IsDir() {
		return result{}, nil
	}

	var files []string
	err = filepath.WalkDir(sel, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), caseExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return result{}, err
	}
	return result{matched: true, selectors: files}, nil
}

// componentPattern maps a component name to its directory under the cases
// root.
type componentPattern struct {
	loader *Loader
}

func (p componentPattern) load(sel string, env Env) (result, error) {
	if !p.loader.knownComponents()[sel] {
		return result{}, nil
	}
	return result{matched: true, selectors: []string{filepath.Join(env.CasesDir, sel)}}, nil
}

// inversePattern resolves "!component" to every other component.
type inversePattern struct {
	loader *Loader
}

func (p inversePattern) load(sel string, env Env) (result, error) {
	if !strings.HasPrefix(sel, "!") {
		return result{}, nil
	}
	excluded := sel[1:]
	components := p.loader.knownComponents()
	if !components[excluded] {
		return result{}, nil
	}

	var rest []string
	for name := range components {
		if name != excluded {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return result{matched: true, selectors: rest}, nil
}

// intersectionPattern loads "a&&b" as the set of cases matched by every
// part, preserving the first part's order.
type intersectionPattern struct {
	loader *Loader
}

func (p intersectionPattern) load(sel string, _ Env) (result, error) {
	if i := strings.Index(sel, "&&"); i <= 0 {
		return result{}, nil
	}

	var inter *testrun.Suite
	for _, part := range strings.Split(sel, "&&") {
		s, err := p.loader.Load(part)
		if err != nil {
			return result{}, err
		}
		if inter == nil {
			inter = s
			continue
		}
		filtered := testrun.NewSuite()
		for _, c := range inter.Cases() {
			if s.Contains(c.Filename) {
				filtered.Add(c)
			}
		}
		inter = filtered
	}
	return result{matched: true, cases: inter.Cases()}, nil
}
