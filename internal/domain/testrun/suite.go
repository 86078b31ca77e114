package testrun

// Suite is an ordered collection of cases, deduplicated by case path.
type Suite struct {
	cases []*Case
	seen  map[string]bool
}

// NewSuite builds a suite from the given cases, keeping first occurrences.
func NewSuite(cases ...*Case) *Suite {
	s := &Suite{seen: make(map[string]bool)}
	for _, c := range cases {
		s.Add(c)
	}
	return s
}

// Add appends a case unless one with the same path is already present.
func (s *Suite) Add(c *Case) {
	if c == nil || s.seen[c.Filename] {
		return
	}
	s.seen[c.Filename] = true
	s.cases = append(s.cases, c)
}

// Merge adds every case of other into s.
func (s *Suite) Merge(other *Suite) {
	if other == nil {
		return
	}
	for _, c := range other.cases {
		s.Add(c)
	}
}

// Contains reports whether a case with the given path is in the suite.
func (s *Suite) Contains(filename string) bool {
	return s.seen[filename]
}

// Cases returns the cases in insertion order.
func (s *Suite) Cases() []*Case {
	return s.cases
}

// Len returns the number of distinct cases.
func (s *Suite) Len() int {
	return len(s.cases)
}
