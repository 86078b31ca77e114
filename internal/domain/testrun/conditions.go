package testrun

import "strings"

// Conditions restrict which machines a case may run on, expressed as sets
// of distribution labels. Matching is case-insensitive.
type Conditions struct {
	DistBlacklist []string
	DistWhitelist []string
}

// Empty reports whether no conditions are declared.
func (c Conditions) Empty() bool {
	return len(c.DistBlacklist) == 0 && len(c.DistWhitelist) == 0
}

// Skip evaluates the predicate against the machine's labels. It returns a
// human-readable reason and true when the case must not run here.
//
// The blacklist has priority: a label present in both lists still skips.
// A non-empty whitelist with no intersection also skips.
func (c Conditions) Skip(labels []string) (string, bool) {
	have := make(map[string]bool, len(labels))
	for _, l := range labels {
		have[strings.ToLower(l)] = true
	}

	if hits := intersect(have, c.DistBlacklist); len(hits) > 0 {
		return "by distribution blacklist:" + strings.Join(hits, ","), true
	}

	if len(c.DistWhitelist) > 0 {
		if hits := intersect(have, c.DistWhitelist); len(hits) == 0 {
			lowered := make([]string, len(c.DistWhitelist))
			for i, l := range c.DistWhitelist {
				lowered[i] = strings.ToLower(l)
			}
			return "not in distribution whitelist:" + strings.Join(lowered, ","), true
		}
	}

	return "", false
}

func intersect(have map[string]bool, want []string) []string {
	var hits []string
	for _, l := range want {
		if lowered := strings.ToLower(l); have[lowered] {
			hits = append(hits, lowered)
		}
	}
	return hits
}
