package catalog

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides whether a file name belongs in the catalog.
type Matcher interface {
	Match(name string) bool
}

// GlobMatcher matches base names against a set of glob patterns,
// ignoring case.
type GlobMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewGlobMatcher compiles patterns such as "*.{jpg,png}".
func NewGlobMatcher(patterns ...string) (*GlobMatcher, error) {
	m := &GlobMatcher{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether name matches any pattern.
func (m *GlobMatcher) Match(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range m.globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (m *GlobMatcher) Patterns() []string {
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// MatchFunc adapts a plain function to Matcher.
type MatchFunc func(name string) bool

func (f MatchFunc) Match(name string) bool { return f(name) }
