package middleware

import "strings"

// PublicPaths is the allow-list of paths admitted without rate limiting,
// authentication or authorization.
type PublicPaths struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPublicPaths builds an allow-list from exact paths and prefixes
func NewPublicPaths(exact []string, prefixes []string) *PublicPaths {
	p := &PublicPaths{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: prefixes,
	}
	for _, path := range exact {
		p.exact[path] = struct{}{}
	}
	return p
}

// Contains reports whether the path is public
func (p *PublicPaths) Contains(path string) bool {
	if p == nil {
		return false
	}
	if _, ok := p.exact[path]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
