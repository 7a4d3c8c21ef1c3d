package auth

import (
	"net/http"
	"strings"
)

// Rule guards one registered API route. Path follows ServeMux patterns: a
// trailing slash matches the whole subtree. Read applies to GET and HEAD,
// Write to every other method; an empty Write falls back to Read.
type Rule struct {
	Path  string
	Read  Role
	Write Role
}

func (r Rule) matches(path string) bool {
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

func (r Rule) role(method string) Role {
	if method == http.MethodGet || method == http.MethodHead || r.Write == "" {
		return r.Read
	}
	return r.Write
}

// Policy is the rule table for the API routes. Paths without a rule, such
// as /healthz and /metrics, are public.
type Policy []Rule

// RequiredRole resolves the role the request needs. The longest matching
// rule wins, mirroring ServeMux.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	var (
		best  Rule
		found bool
	)
	for _, rule := range p {
		if rule.matches(r.URL.Path) && (!found || len(rule.Path) > len(best.Path)) {
			best, found = rule, true
		}
	}
	if !found {
		return "", false
	}
	return best.role(r.Method), true
}
