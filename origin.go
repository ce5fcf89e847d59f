package signet

import (
	"slices"
	"strings"
)

// Wildcard in an origin allowlist admits every origin.
const Wildcard = "*"

// OriginPolicy decides whether a request's declared Origin may proceed.
// It is built once at startup and is read-only afterwards.
type OriginPolicy struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewOriginPolicy builds a policy from a list of origins. Entries are trimmed
// and empty entries are ignored. An empty list admits only requests that carry
// no Origin header.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == Wildcard {
			p.allowAll = true
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Allow reports whether origin is admitted. Same-origin and non-browser
// requests (no Origin) are always admitted. Otherwise the match is exact and
// case-sensitive, so "https://a.com" does not admit "https://a.com/" or
// "HTTPS://A.COM".
func (p *OriginPolicy) Allow(origin string) bool {
	if origin == "" || p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p *OriginPolicy) AllowAll() bool {
	return p.allowAll
}

func (p *OriginPolicy) Origins() []string {
	out := make([]string, 0, len(p.origins))
	for o := range p.origins {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}
