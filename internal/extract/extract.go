// Package extract pulls full article text out of publisher pages and
// enriches aggregator feed entries whose descriptions are only link lists.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindHTTP        Kind = "http"
	KindNetwork     Kind = "network"
	KindNoStructure Kind = "no-structure"
)

// ExtractError is a per-article failure. It never propagates past the
// enrichment boundary: the enricher degrades to the next candidate or leaves
// the raw description in place.
type ExtractError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Extractor pulls article text from a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Registry maps recognized publisher domains to their extractors, plus a
// default that accepts any domain. It is populated once at startup and
// read-only afterwards, so concurrent lookup needs no locking.
type Registry struct {
	domains  []string // registration order, used for Resolve
	byDomain map[string]Extractor
	fallback Extractor
}

func NewRegistry(fallback Extractor) *Registry {
	return &Registry{
		byDomain: make(map[string]Extractor),
		fallback: fallback,
	}
}

// Register binds a domain to an extractor. The registered domain is a base
// domain like "udn.com"; Resolve matches it as a substring of full hostnames.
func (r *Registry) Register(domain string, ex Extractor) {
	if _, dup := r.byDomain[domain]; dup {
		panic(fmt.Sprintf("extract: duplicate domain %q", domain))
	}
	r.domains = append(r.domains, domain)
	r.byDomain[domain] = ex
}

// Resolve returns the extractor for a candidate domain. The registered
// domain is generally shorter than the article hostname ("udn.com" vs
// "video.udn.com"), so matching is by substring.
func (r *Registry) Resolve(candidateDomain string) (Extractor, bool) {
	for _, d := range r.domains {
		if strings.Contains(candidateDomain, d) {
			return r.byDomain[d], true
		}
	}
	return nil, false
}

// Default returns the fallback extractor, which accepts any domain.
func (r *Registry) Default() Extractor {
	return r.fallback
}

// Domains returns the registered domains in registration order.
func (r *Registry) Domains() []string {
	return append([]string(nil), r.domains...)
}

// domainOf extracts the hostname from an article link, without the leading
// "www.". An unparseable link yields "".
func domainOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
