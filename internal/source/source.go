// Package source declares the registered news providers and the registry the
// fetcher walks to build its task list.
package source

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownCategory is returned by FeedURL for a category the provider does
// not declare. It is a configuration error: fatal, raised before any I/O.
var ErrUnknownCategory = errors.New("unknown category")

// Source is one feed provider. Implementations are immutable after
// construction and safe for concurrent use.
type Source interface {
	// Name identifies the provider, e.g. "google".
	Name() string

	// Categories returns the provider's category identifiers in a stable order.
	Categories() []string

	// FeedURL returns the feed URL for a category, or ErrUnknownCategory.
	FeedURL(category string) (string, error)

	// Aggregator reports whether this provider's feed descriptions are lists
	// of syndicated candidate links rather than article text. Entries from
	// aggregator feeds need content extraction; full-text feeds do not.
	Aggregator() bool
}

// Registry is an explicit, statically constructed table of providers. It is
// populated once at startup and read-only afterwards, so concurrent lookups
// need no locking.
type Registry struct {
	sources []Source
	byName  map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Source)}
}

// Register adds a provider. Registering the same name twice is a programming
// error and panics, matching the compile-time-table intent.
func (r *Registry) Register(s Source) {
	if _, dup := r.byName[s.Name()]; dup {
		panic(fmt.Sprintf("source: duplicate provider %q", s.Name()))
	}
	r.sources = append(r.sources, s)
	r.byName[s.Name()] = s
}

// Sources returns all registered providers in registration order.
func (r *Registry) Sources() []Source {
	return slices.Clone(r.sources)
}

// Lookup returns the provider with the given name.
func (r *Registry) Lookup(name string) (Source, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// DefaultRegistry builds the compiled-in provider table. Adding a provider
// means adding a constructor here and, if its articles need extraction, the
// matching extractors in the extract package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoogleNews())
	r.Register(NewYahooNews())
	return r
}

// staticSource is a provider backed by a fixed category -> URL table.
type staticSource struct {
	name       string
	categories []string
	feeds      map[string]string
	aggregator bool
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Categories() []string { return slices.Clone(s.categories) }

func (s *staticSource) FeedURL(category string) (string, error) {
	u, ok := s.feeds[category]
	if !ok {
		return "", fmt.Errorf("%s: %w %q", s.name, ErrUnknownCategory, category)
	}
	return u, nil
}

func (s *staticSource) Aggregator() bool { return s.aggregator }
