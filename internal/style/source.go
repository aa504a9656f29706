package style

import (
	"sort"
	"sync"
)

// Factory constructs a style. Factories are called once per discovery.
type Factory func() (Style, error)

// Source is a named group of style factories, usually one package.
type Source struct {
	Name      string
	Factories []Factory
}

var table = struct {
	mu      sync.Mutex
	sources map[string][]Factory
}{sources: make(map[string][]Factory)}

// Register adds factories to the named source of the process-wide
// registration table. Style packages call it from init.
func Register(source string, factories ...Factory) {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.sources[source] = append(table.sources[source], factories...)
}

// Sources returns the registration table ordered by source name.
func Sources() []Source {
	table.mu.Lock()
	defer table.mu.Unlock()

	names := make([]string, 0, len(table.sources))
	for name := range table.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		factories := make([]Factory, len(table.sources[name]))
		copy(factories, table.sources[name])
		sources = append(sources, Source{Name: name, Factories: factories})
	}
	return sources
}

// Of adapts a constructor that cannot fail into a Factory.
func Of[S Style](ctor func() S) Factory {
	return func() (Style, error) {
		return ctor(), nil
	}
}
