package tools

import (
	"fmt"
	"sort"
)

// builds a registry; duplicate names panic since registries are wired at startup
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}

	for _, t := range tools {
		name := t.Name()
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("tools: duplicate tool %q", name))
		}

		r.byName[name] = t
		r.names = append(r.names, name)
	}

	sort.Strings(r.names)

	return r
}

// the registry offered to the model on every run
func Default() *Registry {
	return NewRegistry(NewWeather())
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}

	t, ok := r.byName[name]
	return t, ok
}

// returns tools sorted by name
func (r *Registry) List() []Tool {
	if r == nil {
		return nil
	}

	out := make([]Tool, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}

	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.names)
}
