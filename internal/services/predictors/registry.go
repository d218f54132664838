package predictors

import (
	"errors"
	"fmt"
	"slices"

	domsvc "NextClose/internal/domain/service"
)

// Entry names a predictor.
type Entry struct {
	Name      string
	Predictor domsvc.Predictor
}

// Registry is an immutable, ordered set of named predictors.
type Registry struct {
	names  []string
	byName map[string]domsvc.Predictor
}

func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byName: make(map[string]domsvc.Predictor, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.New("registry: empty predictor name")
		}
		if e.Predictor == nil {
			return nil, fmt.Errorf("registry: nil predictor %q", e.Name)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate predictor %q", e.Name)
		}
		r.names = append(r.names, e.Name)
		r.byName[e.Name] = e.Predictor
	}
	return r, nil
}

// Names returns predictor names in registration order.
func (r *Registry) Names() []string { return slices.Clone(r.names) }

func (r *Registry) Get(name string) (domsvc.Predictor, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func (r *Registry) Len() int { return len(r.names) }
