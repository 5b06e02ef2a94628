package store

import (
	"context"
	"sort"

	"codetree/internal/knowledge"
)

// MissingRef identifies an element that references a missing dependency.
type MissingRef struct {
	ID          string                `json:"id"`
	Type        knowledge.ElementType `json:"type"`
	Description string                `json:"description,omitempty"`
}

// FindMissing returns the dependencies of id that have no record, in the
// order they appear in the element's dependency list.
func (s *Store) FindMissing(ctx context.Context, id string) ([]string, error) {
	if id == "" {
		return nil, knowledge.EmptyID()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.elements[id]
	if !ok {
		return nil, knowledge.NotFound(id)
	}

	missing := []string{}
	for _, dep := range elem.Dependencies {
		if _, ok := s.elements[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}

// FindAllMissing scans the whole tree and maps each missing dependency id to
// the elements referencing it. The second return is the number of elements
// scanned.
func (s *Store) FindAllMissing(ctx context.Context) (map[string][]MissingRef, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	missing := make(map[string][]MissingRef)
	for _, elem := range s.elements {
		for _, dep := range elem.Dependencies {
			if _, ok := s.elements[dep]; ok {
				continue
			}
			missing[dep] = append(missing[dep], MissingRef{
				ID:          elem.ID,
				Type:        elem.Type,
				Description: elem.Description,
			})
		}
	}

	for dep := range missing {
		refs := missing[dep]
		sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	}
	return missing, len(s.elements)
}
