package store

import (
	"context"
	"errors"
	"sort"

	"codetree/internal/knowledge"

	"github.com/sirupsen/logrus"
)

// ErrNoFields is returned by Update when the request names an element but no
// field to change.
var ErrNoFields = errors.New("no fields to update")

// CreateRequest carries the caller-supplied parts of a new element.
type CreateRequest struct {
	ID           string
	Type         knowledge.ElementType
	Code         string
	Description  string
	Dependencies []string
	SourceFile   string
	LineRange    string
}

// UpdateRequest is a partial update: nil fields keep their current value. An
// empty non-nil Dependencies slice clears the forward edges.
type UpdateRequest struct {
	ID           string
	Code         *string
	Description  *string
	Dependencies *[]string
	SourceFile   *string
	LineRange    *string
}

func (r UpdateRequest) empty() bool {
	return r.Code == nil && r.Description == nil && r.Dependencies == nil &&
		r.SourceFile == nil && r.LineRange == nil
}

// RemovalReport names everything a Delete touched: the ids whose dependency
// lists were stripped, the deleted element's own forward edges, and the ids
// whose dependents lists were updated.
type RemovalReport struct {
	Element             *knowledge.Element `json:"element"`
	RemovedFrom         []string           `json:"removed_from"`
	DependenciesRemoved []string           `json:"dependencies_removed"`
	DependentsUpdated   []string           `json:"dependents_updated"`
}

// Create adds a new element. Reverse edges are backfilled from any existing
// forward edges that already name the new id, and the new element registers
// itself as a dependent of every dependency that exists.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*knowledge.Element, *DependencyAnalysis, error) {
	if err := knowledge.ValidateID(req.ID); err != nil {
		return nil, nil, err
	}
	if !req.Type.Valid() {
		return nil, nil, knowledge.InvalidType(string(req.Type))
	}
	deps := knowledge.NormalizeDeps(req.Dependencies)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elements[req.ID]; ok {
		return nil, nil, knowledge.DuplicateID(req.ID)
	}

	ts := now()
	elem := &knowledge.Element{
		ID:           req.ID,
		Type:         req.Type,
		Code:         req.Code,
		Description:  req.Description,
		Dependencies: deps,
		Dependents:   []string{},
		SourceFile:   req.SourceFile,
		LineRange:    req.LineRange,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	// Elements created earlier may already point at this id; their forward
	// edges become this element's dependents now.
	for _, other := range s.elements {
		if other.DependsOn(req.ID) {
			elem.Dependents = insertSorted(elem.Dependents, other.ID)
		}
	}
	if elem.DependsOn(req.ID) {
		elem.Dependents = insertSorted(elem.Dependents, req.ID)
	}

	touched := make(map[string]*knowledge.Element)
	for _, dep := range deps {
		if dep == req.ID {
			continue
		}
		if target, ok := s.elements[dep]; ok {
			clone := target.Clone()
			clone.Dependents = insertSorted(clone.Dependents, req.ID)
			touched[dep] = clone
		}
	}

	if err := s.applyMutation(req.ID, elem, touched, s.nextMeta(len(s.elements)+1)); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{"id": req.ID, "type": string(req.Type), "dependencies": len(deps)}).Debug("Created element")
	return elem.Clone(), s.analyzeLocked(deps), nil
}

// Get returns a copy of the element with the given id.
func (s *Store) Get(ctx context.Context, id string) (*knowledge.Element, error) {
	if id == "" {
		return nil, knowledge.EmptyID()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.elements[id]
	if !ok {
		return nil, knowledge.NotFound(id)
	}
	return elem.Clone(), nil
}

// Update applies a partial update. Replacing the dependency list reconciles
// the reverse edges of everything added or removed; the returned analysis is
// non-nil only in that case.
func (s *Store) Update(ctx context.Context, req UpdateRequest) (*knowledge.Element, *DependencyAnalysis, error) {
	if req.ID == "" {
		return nil, nil, knowledge.EmptyID()
	}
	if req.empty() {
		return nil, nil, ErrNoFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[req.ID]
	if !ok {
		return nil, nil, knowledge.NotFound(req.ID)
	}

	next := cur.Clone()
	if req.Code != nil {
		next.Code = *req.Code
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.SourceFile != nil {
		next.SourceFile = *req.SourceFile
	}
	if req.LineRange != nil {
		next.LineRange = *req.LineRange
	}

	touched := make(map[string]*knowledge.Element)
	var analysis *DependencyAnalysis
	if req.Dependencies != nil {
		newDeps := knowledge.NormalizeDeps(*req.Dependencies)
		s.reconcileLocked(next, newDeps, touched)
		analysis = s.analyzeLocked(newDeps)
	}
	next.UpdatedAt = now()

	if err := s.applyMutation(req.ID, next, touched, s.nextMeta(len(s.elements))); err != nil {
		return nil, nil, err
	}

	s.logger.WithField("id", req.ID).Debug("Updated element")
	return next.Clone(), analysis, nil
}

// Delete removes an element and strips its id from the dependencies and
// dependents of every other element, in one commit.
func (s *Store) Delete(ctx context.Context, id string) (*RemovalReport, error) {
	if id == "" {
		return nil, knowledge.EmptyID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[id]
	if !ok {
		return nil, knowledge.NotFound(id)
	}

	report := &RemovalReport{
		Element:             cur.Clone(),
		RemovedFrom:         []string{},
		DependenciesRemoved: append([]string{}, cur.Dependencies...),
		DependentsUpdated:   []string{},
	}

	touched := make(map[string]*knowledge.Element)
	for otherID, other := range s.elements {
		if otherID == id {
			continue
		}
		inDeps := other.DependsOn(id)
		inDependents := contains(other.Dependents, id)
		if !inDeps && !inDependents {
			continue
		}
		clone := other.Clone()
		if inDeps {
			clone.Dependencies = removeString(clone.Dependencies, id)
			report.RemovedFrom = append(report.RemovedFrom, otherID)
		}
		if inDependents {
			clone.Dependents = removeString(clone.Dependents, id)
			report.DependentsUpdated = append(report.DependentsUpdated, otherID)
		}
		touched[otherID] = clone
	}
	sort.Strings(report.RemovedFrom)
	sort.Strings(report.DependentsUpdated)

	if err := s.applyMutation(id, nil, touched, s.nextMeta(len(s.elements)-1)); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"id": id, "referencing": len(report.RemovedFrom)}).Debug("Removed element")
	return report, nil
}

// List returns a copy of every element, ordered by id.
func (s *Store) List(ctx context.Context) []*knowledge.Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*knowledge.Element, 0, len(s.elements))
	for _, elem := range s.elements {
		out = append(out, elem.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
