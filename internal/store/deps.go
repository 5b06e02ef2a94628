package store

import (
	"context"
	"fmt"

	"codetree/internal/knowledge"
)

// DepOp selects how EditDependencies combines the given list with the
// element's current forward edges.
type DepOp string

const (
	DepReplace DepOp = "replace"
	DepAdd     DepOp = "add"
	DepRemove  DepOp = "remove"
)

// DependencyAnalysis splits a dependency list into ids with and without
// records.
type DependencyAnalysis struct {
	Total        int      `json:"total"`
	Existing     []string `json:"existing"`
	Missing      []string `json:"missing"`
	MissingCount int      `json:"missing_count"`
}

// EdgeReport describes the outcome of a single-edge mutation.
type EdgeReport struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Changed         bool   `json:"changed"`
	TargetMissing   bool   `json:"target_missing"`
	DependencyCount int    `json:"dependency_count"`
}

// DependencyChange describes a bulk dependency edit.
type DependencyChange struct {
	Operation DepOp    `json:"operation"`
	Before    []string `json:"before"`
	After     []string `json:"after"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Missing   []string `json:"missing"`
}

// AddDependency appends a forward edge from -> to. Adding an edge that is
// already present is a no-op; the target may be missing, in which case only
// the forward edge is recorded.
func (s *Store) AddDependency(ctx context.Context, from, to string) (*EdgeReport, error) {
	if from == "" || to == "" {
		return nil, knowledge.EmptyID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[from]
	if !ok {
		return nil, knowledge.NotFound(from)
	}
	_, targetExists := s.elements[to]

	report := &EdgeReport{From: from, To: to, TargetMissing: !targetExists}
	if cur.DependsOn(to) {
		report.DependencyCount = len(cur.Dependencies)
		return report, nil
	}

	next := cur.Clone()
	next.Dependencies = append(next.Dependencies, to)
	next.UpdatedAt = now()

	touched := make(map[string]*knowledge.Element)
	if to == from {
		next.Dependents = insertSorted(next.Dependents, from)
	} else if targetExists {
		clone := s.elements[to].Clone()
		clone.Dependents = insertSorted(clone.Dependents, from)
		touched[to] = clone
	}

	if err := s.applyMutation(from, next, touched, s.nextMeta(len(s.elements))); err != nil {
		return nil, err
	}

	report.Changed = true
	report.DependencyCount = len(next.Dependencies)
	return report, nil
}

// RemoveDependency drops the forward edge from -> to and the matching
// reverse edge. Removing an absent edge is a no-op.
func (s *Store) RemoveDependency(ctx context.Context, from, to string) (*EdgeReport, error) {
	if from == "" || to == "" {
		return nil, knowledge.EmptyID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[from]
	if !ok {
		return nil, knowledge.NotFound(from)
	}
	_, targetExists := s.elements[to]

	report := &EdgeReport{From: from, To: to, TargetMissing: !targetExists}
	if !cur.DependsOn(to) {
		report.DependencyCount = len(cur.Dependencies)
		return report, nil
	}

	next := cur.Clone()
	next.Dependencies = removeString(next.Dependencies, to)
	next.UpdatedAt = now()

	touched := make(map[string]*knowledge.Element)
	if to == from {
		next.Dependents = removeString(next.Dependents, from)
	} else if targetExists {
		clone := s.elements[to].Clone()
		clone.Dependents = removeString(clone.Dependents, from)
		touched[to] = clone
	}

	if err := s.applyMutation(from, next, touched, s.nextMeta(len(s.elements))); err != nil {
		return nil, err
	}

	report.Changed = true
	report.DependencyCount = len(next.Dependencies)
	return report, nil
}

// EditDependencies rewrites an element's dependency list in one commit.
// replace swaps the whole list, add appends edges not yet present, remove
// drops the named edges. An edit that changes nothing is a no-op.
func (s *Store) EditDependencies(ctx context.Context, id string, deps []string, op DepOp) (*knowledge.Element, *DependencyChange, error) {
	if id == "" {
		return nil, nil, knowledge.EmptyID()
	}
	normalized := knowledge.NormalizeDeps(deps)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.elements[id]
	if !ok {
		return nil, nil, knowledge.NotFound(id)
	}

	var newDeps []string
	switch op {
	case DepReplace:
		newDeps = normalized
	case DepAdd:
		newDeps = append([]string{}, cur.Dependencies...)
		for _, dep := range normalized {
			if !contains(newDeps, dep) {
				newDeps = append(newDeps, dep)
			}
		}
	case DepRemove:
		newDeps = make([]string, 0, len(cur.Dependencies))
		for _, dep := range cur.Dependencies {
			if !contains(normalized, dep) {
				newDeps = append(newDeps, dep)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown dependency operation %q", op)
	}

	change := &DependencyChange{
		Operation: op,
		Before:    append([]string{}, cur.Dependencies...),
		After:     append([]string{}, newDeps...),
		Added:     diff(newDeps, cur.Dependencies),
		Removed:   diff(cur.Dependencies, newDeps),
	}

	// Edge-set equality is not enough: a replace may reorder the list, and
	// order is part of the record.
	if equalStrings(newDeps, cur.Dependencies) {
		change.Missing = s.analyzeLocked(newDeps).Missing
		return cur.Clone(), change, nil
	}

	next := cur.Clone()
	touched := make(map[string]*knowledge.Element)
	s.reconcileLocked(next, newDeps, touched)
	next.UpdatedAt = now()

	if err := s.applyMutation(id, next, touched, s.nextMeta(len(s.elements))); err != nil {
		return nil, nil, err
	}

	change.Missing = s.analyzeLocked(newDeps).Missing
	return next.Clone(), change, nil
}

// reconcileLocked swaps elem's dependency list for newDeps and adjusts the
// reverse edges of every target that was added or removed. Touched neighbors
// are cloned into touched for the commit; self-loops adjust elem directly.
func (s *Store) reconcileLocked(elem *knowledge.Element, newDeps []string, touched map[string]*knowledge.Element) {
	oldSet := make(map[string]struct{}, len(elem.Dependencies))
	for _, dep := range elem.Dependencies {
		oldSet[dep] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newDeps))
	for _, dep := range newDeps {
		newSet[dep] = struct{}{}
	}

	for _, dep := range elem.Dependencies {
		if _, keep := newSet[dep]; keep {
			continue
		}
		if dep == elem.ID {
			elem.Dependents = removeString(elem.Dependents, elem.ID)
			continue
		}
		if clone := s.touchLocked(dep, touched); clone != nil {
			clone.Dependents = removeString(clone.Dependents, elem.ID)
		}
	}

	for _, dep := range newDeps {
		if _, had := oldSet[dep]; had {
			continue
		}
		if dep == elem.ID {
			elem.Dependents = insertSorted(elem.Dependents, elem.ID)
			continue
		}
		if clone := s.touchLocked(dep, touched); clone != nil {
			clone.Dependents = insertSorted(clone.Dependents, elem.ID)
		}
	}

	elem.Dependencies = newDeps
}

// touchLocked returns the writable clone for id, creating it on first touch.
// Returns nil when id has no record.
func (s *Store) touchLocked(id string, touched map[string]*knowledge.Element) *knowledge.Element {
	if clone, ok := touched[id]; ok {
		return clone
	}
	target, ok := s.elements[id]
	if !ok {
		return nil
	}
	clone := target.Clone()
	touched[id] = clone
	return clone
}

// analyzeLocked splits deps by whether a record exists. Callers hold at
// least the read lock.
func (s *Store) analyzeLocked(deps []string) *DependencyAnalysis {
	a := &DependencyAnalysis{Total: len(deps), Existing: []string{}, Missing: []string{}}
	for _, dep := range deps {
		if _, ok := s.elements[dep]; ok {
			a.Existing = append(a.Existing, dep)
		} else {
			a.Missing = append(a.Missing, dep)
		}
	}
	a.MissingCount = len(a.Missing)
	return a
}

// equalStrings reports whether a and b hold the same ids in the same order.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diff returns the entries of a not present in b, in a's order.
func diff(a, b []string) []string {
	out := []string{}
	for _, x := range a {
		if !contains(b, x) {
			out = append(out, x)
		}
	}
	return out
}
