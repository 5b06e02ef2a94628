package store

import (
	"context"
	"sort"
	"strings"

	"codetree/internal/knowledge"
)

const (
	// DefaultRenderDepth is applied by callers when no depth is given.
	DefaultRenderDepth = 5
	// MaxRenderDepth caps every render to keep output bounded on deep or
	// degenerate graphs.
	MaxRenderDepth = 64
)

// RenderTree draws the dependency tree below rootID using branch characters.
// maxDepth counts levels of descent below the root: 0 renders the root line
// only. Cycles are cut at re-entry and annotated; missing dependencies render
// as leaves.
func (s *Store) RenderTree(ctx context.Context, rootID string, maxDepth int) (string, error) {
	if rootID == "" {
		return "", knowledge.EmptyID()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.elements[rootID]
	if !ok {
		return "", knowledge.NotFound(rootID)
	}

	var sb strings.Builder
	s.renderRootLocked(&sb, root, clampDepth(maxDepth))
	return strings.TrimRight(sb.String(), "\n"), nil
}

// RenderForest draws one tree per top-level element (an element nothing
// depends on), ordered by id. When every element has a dependent, as in a
// fully cyclic graph, all elements are drawn instead. Empty tree renders as
// an empty string.
func (s *Store) RenderForest(ctx context.Context, maxDepth int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]*knowledge.Element, 0, len(s.elements))
	for _, elem := range s.elements {
		if len(elem.Dependents) == 0 {
			roots = append(roots, elem)
		}
	}
	if len(roots) == 0 {
		for _, elem := range s.elements {
			roots = append(roots, elem)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	depth := clampDepth(maxDepth)
	var sb strings.Builder
	for i, root := range roots {
		if i > 0 {
			sb.WriteString("\n")
		}
		s.renderRootLocked(&sb, root, depth)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *Store) renderRootLocked(sb *strings.Builder, root *knowledge.Element, maxDepth int) {
	sb.WriteString(nodeLabel(root))
	sb.WriteString("\n")
	onPath := map[string]bool{root.ID: true}
	s.renderChildrenLocked(sb, root, "", onPath, 1, maxDepth)
}

func (s *Store) renderChildrenLocked(sb *strings.Builder, elem *knowledge.Element, prefix string, onPath map[string]bool, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	deps := elem.Dependencies
	for i, dep := range deps {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(deps)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		child, ok := s.elements[dep]
		switch {
		case !ok:
			sb.WriteString(prefix + connector + dep + " (missing)\n")
		case onPath[dep]:
			sb.WriteString(prefix + connector + nodeLabel(child) + " (cycle)\n")
		default:
			sb.WriteString(prefix + connector + nodeLabel(child) + "\n")
			onPath[dep] = true
			s.renderChildrenLocked(sb, child, childPrefix, onPath, depth+1, maxDepth)
			delete(onPath, dep)
		}
	}
}

// nodeLabel renders "id [type]" with the description appended when present.
func nodeLabel(elem *knowledge.Element) string {
	label := elem.ID + " [" + string(elem.Type) + "]"
	if elem.Description != "" {
		label += " - " + elem.Description
	}
	return label
}

func clampDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > MaxRenderDepth {
		return MaxRenderDepth
	}
	return depth
}
