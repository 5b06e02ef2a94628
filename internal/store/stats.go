package store

import (
	"context"
	"math"
	"sort"

	"codetree/internal/knowledge"
)

// DependencyStats aggregates the forward-edge shape of the tree.
type DependencyStats struct {
	TotalDependencies int     `json:"total_dependencies"`
	AvgPerElement     float64 `json:"avg_dependencies_per_element"`
	MaxDependencies   int     `json:"max_dependencies"`
	NoDependencies    int     `json:"elements_with_no_dependencies"`
	NoDependents      int     `json:"elements_with_no_dependents"`
}

// TreeStats is the whole-tree report produced by Stats.
type TreeStats struct {
	TotalElements int             `json:"total_elements"`
	CountsByType  map[string]int  `json:"counts_by_type"`
	TotalEdges    int             `json:"total_edges"`
	MissingEdges  int             `json:"missing_edge_count"`
	Orphans       int             `json:"orphan_count"`
	SelfLoops     int             `json:"cyclic_self_loops"`
	Dependency    DependencyStats `json:"dependency_stats"`
	MissingList   []string        `json:"missing_dependency_list"`
	HealthScore   float64         `json:"health_score"`
}

// Stats computes the full tree report in one scan. An empty tree reports all
// zeros and a health score of 100.
func (s *Store) Stats(ctx context.Context) *TreeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &TreeStats{
		TotalElements: len(s.elements),
		CountsByType:  make(map[string]int, 4),
		MissingList:   []string{},
	}
	for _, t := range knowledge.Types() {
		stats.CountsByType[string(t)] = 0
	}

	missingSet := make(map[string]struct{})
	for _, elem := range s.elements {
		stats.CountsByType[string(elem.Type)]++
		stats.TotalEdges += len(elem.Dependencies)

		if len(elem.Dependencies) > stats.Dependency.MaxDependencies {
			stats.Dependency.MaxDependencies = len(elem.Dependencies)
		}
		if len(elem.Dependencies) == 0 {
			stats.Dependency.NoDependencies++
		}
		if len(elem.Dependents) == 0 {
			stats.Dependency.NoDependents++
		}
		if len(elem.Dependencies) == 0 && len(elem.Dependents) == 0 {
			stats.Orphans++
		}

		for _, dep := range elem.Dependencies {
			if dep == elem.ID {
				stats.SelfLoops++
			}
			if _, ok := s.elements[dep]; !ok {
				stats.MissingEdges++
				missingSet[dep] = struct{}{}
			}
		}
	}

	for dep := range missingSet {
		stats.MissingList = append(stats.MissingList, dep)
	}
	sort.Strings(stats.MissingList)

	stats.Dependency.TotalDependencies = stats.TotalEdges
	if stats.TotalElements > 0 {
		stats.Dependency.AvgPerElement = round2(float64(stats.TotalEdges) / float64(stats.TotalElements))
	}

	stats.HealthScore = healthScore(stats.TotalElements, stats.Orphans, len(stats.MissingList), stats.TotalEdges)
	return stats
}

// healthScore grades the tree from 0 to 100: orphans cost up to 20 points,
// distinct missing dependencies up to 30.
func healthScore(total, orphans, distinctMissing, totalEdges int) float64 {
	if total == 0 {
		return 100
	}
	edgeBase := totalEdges
	if edgeBase < 1 {
		edgeBase = 1
	}
	score := 100 -
		float64(orphans)/float64(total)*20 -
		float64(distinctMissing)/float64(edgeBase)*30
	if score < 0 {
		score = 0
	}
	return round1(score)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
