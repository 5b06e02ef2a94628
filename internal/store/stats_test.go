package store

import (
	"context"
	"testing"

	"codetree/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	stats := s.Stats(context.Background())

	assert.Zero(t, stats.TotalElements)
	assert.Zero(t, stats.TotalEdges)
	assert.Zero(t, stats.MissingEdges)
	assert.Zero(t, stats.Orphans)
	assert.Zero(t, stats.SelfLoops)
	assert.Equal(t, float64(100), stats.HealthScore)
	assert.Empty(t, stats.MissingList)

	require.Len(t, stats.CountsByType, 4)
	for _, typ := range knowledge.Types() {
		assert.Zero(t, stats.CountsByType[string(typ)])
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, "a", knowledge.TypeFunction, "b", "x")
	mustCreate(t, s, "b", knowledge.TypeModule, "b")
	mustCreate(t, s, "c", knowledge.TypeConstant)

	stats := s.Stats(ctx)

	assert.Equal(t, 3, stats.TotalElements)
	assert.Equal(t, 1, stats.CountsByType["function"])
	assert.Equal(t, 1, stats.CountsByType["module"])
	assert.Equal(t, 1, stats.CountsByType["constant"])
	assert.Equal(t, 0, stats.CountsByType["variable"])

	assert.Equal(t, 3, stats.TotalEdges)
	assert.Equal(t, 1, stats.MissingEdges)
	assert.Equal(t, []string{"x"}, stats.MissingList)
	assert.Equal(t, 1, stats.Orphans, "only c has neither edges nor dependents")
	assert.Equal(t, 1, stats.SelfLoops)

	assert.Equal(t, 3, stats.Dependency.TotalDependencies)
	assert.Equal(t, 1.0, stats.Dependency.AvgPerElement)
	assert.Equal(t, 2, stats.Dependency.MaxDependencies)
	assert.Equal(t, 1, stats.Dependency.NoDependencies)
	assert.Equal(t, 2, stats.Dependency.NoDependents, "a and c have no dependents")

	// 100 - (1 orphan / 3) * 20 - (1 missing / 3 edges) * 30, to one decimal
	assert.Equal(t, 83.3, stats.HealthScore)
}

func TestStatsHealthFloor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Every element is an island pointing at ghosts: orphan penalty is 0
	// (they all have dependencies), missing penalty dominates.
	mustCreate(t, s, "a", knowledge.TypeFunction, "g1")
	mustCreate(t, s, "b", knowledge.TypeFunction, "g2")

	stats := s.Stats(ctx)
	assert.Equal(t, 2, stats.MissingEdges)
	// 100 - 0 - (2/2)*30 = 70
	assert.Equal(t, 70.0, stats.HealthScore)
}

func TestStatsMissingListDeduplicated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, "a", knowledge.TypeFunction, "ghost")
	mustCreate(t, s, "b", knowledge.TypeFunction, "ghost")

	stats := s.Stats(ctx)
	assert.Equal(t, 2, stats.MissingEdges, "each referencing edge counts")
	assert.Equal(t, []string{"ghost"}, stats.MissingList, "the list is distinct")
}
