package store

import (
	"context"
	"strings"
	"testing"

	"codetree/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDesc(t *testing.T, s *Store, id string, typ knowledge.ElementType, desc string, deps ...string) {
	t.Helper()
	_, _, err := s.Create(context.Background(), CreateRequest{ID: id, Type: typ, Description: desc, Dependencies: deps})
	require.NoError(t, err)
}

func TestRenderTree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "root", knowledge.TypeFunction, "entry point", "child_a", "child_b")
	createDesc(t, s, "child_a", knowledge.TypeModule, "", "leaf")
	createDesc(t, s, "child_b", knowledge.TypeConstant, "limit")

	got, err := s.RenderTree(ctx, "root", 5)
	require.NoError(t, err)

	want := strings.Join([]string{
		"root [function] - entry point",
		"├── child_a [module]",
		"│   └── leaf (missing)",
		"└── child_b [constant] - limit",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderTreeCycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "a", knowledge.TypeFunction, "", "b")
	createDesc(t, s, "b", knowledge.TypeFunction, "", "a")

	got, err := s.RenderTree(ctx, "a", 10)
	require.NoError(t, err)

	want := strings.Join([]string{
		"a [function]",
		"└── b [function]",
		"    └── a [function] (cycle)",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderTreeSelfLoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "a", knowledge.TypeFunction, "", "a")

	got, err := s.RenderTree(ctx, "a", 5)
	require.NoError(t, err)

	want := strings.Join([]string{
		"a [function]",
		"└── a [function] (cycle)",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderTreeDepthLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "a", knowledge.TypeFunction, "", "b")
	createDesc(t, s, "b", knowledge.TypeFunction, "", "c")
	createDesc(t, s, "c", knowledge.TypeFunction, "", "d")
	createDesc(t, s, "d", knowledge.TypeFunction, "")

	got, err := s.RenderTree(ctx, "a", 2)
	require.NoError(t, err)
	want := strings.Join([]string{
		"a [function]",
		"└── b [function]",
		"    └── c [function]",
	}, "\n")
	assert.Equal(t, want, got)

	// Depth zero is the root line alone; negative clamps to zero.
	for _, depth := range []int{0, -3} {
		got, err = s.RenderTree(ctx, "a", depth)
		require.NoError(t, err)
		assert.Equal(t, "a [function]", got)
	}
}

func TestRenderTreeSharedNodeIsNotACycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "a", knowledge.TypeFunction, "", "b", "c")
	createDesc(t, s, "b", knowledge.TypeFunction, "", "d")
	createDesc(t, s, "c", knowledge.TypeFunction, "", "d")
	createDesc(t, s, "d", knowledge.TypeFunction, "")

	got, err := s.RenderTree(ctx, "a", 5)
	require.NoError(t, err)

	want := strings.Join([]string{
		"a [function]",
		"├── b [function]",
		"│   └── d [function]",
		"└── c [function]",
		"    └── d [function]",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderTreeErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.RenderTree(ctx, "", 5)
	requireKind(t, err, knowledge.KindEmptyID)

	_, err = s.RenderTree(ctx, "nope", 5)
	requireKind(t, err, knowledge.KindNotFound)
}

func TestRenderForest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "top1", knowledge.TypeFunction, "", "shared")
	createDesc(t, s, "top2", knowledge.TypeFunction, "")
	createDesc(t, s, "shared", knowledge.TypeFunction, "")

	got := s.RenderForest(ctx, 5)

	want := strings.Join([]string{
		"top1 [function]",
		"└── shared [function]",
		"",
		"top2 [function]",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderForestFullyCyclic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	createDesc(t, s, "a", knowledge.TypeFunction, "", "b")
	createDesc(t, s, "b", knowledge.TypeFunction, "", "a")

	got := s.RenderForest(ctx, 5)

	want := strings.Join([]string{
		"a [function]",
		"└── b [function]",
		"    └── a [function] (cycle)",
		"",
		"b [function]",
		"└── a [function]",
		"    └── b [function] (cycle)",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderForestEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.RenderForest(context.Background(), 5))
}
