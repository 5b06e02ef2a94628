package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"codetree/internal/knowledge"
	"codetree/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analysisText = `Analysis notes for module r2020.

function hr(a, b) {
  // DEPENDENCIES: r(2021), ge()
  return ge(a) + b;
}

function ge(x) {
  return x * 2;
}
`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "knowledge-tree"), logger)
	require.NoError(t, err)
	return s
}

func writeAnalysisFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportAnalysisFile(t *testing.T) {
	st := newTestStore(t)
	path := writeAnalysisFile(t, analysisText)

	report, err := importAnalysisFile(context.Background(), st, path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"hr", "ge"}, report.Imported)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, report.Info.FunctionsFound)
	assert.Contains(t, report.Info.PotentialDependencies, "ge")
	assert.Equal(t, []string{"r2021"}, report.Info.ModulesReferenced)

	elem, err := st.Get(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, knowledge.TypeFunction, elem.Type)
	assert.Equal(t, path, elem.SourceFile)
	assert.Contains(t, elem.Code, "return ge(a) + b;")
}

func TestImportAnalysisFileSkipsExisting(t *testing.T) {
	st := newTestStore(t)
	path := writeAnalysisFile(t, analysisText)

	_, _, err := st.Create(context.Background(), store.CreateRequest{
		ID:   "hr",
		Type: knowledge.TypeFunction,
		Code: "original",
	})
	require.NoError(t, err)

	report, err := importAnalysisFile(context.Background(), st, path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"ge"}, report.Imported)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0], "hr")

	// The existing record keeps its code.
	elem, err := st.Get(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, "original", elem.Code)
}

func TestImportAnalysisFileAutoExtractOff(t *testing.T) {
	st := newTestStore(t)
	path := writeAnalysisFile(t, analysisText)

	report, err := importAnalysisFile(context.Background(), st, path, false)
	require.NoError(t, err)

	assert.Empty(t, report.Info.PotentialDependencies)
	assert.Empty(t, report.Info.ModulesReferenced)
	assert.Equal(t, []string{"hr", "ge"}, report.Imported)
}

func TestImportAnalysisFileMissingFile(t *testing.T) {
	st := newTestStore(t)

	_, err := importAnalysisFile(context.Background(), st, filepath.Join(t.TempDir(), "absent.txt"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
