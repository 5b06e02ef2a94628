package server

import (
	"encoding/json"
	"testing"

	"codetree/internal/knowledge"
	"codetree/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestErrorResultDomainKind(t *testing.T) {
	res := errorResult(knowledge.NotFound("hr"))
	assert.True(t, res.IsError)

	var payload toolError
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "not_found", payload.Kind)
	assert.Contains(t, payload.Message, "hr")
}

func TestErrorResultWrappedDomainError(t *testing.T) {
	wrapped := knowledge.IOFailuref(assert.AnError, "failed to persist %s", "hr.json")
	res := errorResult(wrapped)

	var payload toolError
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "io_failure", payload.Kind)
}

func TestErrorResultNoFields(t *testing.T) {
	res := errorResult(store.ErrNoFields)

	var payload toolError
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "invalid_argument", payload.Kind)
}

func TestErrorResultUnknownError(t *testing.T) {
	res := errorResult(assert.AnError)

	var payload toolError
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "io_failure", payload.Kind)
}

func TestJSONResult(t *testing.T) {
	res := jsonResult(map[string]int{"total": 3})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"total": 3}`, resultText(t, res))
}

func TestBuildSchemaMapCoversEveryTool(t *testing.T) {
	schemas := buildSchemaMap()

	for _, name := range []string{
		"add_code_element",
		"update_code_element",
		"add_dependency",
		"edit_dependencies",
		"get_element",
		"find_missing_dependencies",
		"get_tree_view",
		"list_all_elements",
		"remove_element",
		"import_from_analysis_file",
		"get_knowledge_tree_stats",
		"get_working_directory_info",
	} {
		schemaJSON, ok := schemas[name]
		require.True(t, ok, "no schema for %s", name)
		assert.True(t, json.Valid([]byte(schemaJSON)), "schema for %s is not valid JSON", name)
	}
}

func TestUpdatedFields(t *testing.T) {
	code := "x"
	deps := []string{"a"}
	fields := updatedFields(UpdateCodeElementArgs{Code: &code, Dependencies: &deps})
	assert.Equal(t, []string{"code", "dependencies"}, fields)

	assert.Empty(t, updatedFields(UpdateCodeElementArgs{}))
}
