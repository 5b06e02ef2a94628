package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed usage.md
var usageGuidelines string

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "codetree://usage-guidelines",
		Name:        "Usage Guidelines",
		Description: "System prompt and usage guidelines for the codetree MCP server",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      "codetree://usage-guidelines",
					MIMEType: "text/markdown",
					Text:     usageGuidelines,
				},
			},
		}, nil
	})

	// Build a map of tool name -> schema JSON for dynamic dispatch.
	schemaMap := buildSchemaMap()

	// Register a single resource template that matches codetree://schemas/{tool_name}.
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "codetree://schemas/{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		toolName := strings.TrimPrefix(uri, "codetree://schemas/")
		schemaJSON, ok := schemaMap[toolName]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", toolName)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/schema+json",
					Text:     schemaJSON,
				},
			},
		}, nil
	})
}

// buildSchemaMap constructs a map from tool name to its JSON schema string.
// Schemas are derived from the args structs using jsonschema inference.
func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[AddCodeElementArgs](m, "add_code_element")
	addSchema[UpdateCodeElementArgs](m, "update_code_element")
	addSchema[AddDependencyArgs](m, "add_dependency")
	addSchema[EditDependenciesArgs](m, "edit_dependencies")
	addSchema[GetElementArgs](m, "get_element")
	addSchema[FindMissingDependenciesArgs](m, "find_missing_dependencies")
	addSchema[GetTreeViewArgs](m, "get_tree_view")
	addSchema[ListAllElementsArgs](m, "list_all_elements")
	addSchema[RemoveElementArgs](m, "remove_element")
	addSchema[ImportFromAnalysisFileArgs](m, "import_from_analysis_file")
	addSchema[GetKnowledgeTreeStatsArgs](m, "get_knowledge_tree_stats")
	addSchema[GetWorkingDirectoryInfoArgs](m, "get_working_directory_info")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(schemaJSON)
}
