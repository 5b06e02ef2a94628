package server

import (
	"context"
	"time"

	"codetree/internal/knowledge"
	"codetree/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Arguments structs

type AddCodeElementArgs struct {
	ElementID    string   `json:"element_id" jsonschema:"required,description:Unique identifier for the element (e.g. function name or rNNNN module id)"`
	ElementType  string   `json:"element_type" jsonschema:"required,description:One of: function, module, constant, variable"`
	Code         string   `json:"code" jsonschema:"description:The code snippet; may be empty for modules"`
	Description  string   `json:"description" jsonschema:"description:What this element does"`
	Dependencies []string `json:"dependencies,omitempty" jsonschema:"description:Ids of elements this element depends on; they do not have to exist yet"`
	SourceFile   string   `json:"source_file,omitempty" jsonschema:"description:File the element came from"`
	LineRange    string   `json:"line_range,omitempty" jsonschema:"description:Line range in the source file, e.g. 120-180"`
}

type UpdateCodeElementArgs struct {
	ElementID    string    `json:"element_id" jsonschema:"required,description:Id of the element to update"`
	Code         *string   `json:"code,omitempty" jsonschema:"description:New code snippet"`
	Description  *string   `json:"description,omitempty" jsonschema:"description:New description"`
	Dependencies *[]string `json:"dependencies,omitempty" jsonschema:"description:Replacement dependency list; reverse edges are reconciled"`
	SourceFile   *string   `json:"source_file,omitempty" jsonschema:"description:New source file"`
	LineRange    *string   `json:"line_range,omitempty" jsonschema:"description:New line range"`
}

type AddDependencyArgs struct {
	FromID string `json:"from_id" jsonschema:"required,description:Id of the element that depends on to_id"`
	ToID   string `json:"to_id" jsonschema:"required,description:Id of the dependency; it does not have to exist yet"`
}

type EditDependenciesArgs struct {
	ElementID    string   `json:"element_id" jsonschema:"required,description:Id of the element whose dependencies to edit"`
	Dependencies []string `json:"dependencies" jsonschema:"required,description:Dependency ids to apply with the chosen operation"`
	Operation    string   `json:"operation,omitempty" jsonschema:"description:One of: replace (default), add, remove"`
}

type GetElementArgs struct {
	ElementID string `json:"element_id" jsonschema:"required,description:Id of the element to fetch"`
}

type FindMissingDependenciesArgs struct {
	ElementID string `json:"element_id,omitempty" jsonschema:"description:Element to check; omit to scan the whole tree"`
}

type GetTreeViewArgs struct {
	RootID   string `json:"root_id,omitempty" jsonschema:"description:Root element id; omit to render every top-level element"`
	MaxDepth *int   `json:"max_depth,omitempty" jsonschema:"description:Levels of descent below the root (default 5); 0 renders only the root line"`
}

type ListAllElementsArgs struct{}

type RemoveElementArgs struct {
	ElementID string `json:"element_id" jsonschema:"required,description:Id of the element to remove"`
}

type ImportFromAnalysisFileArgs struct {
	FilePath    string `json:"file_path" jsonschema:"required,description:Path to the analysis text file to import"`
	AutoExtract *bool  `json:"auto_extract,omitempty" jsonschema:"description:Extract dependency candidates from DEPENDENCIES/CALLS comments (default true)"`
}

type GetKnowledgeTreeStatsArgs struct{}

type GetWorkingDirectoryInfoArgs struct{}

// elementSummary is the compact listing shape.
type elementSummary struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Description     string `json:"description,omitempty"`
	DependencyCount int    `json:"dependency_count"`
	DependentCount  int    `json:"dependent_count"`
	CreatedAt       string `json:"created_at"`
}

func summarize(elem *knowledge.Element) elementSummary {
	return elementSummary{
		ID:              elem.ID,
		Type:            string(elem.Type),
		Description:     elem.Description,
		DependencyCount: len(elem.Dependencies),
		DependentCount:  len(elem.Dependents),
		CreatedAt:       elem.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) logTool(name string, fields map[string]any) {
	entry := s.logger.WithField("tool", name)
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Debug("Tool invoked")
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_code_element",
		Description: "Adds a code element (function, module, constant, variable) to the knowledge tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AddCodeElementArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("add_code_element", map[string]any{"id": args.ElementID})

		elem, analysis, err := s.store.Create(ctx, store.CreateRequest{
			ID:           args.ElementID,
			Type:         knowledge.ElementType(args.ElementType),
			Code:         args.Code,
			Description:  args.Description,
			Dependencies: args.Dependencies,
			SourceFile:   args.SourceFile,
			LineRange:    args.LineRange,
		})
		if err != nil {
			return errorResult(err), nil, nil
		}

		return jsonResult(map[string]any{
			"element":             elem,
			"dependency_analysis": analysis,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_code_element",
		Description: "Updates fields of an existing element; omitted fields keep their value",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UpdateCodeElementArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("update_code_element", map[string]any{"id": args.ElementID})

		elem, analysis, err := s.store.Update(ctx, store.UpdateRequest{
			ID:           args.ElementID,
			Code:         args.Code,
			Description:  args.Description,
			Dependencies: args.Dependencies,
			SourceFile:   args.SourceFile,
			LineRange:    args.LineRange,
		})
		if err != nil {
			return errorResult(err), nil, nil
		}

		result := map[string]any{
			"element":        elem,
			"updated_fields": updatedFields(args),
		}
		if analysis != nil {
			result["dependency_analysis"] = analysis
		}
		return jsonResult(result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_dependency",
		Description: "Records that one element depends on another; the target may not exist yet",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AddDependencyArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("add_dependency", map[string]any{"from": args.FromID, "to": args.ToID})

		report, err := s.store.AddDependency(ctx, args.FromID, args.ToID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(report), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "edit_dependencies",
		Description: "Replaces, extends or prunes an element's dependency list in one operation",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EditDependenciesArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("edit_dependencies", map[string]any{"id": args.ElementID, "op": args.Operation})

		op := store.DepOp(args.Operation)
		if args.Operation == "" {
			op = store.DepReplace
		}
		switch op {
		case store.DepReplace, store.DepAdd, store.DepRemove:
		default:
			return validationError("operation must be one of: replace, add, remove"), nil, nil
		}

		elem, change, err := s.store.EditDependencies(ctx, args.ElementID, args.Dependencies, op)
		if err != nil {
			return errorResult(err), nil, nil
		}

		return jsonResult(map[string]any{
			"element":            summarize(elem),
			"dependency_changes": change,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_element",
		Description: "Returns the full record of one element",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetElementArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("get_element", map[string]any{"id": args.ElementID})

		elem, err := s.store.Get(ctx, args.ElementID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(elem), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_missing_dependencies",
		Description: "Lists dependencies with no record yet, for one element or the whole tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindMissingDependenciesArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("find_missing_dependencies", map[string]any{"id": args.ElementID})

		if args.ElementID != "" {
			missing, err := s.store.FindMissing(ctx, args.ElementID)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return jsonResult(map[string]any{
				"element_id":           args.ElementID,
				"missing_dependencies": missing,
				"missing_count":        len(missing),
			}), nil, nil
		}

		missing, checked := s.store.FindAllMissing(ctx)
		total := 0
		for _, refs := range missing {
			total += len(refs)
		}
		return jsonResult(map[string]any{
			"missing_dependencies": missing,
			"total_missing":        len(missing),
			"total_references":     total,
			"elements_checked":     checked,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_tree_view",
		Description: "Renders an element's transitive dependencies as an ASCII tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetTreeViewArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("get_tree_view", map[string]any{"root": args.RootID})

		depth := s.cfg.Render.DefaultDepth
		if args.MaxDepth != nil {
			depth = *args.MaxDepth
		}

		if args.RootID != "" {
			tree, err := s.store.RenderTree(ctx, args.RootID, depth)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return textResult(tree), nil, nil
		}

		tree := s.store.RenderForest(ctx, depth)
		if tree == "" {
			return textResult("Knowledge tree is empty."), nil, nil
		}
		return textResult(tree), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_all_elements",
		Description: "Lists every element in the knowledge tree, ordered by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListAllElementsArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("list_all_elements", nil)

		elements := s.store.List(ctx)
		summaries := make([]elementSummary, 0, len(elements))
		for _, elem := range elements {
			summaries = append(summaries, summarize(elem))
		}
		return jsonResult(map[string]any{
			"total_elements": len(summaries),
			"elements":       summaries,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "remove_element",
		Description: "Removes an element and strips it from every other element's edge lists",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RemoveElementArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("remove_element", map[string]any{"id": args.ElementID})

		report, err := s.store.Delete(ctx, args.ElementID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(report), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "import_from_analysis_file",
		Description: "Imports function blocks from a free-form analysis text file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ImportFromAnalysisFileArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("import_from_analysis_file", map[string]any{"path": args.FilePath})

		autoExtract := true
		if args.AutoExtract != nil {
			autoExtract = *args.AutoExtract
		}

		report, err := importAnalysisFile(ctx, s.store, args.FilePath, autoExtract)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(report), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_knowledge_tree_stats",
		Description: "Reports counts, dependency shape and health signals for the whole tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetKnowledgeTreeStatsArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("get_knowledge_tree_stats", nil)

		return jsonResult(s.store.Stats(ctx)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_working_directory_info",
		Description: "Shows where the knowledge tree is stored on disk",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetWorkingDirectoryInfoArgs) (*mcp.CallToolResult, any, error) {
		s.logTool("get_working_directory_info", nil)

		return jsonResult(s.store.Info()), nil, nil
	})
}

// updatedFields names the fields an update request actually set.
func updatedFields(args UpdateCodeElementArgs) []string {
	fields := []string{}
	if args.Code != nil {
		fields = append(fields, "code")
	}
	if args.Description != nil {
		fields = append(fields, "description")
	}
	if args.Dependencies != nil {
		fields = append(fields, "dependencies")
	}
	if args.SourceFile != nil {
		fields = append(fields, "source_file")
	}
	if args.LineRange != nil {
		fields = append(fields, "line_range")
	}
	return fields
}
