package server

import (
	"context"
	"fmt"
	"os"

	"codetree/internal/extract"
	"codetree/internal/knowledge"
	"codetree/internal/store"
)

// ImportReport summarizes one analysis-file import.
type ImportReport struct {
	FilePath string        `json:"file_path"`
	Imported []string      `json:"imported_elements"`
	Failed   []string      `json:"failed_imports"`
	Info     ExtractedInfo `json:"extracted_info"`
}

// ExtractedInfo echoes what the extractor recognized, imported or not.
type ExtractedInfo struct {
	FunctionsFound        int      `json:"functions_found"`
	PotentialDependencies []string `json:"potential_dependencies"`
	ModulesReferenced     []string `json:"modules_referenced"`
}

// importAnalysisFile extracts function blocks from the named file and creates
// one function element per block. Existing ids are skipped and reported, not
// overwritten. Dependency hints from comments are surfaced as candidates for
// the caller to wire up; no edges are created automatically.
func importAnalysisFile(ctx context.Context, st *store.Store, path string, autoExtract bool) (*ImportReport, error) {
	if path == "" {
		return nil, fmt.Errorf("file_path must not be empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, knowledge.IOFailuref(err, "failed to stat %s", path)
	}

	res, err := extract.AnalyzeFile(path)
	if err != nil {
		return nil, knowledge.IOFailuref(err, "failed to analyze %s", path)
	}

	report := &ImportReport{
		FilePath: path,
		Imported: []string{},
		Failed:   []string{},
		Info: ExtractedInfo{
			FunctionsFound:        len(res.Functions),
			PotentialDependencies: []string{},
			ModulesReferenced:     []string{},
		},
	}
	if autoExtract {
		report.Info.PotentialDependencies = res.Calls
		report.Info.ModulesReferenced = res.Modules
	}

	for _, fn := range res.Functions {
		_, _, err := st.Create(ctx, store.CreateRequest{
			ID:          fn.Name,
			Type:        knowledge.TypeFunction,
			Code:        fn.Code,
			Description: fmt.Sprintf("Function extracted from %s", path),
			SourceFile:  path,
		})
		if err != nil {
			report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", fn.Name, err))
			continue
		}
		report.Imported = append(report.Imported, fn.Name)
	}

	return report, nil
}
