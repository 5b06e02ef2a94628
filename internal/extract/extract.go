// Package extract pulls code elements out of free-form analysis text, the
// kind produced while reverse engineering a codebase by hand: function
// blocks plus the dependency hints left in DEPENDENCIES/CALLS comments.
package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Function is one extracted function block.
type Function struct {
	Name string
	Code string
}

// Result holds everything Analyze recognized in one file.
type Result struct {
	// Functions in order of appearance.
	Functions []Function
	// Calls are name() occurrences from dependency comments: candidate
	// dependency ids, deduplicated in first-seen order.
	Calls []string
	// Modules are r(NNNN) references normalized to rNNNN, deduplicated
	// in first-seen order.
	Modules []string
}

var (
	moduleRefPattern = regexp.MustCompile(`r\((\d+)\)`)
	callPattern      = regexp.MustCompile(`(\w+)\(\)`)
)

// AnalyzeFile reads path and runs Analyze on its contents.
func AnalyzeFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis file: %w", err)
	}
	return Analyze(string(data)), nil
}

// Analyze scans the text line by line. A line starting with "function " and
// containing "(" opens a block; a line starting with "}" or a blank line
// closes it. Lines are kept stripped of surrounding whitespace. Dependency
// comments are recognized anywhere, inside or outside blocks.
func Analyze(content string) *Result {
	res := &Result{
		Functions: []Function{},
		Calls:     []string{},
		Modules:   []string{},
	}

	seenCalls := make(map[string]struct{})
	seenModules := make(map[string]struct{})

	var currentName string
	var currentCode []string
	inFunction := false

	flush := func() {
		if currentName != "" && len(currentCode) > 0 {
			res.Functions = append(res.Functions, Function{
				Name: currentName,
				Code: strings.Join(currentCode, "\n"),
			})
		}
		currentName = ""
		currentCode = nil
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "function ") && strings.Contains(line, "("):
			// A new header while a block is open closes the old block.
			flush()
			currentName = functionName(line)
			currentCode = []string{line}
			inFunction = true
		case inFunction && (strings.HasPrefix(line, "}") || line == ""):
			if strings.HasPrefix(line, "}") {
				currentCode = append(currentCode, line)
			}
			flush()
			inFunction = false
		case inFunction:
			currentCode = append(currentCode, line)
		}

		if !isDependencyComment(line) {
			continue
		}
		for _, m := range moduleRefPattern.FindAllStringSubmatch(line, -1) {
			ref := "r" + m[1]
			if _, ok := seenModules[ref]; !ok {
				seenModules[ref] = struct{}{}
				res.Modules = append(res.Modules, ref)
			}
		}
		for _, m := range callPattern.FindAllStringSubmatch(line, -1) {
			if _, ok := seenCalls[m[1]]; !ok {
				seenCalls[m[1]] = struct{}{}
				res.Calls = append(res.Calls, m[1])
			}
		}
	}
	flush()

	return res
}

func functionName(line string) string {
	rest := strings.TrimPrefix(line, "function ")
	if i := strings.Index(rest, "("); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

// isDependencyComment matches the annotation lines analysis files carry,
// e.g. "// DEPENDENCIES: r(2020), helper()" or "CALLS: parse_header()".
func isDependencyComment(line string) bool {
	upper := strings.ToUpper(line)
	return strings.Contains(upper, "DEPENDENCIES") || strings.Contains(upper, "CALLS:")
}
