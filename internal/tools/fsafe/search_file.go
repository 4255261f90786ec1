package fsafe

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

const searchResultLimit = 50

// SearchFileTool recursively globs for files matching a name pattern
// within the workspace root, skipping dotfiles other than the
// conventional .vibe directory and truncating at searchResultLimit
// results.
type SearchFileTool struct {
	resolver Resolver
}

// NewSearchFileTool scopes the tool to workspaceRoot.
func NewSearchFileTool(workspaceRoot string) *SearchFileTool {
	return &SearchFileTool{resolver: Resolver{Root: workspaceRoot}}
}

func (t *SearchFileTool) Name() string        { return "search_file" }
func (t *SearchFileTool) Description() string { return "Recursively search for files by name pattern within the workspace." }

func (t *SearchFileTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"pattern": {Type: "string", Required: true, Description: "Glob pattern to match file names against."},
		"path":    {Type: "string", Required: false, Description: "Directory to search within, relative to workspace root."},
	}
}

func (t *SearchFileTool) Validate(params map[string]any) error {
	pattern, ok := params["pattern"].(string)
	if !ok || strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is required and must be a non-empty string")
	}
	if v, ok := params["path"]; ok {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("path must be a string")
		}
	}
	return nil
}

func (t *SearchFileTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	pattern := params["pattern"].(string)
	startPath, _ := params["path"].(string)
	if startPath == "" {
		startPath = "."
	}

	resolved, err := t.resolver.Resolve(startPath)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	var matches []string
	walkErr := filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the search
		}
		name := d.Name()
		if name != "." && strings.HasPrefix(name, ".") && name != ".vibe" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, name)
		if err != nil || !ok {
			return nil
		}
		rel, err := filepath.Rel(resolved, p)
		if err != nil {
			rel = p
		}
		matches = append(matches, rel)
		if len(matches) >= searchResultLimit {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("search: %v", walkErr)}, nil
	}

	sort.Strings(matches)
	truncated := len(matches) >= searchResultLimit

	return &models.ToolResult{Success: true, Output: map[string]any{
		"pattern":   pattern,
		"matches":   matches,
		"truncated": truncated,
	}}, nil
}
