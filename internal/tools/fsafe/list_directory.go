package fsafe

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

// ListDirectoryTool lists the entries of a directory within the
// workspace root, sorted with directories tagged [DIR] and files
// tagged [FILE].
type ListDirectoryTool struct {
	resolver Resolver
}

// NewListDirectoryTool scopes the tool to workspaceRoot.
func NewListDirectoryTool(workspaceRoot string) *ListDirectoryTool {
	return &ListDirectoryTool{resolver: Resolver{Root: workspaceRoot}}
}

func (t *ListDirectoryTool) Name() string { return "list_directory" }
func (t *ListDirectoryTool) Description() string {
	return "List the sorted contents of a directory within the workspace."
}

func (t *ListDirectoryTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"path": {Type: "string", Required: false, Description: "Directory path, relative to workspace root (defaults to its root)."},
	}
}

func (t *ListDirectoryTool) Validate(params map[string]any) error {
	if v, ok := params["path"]; ok {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("path must be a string")
		}
	}
	return nil
}

func (t *ListDirectoryTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	path, _ := params["path"].(string)
	if path == "" {
		path = "."
	}

	resolved, err := t.resolver.Resolve(path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("list directory: %v", err)}, nil
	}

	names := make([]string, 0, len(entries))
	tagged := make([]string, 0, len(entries))
	byName := map[string]string{}
	for _, e := range entries {
		tag := "[FILE]"
		if e.IsDir() {
			tag = "[DIR]"
		}
		names = append(names, e.Name())
		byName[e.Name()] = fmt.Sprintf("%s %s", tag, e.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		tagged = append(tagged, byName[n])
	}

	return &models.ToolResult{Success: true, Output: map[string]any{
		"path":    path,
		"entries": tagged,
	}}, nil
}
