package fsafe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

// ReadFileTool reads a file's contents as text from within the
// workspace root.
type ReadFileTool struct {
	resolver Resolver
}

// NewReadFileTool scopes the tool to workspaceRoot.
func NewReadFileTool(workspaceRoot string) *ReadFileTool {
	return &ReadFileTool{resolver: Resolver{Root: workspaceRoot}}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read a file's contents as text from the workspace." }

func (t *ReadFileTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"path": {Type: "string", Required: true, Description: "Path to the file, relative to the workspace root."},
	}
}

func (t *ReadFileTool) Validate(params map[string]any) error {
	path, ok := params["path"].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required and must be a non-empty string")
	}
	return nil
}

func (t *ReadFileTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	path := params["path"].(string)
	resolved, err := t.resolver.Resolve(path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsPermission(err) {
			return &models.ToolResult{Success: false, Error: fmt.Sprintf("permission denied: %s", path)}, nil
		}
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("read file: %v", err)}, nil
	}
	if !isValidUTF8(content) {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("file is not valid UTF-8: %s", path)}, nil
	}

	return &models.ToolResult{Success: true, Output: map[string]any{
		"path":    path,
		"content": string(content),
	}}, nil
}

func isValidUTF8(b []byte) bool {
	return strings.ToValidUTF8(string(b), "�") == string(b)
}
