package fsafe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/pkg/models"
)

// WriteFileTool writes text content to a file within the workspace
// root, refusing to create missing parent directories unless the
// caller opts in via create_dirs.
type WriteFileTool struct {
	resolver Resolver
}

// NewWriteFileTool scopes the tool to workspaceRoot.
func NewWriteFileTool(workspaceRoot string) *WriteFileTool {
	return &WriteFileTool{resolver: Resolver{Root: workspaceRoot}}
}

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Write text content to a file in the workspace." }

func (t *WriteFileTool) ParametersSchema() map[string]tools.ParamSpec {
	return map[string]tools.ParamSpec{
		"path":        {Type: "string", Required: true, Description: "Path to the file, relative to the workspace root."},
		"content":     {Type: "string", Required: true, Description: "Text content to write."},
		"create_dirs": {Type: "boolean", Required: false, Description: "Create missing parent directories if true."},
	}
}

func (t *WriteFileTool) Validate(params map[string]any) error {
	path, ok := params["path"].(string)
	if !ok || strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required and must be a non-empty string")
	}
	if _, ok := params["content"].(string); !ok {
		return fmt.Errorf("content is required and must be a string")
	}
	if v, ok := params["create_dirs"]; ok {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("create_dirs must be a boolean")
		}
	}
	return nil
}

func (t *WriteFileTool) Execute(ctx context.Context, params map[string]any) (*models.ToolResult, error) {
	path := params["path"].(string)
	content := params["content"].(string)
	createDirs, _ := params["create_dirs"].(bool)

	resolved, err := t.resolver.Resolve(path)
	if err != nil {
		return &models.ToolResult{Success: false, Error: err.Error()}, nil
	}

	parent := filepath.Dir(resolved)
	if _, err := os.Stat(parent); err != nil {
		if !createDirs {
			return &models.ToolResult{Success: false, Error: fmt.Sprintf("parent directory does not exist: %s", filepath.Dir(path))}, nil
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return &models.ToolResult{Success: false, Error: fmt.Sprintf("create parent directories: %v", err)}, nil
		}
	}

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return &models.ToolResult{Success: false, Error: fmt.Sprintf("write file: %v", err)}, nil
	}

	return &models.ToolResult{Success: true, Output: map[string]any{
		"path":  path,
		"bytes": len(content),
	}}, nil
}
