// Package fsafe implements the kernel's bundled filesystem tools
// (read_file, write_file, list_directory, search_file), each confined
// to a workspace root via the same escape-checking resolver idiom the
// policy engine's path_outside_root condition uses.
package fsafe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver confines relative and absolute paths to Root, rejecting any
// path that resolves outside of it.
type Resolver struct {
	Root string
}

// Resolve returns the absolute path for p, erroring if p escapes Root.
func (r Resolver) Resolve(p string) (string, error) {
	root := r.Root
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}

	var targetAbs string
	if filepath.IsAbs(p) {
		targetAbs = filepath.Clean(p)
	} else {
		targetAbs, err = filepath.Abs(filepath.Join(rootAbs, p))
		if err != nil {
			return "", fmt.Errorf("resolve path: %w", err)
		}
	}

	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", p)
	}
	return targetAbs, nil
}
