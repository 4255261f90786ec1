package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMissingConfigFileYieldsZeroRulesFailOpen(t *testing.T) {
	dir := t.TempDir()
	e, err := New(filepath.Join(dir, "nonexistent.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, e.RuleCount())

	d := e.Check("write_file", map[string]any{"path": ".git/config"})
	assert.True(t, d.Allowed)
}

func TestPathContainsBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: protect_git
    condition: path_contains
    pattern: ".git"
    action: block
    message: "Touching .git is forbidden."
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	d := e.Check("write_file", map[string]any{"path": ".git/config"})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, ".git")

	d = e.Check("write_file", map[string]any{"path": "docs/notes.md"})
	assert.True(t, d.Allowed)
}

func TestPathMatchesExactEquality(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: exact
    condition: path_matches
    pattern: "secrets.env"
    action: block
    message: "No."
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	assert.False(t, e.Check("read_file", map[string]any{"path": "secrets.env"}).Allowed)
	assert.True(t, e.Check("read_file", map[string]any{"path": "other/secrets.env"}).Allowed)
}

func TestPathOutsideRootFailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: confine
    condition: path_outside_root
    pattern: ""
    action: block
    message: "Outside workspace."
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	assert.False(t, e.Check("read_file", map[string]any{"path": "../../etc/passwd"}).Allowed)
	assert.True(t, e.Check("read_file", map[string]any{"path": "inside.txt"}).Allowed)
}

func TestNoPathParameterExemptsPathRules(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: confine
    condition: path_outside_root
    pattern: ""
    action: block
    message: "Outside workspace."
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	d := e.Check("delegate_task", map[string]any{"agent_id": "planner"})
	assert.True(t, d.Allowed)
}

func TestUnknownConditionNeverBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: future
    condition: path_hashes_to_evil
    pattern: "x"
    action: block
    message: "should never fire"
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	d := e.Check("read_file", map[string]any{"path": "x"})
	assert.True(t, d.Allowed, "unknown condition kinds must never block")
}

func TestNonBlockActionIsAdvisoryOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
safety_rules:
  - id: warn_only
    condition: path_contains
    pattern: ".git"
    action: warn
    message: "just a warning"
`)
	e, err := New(path, dir)
	require.NoError(t, err)

	d := e.Check("write_file", map[string]any{"path": ".git/config"})
	assert.True(t, d.Allowed, "only block-action rules have effect")
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "safety_rules: []\n")
	e, err := New(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, e.RuleCount())

	require.NoError(t, os.WriteFile(path, []byte(`
safety_rules:
  - id: added
    condition: path_contains
    pattern: "x"
    action: block
    message: "x"
`), 0o644))

	require.NoError(t, e.Reload())
	assert.Equal(t, 1, e.RuleCount())
	assert.Equal(t, []string{"added"}, e.RuleIDs())
}
