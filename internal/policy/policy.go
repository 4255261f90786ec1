// Package policy implements the kernel's declarative safety gate:
// given a tool name and parameter map, it returns a binary decision and,
// on block, a human-readable reason. Fails open on missing
// configuration, fails closed on unresolvable paths, and never blocks
// on an unknown condition kind (forward compatibility).
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConditionPathContains    = "path_contains"
	ConditionPathMatches     = "path_matches"
	ConditionPathOutsideRoot = "path_outside_root"

	ActionBlock = "block"
)

// Rule is a single declarative statement: a tool invocation whose path
// parameter matches Condition/Pattern and whose Action is "block" must
// be rejected with Message as the reason.
type Rule struct {
	ID        string `yaml:"id"`
	Condition string `yaml:"condition"`
	Pattern   string `yaml:"pattern"`
	Action    string `yaml:"action"`
	Message   string `yaml:"message"`
}

type fileFormat struct {
	SafetyRules []Rule `yaml:"safety_rules"`
}

// Decision is the outcome of evaluating a tool invocation against the
// loaded rule set.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine holds the loaded rule set and the workspace root used for
// path-outside-root resolution.
type Engine struct {
	path  string
	root  string
	rules []Rule
}

// New constructs an Engine, loading rules from configPath. A missing
// file yields zero rules and universal permission (fail-open on
// configuration); the workspace root is used only by the
// path_outside_root condition.
func New(configPath, workspaceRoot string) (*Engine, error) {
	e := &Engine{path: configPath, root: workspaceRoot}
	rules, err := loadRules(configPath)
	if err != nil {
		return nil, err
	}
	e.rules = rules
	return e, nil
}

func loadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy config: %w", err)
	}
	var parsed fileFormat
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse policy config: %w", err)
	}
	return parsed.SafetyRules, nil
}

// Reload re-reads the configuration file from disk.
func (e *Engine) Reload() error {
	rules, err := loadRules(e.path)
	if err != nil {
		return err
	}
	e.rules = rules
	return nil
}

// RuleCount returns the number of currently loaded rules.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}

// RuleIDs returns the ids of all currently loaded rules, in order.
func (e *Engine) RuleIDs() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.ID
	}
	return ids
}

// Check evaluates toolName/params against the loaded rules in
// declaration order. The first block-action rule whose condition
// matches short-circuits with a blocking Decision; unknown conditions
// never block; absence of a "path" parameter exempts every path-based
// condition.
func (e *Engine) Check(toolName string, params map[string]any) Decision {
	for _, rule := range e.rules {
		if rule.Action != ActionBlock {
			continue
		}
		if blocked, reason := e.checkRule(rule, params); blocked {
			return Decision{Allowed: false, Reason: reason}
		}
	}
	return Decision{Allowed: true}
}

func (e *Engine) checkRule(rule Rule, params map[string]any) (bool, string) {
	rawPath, ok := params["path"]
	if !ok {
		return false, ""
	}
	pathStr := fmt.Sprintf("%v", rawPath)

	switch rule.Condition {
	case ConditionPathContains:
		if strings.Contains(pathStr, rule.Pattern) {
			return true, e.reason(rule)
		}
	case ConditionPathMatches:
		if pathStr == rule.Pattern {
			return true, e.reason(rule)
		}
	case ConditionPathOutsideRoot:
		if e.isOutsideRoot(pathStr) {
			return true, e.reason(rule)
		}
	default:
		// Unknown condition kinds never block: forward compatibility.
	}
	return false, ""
}

func (e *Engine) reason(rule Rule) string {
	msg := rule.Message
	if msg == "" {
		msg = "path blocked by policy rule"
	}
	return fmt.Sprintf("%s (rule: %s)", msg, rule.ID)
}

// isOutsideRoot resolves pathStr to an absolute canonical path and
// determines whether it lies under the configured workspace root.
// Any resolution failure is treated as "outside" (fail-closed).
func (e *Engine) isOutsideRoot(pathStr string) bool {
	root := e.root
	if root == "" {
		root = "."
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return true
	}
	var targetAbs string
	if filepath.IsAbs(pathStr) {
		targetAbs = filepath.Clean(pathStr)
	} else {
		targetAbs, err = filepath.Abs(filepath.Join(rootAbs, pathStr))
		if err != nil {
			return true
		}
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	return false
}
