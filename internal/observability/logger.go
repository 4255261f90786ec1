// Package observability provides the kernel's structured logging
// wrapper around log/slog, following the convenience-method convention
// of a purpose-built logger rather than ad hoc slog calls scattered
// through business logic.
package observability

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler used by a Logger.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config controls logger construction.
type Config struct {
	Level  slog.Level
	Format Format
	Output io.Writer
}

// DefaultConfig returns a JSON logger at Info level writing to stderr,
// a sane default for CLI and service entry points alike.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// Logger wraps slog.Logger with kernel-specific convenience methods.
type Logger struct {
	base *slog.Logger
}

// New builds a Logger from Config.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == FormatText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &Logger{base: slog.New(handler)}
}

// NewNop returns a Logger that discards everything, for tests.
func NewNop() *Logger {
	return New(Config{Level: slog.LevelError + 1, Format: FormatJSON, Output: io.Discard})
}

// With returns a Logger with additional structured attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

// Base exposes the underlying slog.Logger for callers that need it
// directly (e.g. wiring into a third-party library's logging hook).
func (l *Logger) Base() *slog.Logger {
	return l.base
}

// LogTaskStart records that a task has begun dispatch.
func (l *Logger) LogTaskStart(taskID, agentID string) {
	l.base.Info("task dispatch started", "task_id", taskID, "agent_id", agentID)
}

// LogTaskTerminal records a task's terminal outcome.
func (l *Logger) LogTaskTerminal(taskID, agentID, status string, err error) {
	args := []any{"task_id", taskID, "agent_id", agentID, "status", status}
	if err != nil {
		args = append(args, "error", err.Error())
		l.base.Warn("task dispatch terminated", args...)
		return
	}
	l.base.Info("task dispatch terminated", args...)
}

// LogPolicyDecision records a policy-engine evaluation of a tool call.
func (l *Logger) LogPolicyDecision(toolName string, allowed bool, reason string) {
	if allowed {
		l.base.Debug("policy decision", "tool", toolName, "allowed", true)
		return
	}
	l.base.Warn("policy decision", "tool", toolName, "allowed", false, "reason", reason)
}

// LogManifestIssued records that an identity manifest was generated for
// an agent at boot.
func (l *Logger) LogManifestIssued(agentID, fingerprint string) {
	l.base.Info("agent manifest issued", "agent_id", agentID, "fingerprint", fingerprint)
}

// LogPhoenixFallback records that the ledger degraded to its in-memory
// fallback store because the configured path could not be opened.
func (l *Logger) LogPhoenixFallback(path string, cause error) {
	l.base.Warn("ledger storage unavailable, falling back to in-memory store",
		"configured_path", path, "cause", cause.Error())
}

// LogTickSkipped records a tick call that performed no work.
func (l *Logger) LogTickSkipped(reason string) {
	l.base.Warn("tick skipped", "reason", reason)
}
