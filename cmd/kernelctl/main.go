// Package main provides the CLI entry point for kernelctl, a thin demo
// wrapper around the agent kernel: boot a kernel configured by flags
// (workspace root, an optional safety_rules YAML policy file, issuing
// organization), submit tasks to registered demo agents, advance the
// scheduling loop one step at a time, and inspect ledger state.
//
// # Basic Usage
//
//	kernelctl boot --workspace ./work --policy ./policy.yaml
//	kernelctl submit --agent planner --payload '{"user_message":"plan the rollout"}'
//	kernelctl tick
//	kernelctl inspect <task-id>
//
// Every invocation builds and boots a fresh kernel. The ledger file
// named by --state persists across invocations; the task queue is held
// in memory only, so a task submitted by one invocation is not
// dispatched by a later, separate tick invocation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mplewis/agentkernel/internal/demoagents"
	"github.com/mplewis/agentkernel/internal/identity"
	"github.com/mplewis/agentkernel/internal/kernel"
	"github.com/mplewis/agentkernel/internal/ledger"
	"github.com/mplewis/agentkernel/internal/observability"
	"github.com/mplewis/agentkernel/internal/policy"
	"github.com/mplewis/agentkernel/internal/queue"
	"github.com/mplewis/agentkernel/internal/tools"
	"github.com/mplewis/agentkernel/internal/tools/fsafe"
	"github.com/mplewis/agentkernel/internal/tools/kernelops"
	"github.com/mplewis/agentkernel/pkg/models"
)

// taskFor builds a submittable task from CLI-supplied fields.
func taskFor(agentID string, payload map[string]any) *models.Task {
	if payload == nil {
		payload = map[string]any{}
	}
	return models.NewTask(agentID, payload)
}

func main() {
	logger := observability.New(observability.Config{
		Level:  slog.LevelInfo,
		Format: observability.FormatJSON,
		Output: os.Stderr,
	})
	slog.SetDefault(logger.Base())

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	var statePath string
	rootCmd := &cobra.Command{
		Use:          "kernelctl",
		Short:        "kernelctl - demo CLI for the single-process agent kernel",
		Long:         "kernelctl drives a kernel instance through boot, submit, tick, and inspect steps.\n\nEach invocation operates against a durable SQLite ledger, so ledger\nrecords survive across separate kernelctl invocations; the task queue\nis held in memory and does not.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "./kernelctl.db", "Path to the ledger database file shared across invocations")

	rootCmd.AddCommand(
		buildBootCmd(&statePath),
		buildSubmitCmd(&statePath),
		buildTickCmd(&statePath),
		buildInspectCmd(&statePath),
		buildStatusCmd(&statePath),
	)
	return rootCmd
}

// buildKernel wires the full component graph with the demo agent set
// registered, opening the ledger at statePath. Every subcommand shares
// this wiring so separately-invoked commands see the same ledger; each
// starts with an empty task queue.
func buildKernel(statePath, workspaceRoot, policyPath, issuingOrg string) (*kernel.Kernel, error) {
	log := observability.NewNop()

	l, err := ledger.Open(statePath, log)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	var policyChecker tools.PolicyChecker
	if policyPath != "" {
		eng, err := policy.New(policyPath, workspaceRoot)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		policyChecker = eng
	}

	toolReg := tools.New(policyChecker, log)
	if workspaceRoot != "" {
		if err := toolReg.Register(fsafe.NewReadFileTool(workspaceRoot)); err != nil {
			return nil, err
		}
		if err := toolReg.Register(fsafe.NewWriteFileTool(workspaceRoot)); err != nil {
			return nil, err
		}
		if err := toolReg.Register(fsafe.NewListDirectoryTool(workspaceRoot)); err != nil {
			return nil, err
		}
		if err := toolReg.Register(fsafe.NewSearchFileTool(workspaceRoot)); err != nil {
			return nil, err
		}
	}

	idReg := identity.NewRegistry()
	q := queue.New()
	k := kernel.New(q, l, idReg, toolReg, log, kernel.Config{IssuingOrg: issuingOrg, WorkspaceRoot: workspaceRoot})

	delegateTool := kernelops.NewDelegateTaskTool()
	if err := toolReg.Register(delegateTool); err != nil {
		return nil, err
	}
	if err := toolReg.Register(kernelops.NewInspectResultTool(k)); err != nil {
		return nil, err
	}

	for _, agent := range demoagents.All() {
		if err := k.RegisterAgent(agent); err != nil {
			return nil, err
		}
	}

	if err := k.Boot(context.Background()); err != nil {
		return nil, fmt.Errorf("boot kernel: %w", err)
	}
	delegateTool.SetKernel(k)

	return k, nil
}

func buildBootCmd(statePath *string) *cobra.Command {
	var workspaceRoot, policyPath, issuingOrg string
	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Boot a kernel instance, issuing manifests for the demo agent set",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(*statePath, workspaceRoot, policyPath, issuingOrg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kernel status: %s\n", k.Status())
			for _, m := range listManifests(k) {
				fmt.Fprintf(out, "  agent %s: class=%s status=%s\n", m.Agent.ID, m.Agent.Class, m.Agent.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "Workspace root confining filesystem tools and the policy engine")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to a safety_rules YAML policy file")
	cmd.Flags().StringVar(&issuingOrg, "org", "agent-kernel", "Issuing organization stamped into agent manifests")
	return cmd
}

func buildSubmitCmd(statePath *string) *cobra.Command {
	var workspaceRoot, policyPath, issuingOrg, agentID, payloadJSON string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a task to a registered agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(*statePath, workspaceRoot, policyPath, issuingOrg)
			if err != nil {
				return err
			}
			var payload map[string]any
			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
					return fmt.Errorf("parse --payload: %w", err)
				}
			}
			taskID, err := k.Submit(taskFor(agentID, payload))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), taskID)
			return nil
		},
	}
	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "Workspace root confining filesystem tools and the policy engine")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to a safety_rules YAML policy file")
	cmd.Flags().StringVar(&issuingOrg, "org", "agent-kernel", "Issuing organization stamped into agent manifests")
	cmd.Flags().StringVar(&agentID, "agent", "", "Target agent id")
	cmd.Flags().StringVar(&payloadJSON, "payload", "{}", "Task payload as a JSON object")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func buildTickCmd(statePath *string) *cobra.Command {
	var workspaceRoot, policyPath, issuingOrg string
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance the kernel's scheduling loop by one step",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(*statePath, workspaceRoot, policyPath, issuingOrg)
			if err != nil {
				return err
			}
			dispatched, err := k.Tick(cmd.Context())
			out := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintf(out, "tick dispatched a task that failed: %v\n", err)
				return nil
			}
			if !dispatched {
				fmt.Fprintln(out, "no task dispatched (queue empty or kernel stopped)")
				return nil
			}
			fmt.Fprintln(out, "task dispatched")
			return nil
		},
	}
	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "Workspace root confining filesystem tools and the policy engine")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to a safety_rules YAML policy file")
	cmd.Flags().StringVar(&issuingOrg, "org", "agent-kernel", "Issuing organization stamped into agent manifests")
	return cmd
}

func buildInspectCmd(statePath *string) *cobra.Command {
	var workspaceRoot, policyPath, issuingOrg string
	cmd := &cobra.Command{
		Use:   "inspect [task-id]",
		Short: "Print the ledger record for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(*statePath, workspaceRoot, policyPath, issuingOrg)
			if err != nil {
				return err
			}
			rec, found := k.GetTaskResult(args[0])
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "NOT_FOUND")
				return nil
			}
			encoded, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "Workspace root confining filesystem tools and the policy engine")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to a safety_rules YAML policy file")
	cmd.Flags().StringVar(&issuingOrg, "org", "agent-kernel", "Issuing organization stamped into agent manifests")
	return cmd
}

func buildStatusCmd(statePath *string) *cobra.Command {
	var workspaceRoot, policyPath, issuingOrg string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print queue depth and ledger statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := buildKernel(*statePath, workspaceRoot, policyPath, issuingOrg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kernel status: %s\n", k.Status())
			fmt.Fprintf(out, "git status: %s\n", k.GetGitStatus())
			for _, msg := range k.GetInboxMessages() {
				fmt.Fprintf(out, "inbox: %s\n", msg.Filename)
			}
			for _, item := range k.GetBacklog() {
				fmt.Fprintf(out, "backlog: %s\n", item)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workspaceRoot, "workspace", "", "Workspace root confining filesystem tools and the policy engine")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Path to a safety_rules YAML policy file")
	cmd.Flags().StringVar(&issuingOrg, "org", "agent-kernel", "Issuing organization stamped into agent manifests")
	return cmd
}

func listManifests(k *kernel.Kernel) []*models.Manifest {
	var out []*models.Manifest
	for _, agentID := range demoagents.IDs() {
		if m, ok := k.GetAgentManifest(agentID); ok {
			out = append(out, m)
		}
	}
	return out
}

