package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/projectloom/loom/orchestrator"
	"github.com/projectloom/loom/supervise"
	"github.com/projectloom/loom/topology"
)

// newCommandContext builds the root context, canceled on SIGINT/SIGTERM so
// an interrupted start rolls back instead of leaving orphans.
func newCommandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// initOrchestrator wires the provisioner and supervisor into a coordinator.
func initOrchestrator() (*orchestrator.Orchestrator, error) {
	sup, err := supervise.New(conf)
	if err != nil {
		return nil, fmt.Errorf("init supervisor: %w", err)
	}
	return orchestrator.New(conf, topology.New(), sup), nil
}
