package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop managed processes and tear the fabric down",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	orch, err := initOrchestrator()
	if err != nil {
		return err
	}
	// Stopping a never-started fabric is a successful no-op.
	if err := orch.Down(ctx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}
