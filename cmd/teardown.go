package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove topology resources, leaving processes alone",
	Args:  cobra.NoArgs,
	RunE:  runTeardown,
}

func runTeardown(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	orch, err := initOrchestrator()
	if err != nil {
		return err
	}
	if err := orch.Teardown(ctx); err != nil {
		return fmt.Errorf("teardown: %w", err)
	}
	return nil
}
