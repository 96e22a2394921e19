package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/projectloom/loom/checks"
	"github.com/projectloom/loom/config"
)

var startCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [VARIANT]",
		Short: fmt.Sprintf("Provision the fabric and start a controller variant (%s)", strings.Join(config.VariantIDs(), ", ")),
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStart,
	}
	return cmd
}()

func runStart(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	orch, err := initOrchestrator()
	if err != nil {
		return err
	}
	variant := "v1"
	if len(args) > 0 {
		variant = args[0]
	}
	if err := orch.Up(ctx, variant); err != nil {
		// A verification failure leaves the fabric running; show the
		// scorecard before the non-zero exit.
		var vf *checks.FailureError
		if errors.As(err, &vf) {
			printScorecard(vf.Scorecard)
		}
		return fmt.Errorf("start: %w", err)
	}
	return nil
}
