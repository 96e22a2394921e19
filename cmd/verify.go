package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/projectloom/loom/checks"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the verification battery against the live fabric",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	orch, err := initOrchestrator()
	if err != nil {
		return err
	}

	card, err := orch.Verify(ctx)
	var vf *checks.FailureError
	if err != nil && !errors.As(err, &vf) {
		return fmt.Errorf("verify: %w", err)
	}
	printScorecard(card)
	return err
}

func printScorecard(card checks.Scorecard) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHECK\tRESULT\tDETAIL")
	for _, r := range card.Results {
		verdict := "PASS"
		if !r.Passed {
			verdict = "FAIL"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, verdict, r.Detail)
	}
	w.Flush() //nolint:errcheck,gosec
	fmt.Printf("\n%d passed, %d failed\n", card.Passed, card.Failed)
}
