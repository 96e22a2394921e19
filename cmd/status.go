package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/projectloom/loom/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fabric run state and managed processes",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	orch, err := initOrchestrator()
	if err != nil {
		return err
	}

	st, err := orch.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Printf("State:   %s\n", st.State)
	if st.Variant != "" {
		fmt.Printf("Variant: %s\n", st.Variant)
	}
	fmt.Printf("Network: %s\n", presence(st.Network))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROLE\tSTATE\tPID\tUPTIME\tLOG")
	for _, p := range []types.ProcessStatus{st.Controller, st.Presentation} {
		uptime := "-"
		if !p.StartedAt.IsZero() {
			uptime = units.HumanDuration(time.Since(p.StartedAt))
		}
		pid := "-"
		if p.PID > 0 {
			pid = fmt.Sprintf("%d", p.PID)
		}
		logPath := p.LogPath
		if logPath == "" {
			logPath = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Role, p.State, pid, uptime, logPath)
	}
	w.Flush() //nolint:errcheck,gosec
	return nil
}

func presence(ok bool) string {
	if ok {
		return "provisioned"
	}
	return "absent"
}
