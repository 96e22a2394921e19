package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projectloom/loom/types"
	"github.com/projectloom/loom/utils"
)

var logsCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [controller|presentation]",
		Short: "Show a managed process's log",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLogs,
	}
	cmd.Flags().BoolP("follow", "f", false, "stream appended log lines")
	cmd.Flags().IntP("lines", "n", 50, "how many trailing lines to show") //nolint:mnd
	return cmd
}()

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	role := types.RoleController
	if len(args) > 0 {
		switch args[0] {
		case string(types.RoleController):
		case string(types.RolePresentation):
			role = types.RolePresentation
		default:
			return fmt.Errorf("unknown role %q", args[0])
		}
	}
	path := conf.ProcessLogPath(role)
	follow, _ := cmd.Flags().GetBool("follow")
	lines, _ := cmd.Flags().GetInt("lines")

	if err := utils.TailFile(os.Stdout, path, lines); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if follow {
		return utils.FollowFile(ctx, os.Stdout, path)
	}
	return nil
}
