package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/tui"
	"github.com/spf13/cobra"
)

// NewTUICmd creates the interactive terminal UI command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [username]",
		Short: "Interactive feed, explore and profile browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return writeCommandError(cmd, fmt.Errorf("--json not supported for the interactive UI"))
			}

			logPath := filepath.Join(os.TempDir(), "gram-debug.log")
			fileLog := func(debug bool) (*core.Logger, error) {
				return core.NewFileLogger(AppName, logPath, debug)
			}
			cctx, err := getContextWithLogger(cmd, fileLog, app.WithCredentialWatch(nil))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			ctx := commandCtx(cmd)
			if err := cctx.RequireUser(ctx); err != nil {
				return writeCommandError(cmd, err)
			}

			notify, _ := cmd.Flags().GetBool("notify")
			opts := tui.Options{Session: cctx.Session, Notify: notify}
			if len(args) > 0 {
				opts.Profile = args[0]
			}
			if err := tui.Run(ctx, opts); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("notify", true, "desktop notification when a post is shared")
	return cmd
}
