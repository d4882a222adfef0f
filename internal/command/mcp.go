package command

import (
	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/mcp"
	"github.com/spf13/cobra"
)

// NewMCPCmd creates the MCP stdio server command.
func NewMCPCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve gram tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := getContextWithLogger(cmd, func(debug bool) (*core.Logger, error) {
				log := core.NewLogger(AppName+"-mcp", debug)
				log.SetOutput(cmd.ErrOrStderr())
				return log, nil
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			ctx := commandCtx(cmd)
			if err := cctx.RequireUser(ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			if err := mcp.NewServer(cctx.Session, version).Run(ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
}
