package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const AppName = "gram"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "gram - photo sharing from the terminal",
		Long:          "gram is a client for the photo-sharing API: browse feeds, post photos, like, comment and follow.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().Bool("json", false, "output in JSON format")
	cmd.PersistentFlags().Bool("debug", false, "log requests to stderr")

	cmd.AddCommand(
		NewLoginCmd(),
		NewRegisterCmd(),
		NewResetPasswordCmd(),
		NewLogoutCmd(),
		NewMeCmd(),
		NewFeedCmd(),
		NewExploreCmd(),
		NewProfileCmd(),
		NewFollowCmd(),
		NewPostCmd(),
		NewCommentCmd(),
		NewConfigCmd(),
		NewTUICmd(),
		NewMCPCmd(version),
	)

	return cmd
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(Version).ExecuteContext(ctx)
}
