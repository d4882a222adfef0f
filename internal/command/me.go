package command

import (
	"encoding/json"
	"fmt"

	"github.com/adamavenir/gram/internal/types"
	"github.com/spf13/cobra"
)

// NewMeCmd creates the me command.
func NewMeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			if err := cctx.RequireUser(commandCtx(cmd)); err != nil {
				return writeCommandError(cmd, err)
			}
			me := cctx.Session.Me()
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(me)
			}
			writeMe(cmd, me, cctx)
			return nil
		},
	}
	cmd.AddCommand(newMeEditCmd())
	return cmd
}

func writeMe(cmd *cobra.Command, me types.Profile, cctx *CommandContext) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boldText.Sprint("@"+me.Username))
	if me.FullName != "" {
		fmt.Fprintln(out, me.FullName)
	}
	if me.Email != "" {
		fmt.Fprintf(out, "%s %s\n", dimText.Sprint("email"), me.Email)
	}
	if me.Website != "" {
		fmt.Fprintf(out, "%s %s\n", dimText.Sprint("website"), me.Website)
	}
	if me.About != "" {
		fmt.Fprintf(out, "%s %s\n", dimText.Sprint("about"), me.About)
	}
	fmt.Fprintf(out, "%s %s\n", dimText.Sprint("avatar"), cctx.Session.Media.Resolve(me.Avatar))
	fmt.Fprintf(out, "%s %d  %s %d\n", dimText.Sprint("following"), len(me.Following), dimText.Sprint("followers"), len(me.Followers))
}

func newMeEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			ctx := commandCtx(cmd)
			if err := cctx.RequireUser(ctx); err != nil {
				return writeCommandError(cmd, err)
			}

			editor := cctx.Session.ProfileEditor()
			if err := editor.Load(ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			draft := editor.Draft()
			flags := cmd.Flags()
			if flags.Changed("username") {
				draft.Username, _ = flags.GetString("username")
			}
			if flags.Changed("website") {
				draft.Website, _ = flags.GetString("website")
			}
			if flags.Changed("about") {
				draft.About, _ = flags.GetString("about")
			}
			if flags.Changed("avatar") {
				draft.AvatarPath, _ = flags.GetString("avatar")
			}
			editor.SetDraft(draft)
			if !editor.Dirty() {
				return writeCommandError(cmd, fmt.Errorf("nothing to change (use --username, --website, --about or --avatar)"))
			}

			if err := editor.Submit(ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			me := editor.Profile()
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(me)
			}
			writeSuccess(cmd, "Profile updated")
			writeMe(cmd, me, cctx)
			return nil
		},
	}
	cmd.Flags().String("username", "", "new username")
	cmd.Flags().String("website", "", "website URL")
	cmd.Flags().String("about", "", "short bio (100 characters max)")
	cmd.Flags().String("avatar", "", "path to a new avatar image")
	return cmd
}
