package command

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

// NewFollowCmd creates the follow command. Following is a toggle: running it
// again unfollows.
func NewFollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <username>",
		Short: "Follow or unfollow a user",
		Args:  cobra.ExactArgs(1),
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
			header := cctx.Session.ProfileHeader(strings.TrimPrefix(args[0], "@"))
			if err := header.Mount(ctx); err != nil {
				return writeCommandError(cmd, err)
			}
			defer header.Unmount()
			if err := header.Follow(ctx); err != nil {
				return writeCommandError(cmd, err)
			}

			state := header.State()
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"user":      state.View.User.Username,
					"following": state.Following,
					"followers": state.View.Stats.Followers,
				})
			}
			if state.Following {
				writeSuccess(cmd, "Following @%s (%d followers)", state.View.User.Username, state.View.Stats.Followers)
			} else {
				writeSuccess(cmd, "Unfollowed @%s (%d followers)", state.View.User.Username, state.View.Stats.Followers)
			}
			return nil
		},
	}
}
