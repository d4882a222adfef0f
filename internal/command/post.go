package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/types"
	"github.com/spf13/cobra"
)

// NewPostCmd creates the post command group.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create, show and act on posts",
	}
	cmd.AddCommand(
		newPostShowCmd(),
		newPostCreateCmd(),
		newPostRmCmd(),
		newPostLikeCmd(),
		newPostCaptionCmd(),
		newPostCommentCmd(),
	)
	return cmd
}

// withUser runs fn with a context whose signed-in user is loaded.
func withUser(cmd *cobra.Command, fn func(ctx context.Context, cctx *CommandContext) error) error {
	cctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer cctx.Close()

	ctx := commandCtx(cmd)
	if err := cctx.RequireUser(ctx); err != nil {
		return writeCommandError(cmd, err)
	}
	if err := fn(ctx, cctx); err != nil {
		return writeCommandError(cmd, err)
	}
	return nil
}

func writePostResult(cmd *cobra.Command, cctx *CommandContext, post *types.Post, format string, args ...any) error {
	if cctx.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(post)
	}
	writeSuccess(cmd, format, args...)
	return nil
}

func newPostShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <post-id>",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				viewer := cctx.Session.DetailViewer()
				defer viewer.Close()
				if err := viewer.Show(ctx, args[0]); err != nil {
					return err
				}
				post, _ := viewer.Post()
				if cctx.JSONMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(post)
				}
				writePostDetail(cmd.OutOrStdout(), post, cctx.Session.Me().ID, cctx.Session.Media)
				return nil
			})
		},
	}
}

func newPostCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <image>",
		Short: "Share a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caption, _ := cmd.Flags().GetString("caption")
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				d := cctx.Session.CreateDialog()
				d.Open()
				if err := d.SetImage(args[0]); err != nil {
					return err
				}
				d.SetCaption(caption)
				if err := d.Submit(ctx); err != nil {
					return err
				}
				post := d.Created()
				if post == nil {
					return fmt.Errorf("server returned no post")
				}
				return writePostResult(cmd, cctx, post, "Shared post %s", post.ID)
			})
		},
	}
	cmd.Flags().StringP("caption", "c", "", "caption text")
	return cmd
}

func newPostRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				viewer := cctx.Session.DetailViewer()
				defer viewer.Close()
				if err := viewer.Show(ctx, args[0]); err != nil {
					return err
				}
				if !viewer.IsMine() {
					return &coordinator.ValidationError{Field: "post", Message: "you can only delete your own posts"}
				}
				if err := viewer.Submit(ctx); err != nil {
					return err
				}
				if cctx.JSONMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"deleted": args[0]})
				}
				writeSuccess(cmd, "Deleted post %s", args[0])
				return nil
			})
		},
	}
}

func newPostLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				post, err := cctx.Session.Coord.ToggleLike(ctx, args[0])
				if err != nil {
					return err
				}
				verb := "Unliked"
				if post.LikedBy(cctx.Session.Me().ID) {
					verb = "Liked"
				}
				return writePostResult(cmd, cctx, post, "%s post %s (%d likes)", verb, post.ID, post.LikeCount())
			})
		},
	}
}

func newPostCaptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "caption <post-id> <text>",
		Short: "Replace a post's caption",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				post, err := cctx.Session.Coord.EditCaption(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return writePostResult(cmd, cctx, post, "Updated caption on %s", post.ID)
			})
		},
	}
}

func newPostCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				post, err := cctx.Session.Coord.AddComment(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return writePostResult(cmd, cctx, post, "Commented on %s (%d comments)", post.ID, post.CommentCount())
			})
		},
	}
}

// NewCommentCmd creates the comment command group.
func NewCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Act on comments",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "like <post-id> <comment-id>",
		Short: "Like or unlike a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(ctx context.Context, cctx *CommandContext) error {
				post, err := cctx.Session.Coord.ToggleCommentLike(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				c, ok := post.Comment(args[1])
				if !ok {
					return errors.New("comment not found in response")
				}
				verb := "Unliked"
				if c.LikedBy(cctx.Session.Me().ID) {
					verb = "Liked"
				}
				return writePostResult(cmd, cctx, post, "%s comment %s", verb, c.ID)
			})
		},
	})
	return cmd
}
