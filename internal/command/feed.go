package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/types"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

// NewFeedCmd creates the feed command.
func NewFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show posts from people you follow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, _ := cmd.Flags().GetString("author")
			return runPostList(cmd, pattern, func(ctx context.Context, cctx *CommandContext) ([]types.Post, error) {
				return cctx.Session.Client.Feed(ctx)
			})
		},
	}
	cmd.Flags().String("author", "", "only posts whose author matches a glob (e.g. 'ali*')")
	return cmd
}

// NewExploreCmd creates the explore command.
func NewExploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Show recent posts from everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, _ := cmd.Flags().GetString("author")
			return runPostList(cmd, pattern, func(ctx context.Context, cctx *CommandContext) ([]types.Post, error) {
				return cctx.Session.Client.Explore(ctx)
			})
		},
	}
	cmd.Flags().String("author", "", "only posts whose author matches a glob")
	return cmd
}

func runPostList(cmd *cobra.Command, pattern string, load func(context.Context, *CommandContext) ([]types.Post, error)) error {
	match, err := authorMatcher(pattern)
	if err != nil {
		return writeCommandError(cmd, err)
	}

	cctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	defer cctx.Close()

	ctx := commandCtx(cmd)
	if err := cctx.RequireUser(ctx); err != nil {
		return writeCommandError(cmd, err)
	}
	posts, err := load(ctx, cctx)
	if err != nil {
		return writeCommandError(cmd, err)
	}
	posts = filterPosts(posts, match)

	if cctx.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(posts)
	}
	writePostList(cmd.OutOrStdout(), posts, cctx.Session.Me().ID)
	return nil
}

// authorMatcher compiles a case-insensitive username glob. An empty pattern
// matches everything.
func authorMatcher(pattern string) (glob.Glob, error) {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "@")
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid --author pattern %q: %w", pattern, err)
	}
	return g, nil
}

func filterPosts(posts []types.Post, match glob.Glob) []types.Post {
	if match == nil {
		return posts
	}
	out := make([]types.Post, 0, len(posts))
	for _, p := range posts {
		if match.Match(strings.ToLower(p.Author.Username)) {
			out = append(out, p)
		}
	}
	return out
}

// NewProfileCmd creates the profile command.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <username>",
		Short: "Show a user's profile and posts",
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
			username := strings.TrimPrefix(args[0], "@")
			view, err := cctx.Session.Client.GetProfile(ctx, username)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			posts, err := cctx.Session.Client.UserPosts(ctx, username)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			me := cctx.Session.Me()
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"user":      view.User,
					"stats":     view.Stats,
					"following": me.Follows(view.User.ID),
					"posts":     posts,
				})
			}
			out := cmd.OutOrStdout()
			writeProfile(out, *view, me)
			fmt.Fprintln(out)
			writePostList(out, posts, me.ID)
			return nil
		},
	}
	return cmd
}
