package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/adamavenir/gram/internal/types"
	"github.com/gobwas/glob"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultLimit = 20

type ToolContext struct {
	Session *app.Session
}

type listArgs struct {
	Author string `json:"author,omitempty" jsonschema:"Only posts whose author username matches this glob, e.g. ali*"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of posts to return (default: 20)"`
}

type profileArgs struct {
	Username string `json:"username" jsonschema:"Username to show, with or without a leading @"`
}

type postArgs struct {
	PostID string `json:"post_id" jsonschema:"Post id"`
}

type createArgs struct {
	ImagePath string `json:"image_path" jsonschema:"Path to a local image file"`
	Caption   string `json:"caption,omitempty" jsonschema:"Caption text (2200 characters max)"`
}

type commentArgs struct {
	PostID string `json:"post_id" jsonschema:"Post id"`
	Text   string `json:"text" jsonschema:"Comment text"`
}

type commentLikeArgs struct {
	PostID    string `json:"post_id" jsonschema:"Post id"`
	CommentID string `json:"comment_id" jsonschema:"Comment id"`
}

type captionArgs struct {
	PostID  string `json:"post_id" jsonschema:"Post id"`
	Caption string `json:"caption" jsonschema:"New caption"`
}

// RegisterTools registers MCP tools for gram.
func RegisterTools(server *mcp.Server, tc *ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_feed",
		Description: "List recent posts from people the user follows.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, any, error) {
		posts, err := tc.Session.Client.Feed(ctx)
		return tc.handleList("Feed", posts, err, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_explore",
		Description: "List recent posts from everyone.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, any, error) {
		posts, err := tc.Session.Client.Explore(ctx)
		return tc.handleList("Explore", posts, err, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_profile",
		Description: "Show a user's profile, follower counts and posts.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args profileArgs) (*mcp.CallToolResult, any, error) {
		return tc.handleProfile(ctx, args.Username), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_post_get",
		Description: "Show one post with its comments.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args postArgs) (*mcp.CallToolResult, any, error) {
		post, err := tc.Session.Client.GetPost(ctx, strings.TrimSpace(args.PostID))
		if err != nil {
			return errorResult(err), nil, nil
		}
		return toolResult(formatPostDetail(*post, tc.Session.Me().ID, tc.Session.Media.Resolve(post.Image)), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_post_create",
		Description: "Share a photo from a local file with an optional caption.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args createArgs) (*mcp.CallToolResult, any, error) {
		return tc.handleCreate(ctx, args), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_post_delete",
		Description: "Delete one of the user's own posts.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args postArgs) (*mcp.CallToolResult, any, error) {
		if err := tc.Session.Coord.DeletePost(ctx, args.PostID); err != nil {
			return errorResult(err), nil, nil
		}
		return toolResult(fmt.Sprintf("Deleted post %s", strings.TrimSpace(args.PostID)), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_like",
		Description: "Like a post, or unlike it if already liked.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args postArgs) (*mcp.CallToolResult, any, error) {
		post, err := tc.Session.Coord.ToggleLike(ctx, args.PostID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		verb := "Unliked"
		if post.LikedBy(tc.Session.Me().ID) {
			verb = "Liked"
		}
		return toolResult(fmt.Sprintf("%s post %s (%d likes)", verb, post.ID, post.LikeCount()), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_comment",
		Description: "Add a comment to a post.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args commentArgs) (*mcp.CallToolResult, any, error) {
		post, err := tc.Session.Coord.AddComment(ctx, args.PostID, args.Text)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return toolResult(fmt.Sprintf("Commented on post %s (%d comments)", post.ID, post.CommentCount()), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_comment_like",
		Description: "Like a comment, or unlike it if already liked.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args commentLikeArgs) (*mcp.CallToolResult, any, error) {
		post, err := tc.Session.Coord.ToggleCommentLike(ctx, args.PostID, args.CommentID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		verb := "Updated like on"
		if c, ok := post.Comment(args.CommentID); ok {
			verb = "Unliked"
			if c.LikedBy(tc.Session.Me().ID) {
				verb = "Liked"
			}
		}
		return toolResult(fmt.Sprintf("%s comment %s", verb, args.CommentID), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_caption",
		Description: "Replace the caption of one of the user's posts.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args captionArgs) (*mcp.CallToolResult, any, error) {
		post, err := tc.Session.Coord.EditCaption(ctx, args.PostID, args.Caption)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return toolResult(fmt.Sprintf("Updated caption on post %s", post.ID), false), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "gram_follow",
		Description: "Follow a user, or unfollow if already following.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args profileArgs) (*mcp.CallToolResult, any, error) {
		return tc.handleFollow(ctx, args.Username), nil, nil
	})
}

func (tc *ToolContext) handleList(title string, posts []types.Post, err error, args listArgs) *mcp.CallToolResult {
	if err != nil {
		return errorResult(err)
	}
	pattern := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(args.Author), "@"))
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return toolError(fmt.Sprintf("Error: invalid author pattern %q", args.Author))
		}
		filtered := posts[:0:0]
		for _, p := range posts {
			if g.Match(strings.ToLower(p.Author.Username)) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	if len(posts) == 0 {
		return toolResult(fmt.Sprintf("%s: no posts", title), false)
	}
	return toolResult(fmt.Sprintf("%s (%d):\n%s", title, len(posts), formatPosts(posts, tc.Session.Me().ID)), false)
}

func (tc *ToolContext) handleProfile(ctx context.Context, username string) *mcp.CallToolResult {
	username = sanitizeUsername(username)
	if username == "" {
		return toolError("Error: username is required")
	}
	view, err := tc.Session.Client.GetProfile(ctx, username)
	if err != nil {
		return errorResult(err)
	}
	posts, err := tc.Session.Client.UserPosts(ctx, username)
	if err != nil {
		return errorResult(err)
	}
	me := tc.Session.Me()
	var b strings.Builder
	b.WriteString(formatProfile(*view, me.Follows(view.User.ID)))
	if len(posts) > 0 {
		b.WriteString("\n\n")
		b.WriteString(formatPosts(posts, me.ID))
	}
	return toolResult(b.String(), false)
}

func (tc *ToolContext) handleCreate(ctx context.Context, args createArgs) *mcp.CallToolResult {
	d := tc.Session.CreateDialog()
	d.Open()
	if err := d.SetImage(strings.TrimSpace(args.ImagePath)); err != nil {
		return toolError(fmt.Sprintf("Error: cannot read image: %v", err))
	}
	d.SetCaption(args.Caption)
	if err := d.Submit(ctx); err != nil {
		return errorResult(err)
	}
	post := d.Created()
	if post == nil {
		return toolError("Error: server returned no post")
	}
	return toolResult(fmt.Sprintf("Shared post %s", post.ID), false)
}

func (tc *ToolContext) handleFollow(ctx context.Context, username string) *mcp.CallToolResult {
	username = sanitizeUsername(username)
	if username == "" {
		return toolError("Error: username is required")
	}
	header := tc.Session.ProfileHeader(username)
	if err := header.Mount(ctx); err != nil {
		return errorResult(err)
	}
	defer header.Unmount()
	if err := header.Follow(ctx); err != nil {
		return errorResult(err)
	}
	state := header.State()
	verb := "Unfollowed"
	if state.Following {
		verb = "Following"
	}
	return toolResult(fmt.Sprintf("%s @%s (%d followers)", verb, state.View.User.Username, state.View.Stats.Followers), false)
}

func errorResult(err error) *mcp.CallToolResult {
	return toolError("Error: " + coordinator.Message(coordinator.Normalize(err)))
}

func toolResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func toolError(text string) *mcp.CallToolResult {
	return toolResult(text, true)
}

func sanitizeUsername(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(value), "@")
}
