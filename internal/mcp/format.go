package mcp

import (
	"fmt"
	"strings"

	"github.com/adamavenir/gram/internal/types"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const captionWidth = 80

func formatPosts(posts []types.Post, viewerID string) string {
	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		caption := ansi.Truncate(strings.Join(strings.Fields(p.Caption), " "), captionWidth, "...")
		liked := ""
		if p.LikedBy(viewerID) {
			liked = ", liked"
		}
		line := fmt.Sprintf("[%s] @%s: %s (%d likes, %d comments%s", p.ID, p.Author.Username, caption, p.LikeCount(), p.CommentCount(), liked)
		if !p.CreatedAt.IsZero() {
			line += ", " + humanize.Time(p.CreatedAt)
		}
		lines = append(lines, line+")")
	}
	return strings.Join(lines, "\n")
}

func formatPostDetail(p types.Post, viewerID, imageURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] @%s", p.ID, p.Author.Username)
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, " (%s)", humanize.Time(p.CreatedAt))
	}
	fmt.Fprintf(&b, "\nimage: %s", imageURL)
	if p.Caption != "" {
		fmt.Fprintf(&b, "\n%s", p.Caption)
	}
	fmt.Fprintf(&b, "\n%d likes", p.LikeCount())
	if p.LikedBy(viewerID) {
		b.WriteString(" (you liked this)")
	}
	fmt.Fprintf(&b, ", %d comments", p.CommentCount())
	for _, c := range p.Comments {
		fmt.Fprintf(&b, "\n  [%s] @%s: %s (%d likes)", c.ID, c.Author.Username, c.Text, len(c.Likes))
	}
	return b.String()
}

func formatProfile(view types.ProfileView, following bool) string {
	u := view.User
	var b strings.Builder
	fmt.Fprintf(&b, "@%s", u.Username)
	if u.FullName != "" {
		fmt.Fprintf(&b, " (%s)", u.FullName)
	}
	if following {
		b.WriteString(" [following]")
	}
	fmt.Fprintf(&b, "\n%d posts, %d followers, %d following", view.Stats.Posts, view.Stats.Followers, view.Stats.Following)
	if u.About != "" {
		fmt.Fprintf(&b, "\n%s", u.About)
	}
	if u.Website != "" {
		fmt.Fprintf(&b, "\n%s", u.Website)
	}
	return b.String()
}
