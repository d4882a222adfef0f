package command

import (
	"fmt"
	"hash/fnv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/adamavenir/gram/internal/core"
	"github.com/adamavenir/gram/internal/types"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

const captionWidth = 60

var (
	dimText   = color.New(color.Faint)
	boldText  = color.New(color.Bold)
	likedText = color.New(color.FgHiRed)
)

var userColors = []*color.Color{
	color.New(color.FgHiBlue),
	color.New(color.FgHiGreen),
	color.New(color.FgYellow),
	color.New(color.FgCyan),
	color.New(color.FgMagenta),
	color.New(color.FgHiWhite),
}

func userColor(username string) *color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(username)))
	return userColors[int(h.Sum32()%uint32(len(userColors)))]
}

func formatAuthor(a types.Author) string {
	name := a.Username
	if name == "" {
		name = a.ID
	}
	return userColor(name).Sprint("@" + name)
}

// compactCount renders large counts as 1.2k.
func compactCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	value, prefix := humanize.ComputeSI(float64(n))
	return strings.TrimSuffix(strconv.FormatFloat(value, 'f', 1, 64), ".0") + prefix
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// FormatPostLine renders one post as a single table row.
func FormatPostLine(post types.Post, viewerID string) string {
	caption := strings.Join(strings.Fields(post.Caption), " ")
	caption = ansi.Truncate(caption, captionWidth, "…")
	heart := "♡"
	if post.LikedBy(viewerID) {
		heart = likedText.Sprint("♥")
	}
	line := fmt.Sprintf("%s  %s  %s", dimText.Sprint(post.ID), formatAuthor(post.Author), caption)
	meta := fmt.Sprintf("%s %s  💬 %s", heart, compactCount(post.LikeCount()), humanize.Comma(int64(post.CommentCount())))
	if when := formatWhen(post.CreatedAt); when != "" {
		meta += "  " + dimText.Sprint(when)
	}
	return line + "  " + meta
}

func writePostList(w io.Writer, posts []types.Post, viewerID string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts")
		return
	}
	for _, post := range posts {
		fmt.Fprintln(w, FormatPostLine(post, viewerID))
	}
}

func writePostDetail(w io.Writer, post types.Post, viewerID string, media core.MediaResolver) {
	header := formatAuthor(post.Author)
	if when := formatWhen(post.CreatedAt); when != "" {
		header += "  " + dimText.Sprint(when)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintf(w, "%s %s\n", dimText.Sprint("id"), post.ID)
	if post.Image != "" {
		fmt.Fprintf(w, "%s %s\n", dimText.Sprint("image"), media.Resolve(post.Image))
	}
	if post.Caption != "" {
		fmt.Fprintf(w, "\n%s\n", post.Caption)
	}

	likes := fmt.Sprintf("%s likes", humanize.Comma(int64(post.LikeCount())))
	if post.LikedBy(viewerID) {
		likes = likedText.Sprint("♥ ") + likes
	}
	fmt.Fprintf(w, "\n%s  %s comments\n", likes, humanize.Comma(int64(post.CommentCount())))
	for _, c := range post.Comments {
		mark := ""
		if c.LikedBy(viewerID) {
			mark = likedText.Sprint(" ♥")
		}
		fmt.Fprintf(w, "  %s %s %s%s\n", dimText.Sprint(c.ID), formatAuthor(c.Author), c.Text, mark)
	}
}

func writeProfile(w io.Writer, view types.ProfileView, viewer types.Profile) {
	u := view.User
	title := boldText.Sprint("@" + u.Username)
	if u.FullName != "" {
		title += "  " + u.FullName
	}
	if viewer.ID != "" && viewer.ID != u.ID && viewer.Follows(u.ID) {
		title += "  " + dimText.Sprint("(following)")
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "%s posts  %s followers  %s following\n",
		humanize.Comma(int64(view.Stats.Posts)),
		humanize.Comma(int64(view.Stats.Followers)),
		humanize.Comma(int64(view.Stats.Following)))
	if u.About != "" {
		fmt.Fprintln(w, u.About)
	}
	if u.Website != "" {
		fmt.Fprintln(w, dimText.Sprint(u.Website))
	}
	fmt.Fprintf(w, "%s %s\n", dimText.Sprint("id"), u.ID)
}
