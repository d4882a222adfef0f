package feed

import (
	"github.com/adamavenir/gram/internal/events"
	"github.com/adamavenir/gram/internal/types"
)

// Outcome is the result of reconciling one event.
type Outcome int

const (
	Applied Outcome = iota
	// Duplicate: a created event for a post already held.
	Duplicate
	// Stale: the sequence number was already seen.
	Stale
	// NotFoundLocally: an update or delete for a post this collection does not hold.
	NotFoundLocally
	// Ignored: the event does not concern this collection.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Stale:
		return "stale"
	case NotFoundLocally:
		return "not-found-locally"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Collection is an ordered list of post snapshots kept consistent with
// mutation events. It keeps server order and never re-sorts. Not safe for
// concurrent use.
type Collection struct {
	posts   []types.Post
	accept  func(types.Post) bool
	lastSeq uint64
}

// NewCollection creates an empty collection. accept decides whether a
// created post belongs here; nil accepts everything.
func NewCollection(accept func(types.Post) bool) *Collection {
	return &Collection{accept: accept}
}

// Reset replaces the contents with a fresh server load. The sequence
// watermark is kept so events already applied are not applied again.
func (c *Collection) Reset(posts []types.Post) {
	c.posts = make([]types.Post, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		c.posts = append(c.posts, p.Clone())
	}
}

// Apply reconciles one event. Events carrying a sequence number at or below
// the last one applied are Stale; unstamped events (Seq 0) are always processed.
func (c *Collection) Apply(e events.Event) Outcome {
	if e.Seq != 0 {
		if e.Seq <= c.lastSeq {
			return Stale
		}
		c.lastSeq = e.Seq
	}
	if e.Entity.Kind != types.KindPost {
		return Ignored
	}

	switch e.Kind {
	case events.Created:
		if e.Post == nil {
			return Ignored
		}
		if c.index(e.Entity.ID) >= 0 {
			return Duplicate
		}
		if c.accept != nil && !c.accept(*e.Post) {
			return Ignored
		}
		c.posts = append([]types.Post{e.Post.Clone()}, c.posts...)
		return Applied
	case events.Deleted:
		i := c.index(e.Entity.ID)
		if i < 0 {
			return NotFoundLocally
		}
		c.posts = append(c.posts[:i:i], c.posts[i+1:]...)
		return Applied
	case events.Updated:
		if e.Post == nil {
			return Ignored
		}
		i := c.index(e.Entity.ID)
		if i < 0 {
			return NotFoundLocally
		}
		c.posts[i] = e.Post.Clone()
		return Applied
	default:
		return Ignored
	}
}

func (c *Collection) index(id string) int {
	for i, p := range c.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Posts returns a copy of the contents.
func (c *Collection) Posts() []types.Post {
	out := make([]types.Post, len(c.posts))
	for i, p := range c.posts {
		out[i] = p.Clone()
	}
	return out
}

// IDs returns post ids in order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.posts))
	for i, p := range c.posts {
		ids[i] = p.ID
	}
	return ids
}

// Get returns the post with id.
func (c *Collection) Get(id string) (types.Post, bool) {
	if i := c.index(id); i >= 0 {
		return c.posts[i].Clone(), true
	}
	return types.Post{}, false
}

func (c *Collection) Len() int { return len(c.posts) }

// LastSeq is the highest sequence number processed.
func (c *Collection) LastSeq() uint64 { return c.lastSeq }
