package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// Author is the user attached to a post or comment. The API sends either a
// populated user object or a bare id.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		id, err := decodeID(data)
		if err != nil {
			return err
		}
		*a = Author{ID: id}
		return nil
	}
	var raw struct {
		UID      json.RawMessage `json:"_id"`
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
		FullName string          `json:"fullName"`
		Avatar   string          `json:"avatar"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := firstID(raw.UID, raw.ID)
	if err != nil {
		return err
	}
	*a = Author{ID: id, Username: raw.Username, FullName: raw.FullName, Avatar: raw.Avatar}
	return nil
}

// Comment is a comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	Likes     IDSet     `json:"likes"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	type alias Comment
	var raw struct {
		alias
		UID  json.RawMessage `json:"_id"`
		ID   json.RawMessage `json:"id"`
		User *Author         `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := firstID(raw.UID, raw.ID)
	if err != nil {
		return err
	}
	*c = Comment(raw.alias)
	c.ID = id
	if c.Author.ID == "" && raw.User != nil {
		c.Author = *raw.User
	}
	return nil
}

// LikedBy reports whether userID likes the comment.
func (c Comment) LikedBy(userID string) bool {
	return userID != "" && c.Likes.Contains(userID)
}

// Post is a post snapshot as returned by the API.
type Post struct {
	ID            string    `json:"id"`
	Author        Author    `json:"author"`
	Image         string    `json:"image,omitempty"`
	Caption       string    `json:"caption"`
	Likes         IDSet     `json:"likes"`
	Comments      []Comment `json:"comments"`
	LikesCount    *int      `json:"likesCount,omitempty"`
	CommentsCount *int      `json:"commentsCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

func (p *Post) UnmarshalJSON(data []byte) error {
	type alias Post
	var raw struct {
		alias
		UID  json.RawMessage `json:"_id"`
		ID   json.RawMessage `json:"id"`
		User *Author         `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := firstID(raw.UID, raw.ID)
	if err != nil {
		return err
	}
	*p = Post(raw.alias)
	p.ID = id
	if p.Author.ID == "" && raw.User != nil {
		p.Author = *raw.User
	}
	return nil
}

// Ref returns the post's entity reference.
func (p Post) Ref() Ref { return PostRef(p.ID) }

// LikeCount prefers the server-provided count and falls back to the like set.
func (p Post) LikeCount() int {
	if p.LikesCount != nil {
		return *p.LikesCount
	}
	return len(p.Likes)
}

// CommentCount prefers the server-provided count and falls back to the comments.
func (p Post) CommentCount() int {
	if p.CommentsCount != nil {
		return *p.CommentsCount
	}
	return len(p.Comments)
}

// LikedBy reports whether userID likes the post.
func (p Post) LikedBy(userID string) bool {
	return userID != "" && p.Likes.Contains(userID)
}

// Comment finds a comment by id.
func (p Post) Comment(id string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// WithLikeToggled returns a copy with userID's like flipped and the count adjusted.
func (p Post) WithLikeToggled(userID string) Post {
	out := p.Clone()
	liked := out.Likes.Contains(userID)
	if liked {
		out.Likes = out.Likes.Without(userID)
	} else {
		out.Likes = out.Likes.With(userID)
	}
	if out.LikesCount != nil {
		n := *out.LikesCount + 1
		if liked {
			n = *out.LikesCount - 1
		}
		if n < 0 {
			n = 0
		}
		out.LikesCount = &n
	}
	return out
}

// WithCommentLikeToggled returns a copy with userID's like on commentID flipped.
func (p Post) WithCommentLikeToggled(commentID, userID string) Post {
	out := p.Clone()
	for i, c := range out.Comments {
		if c.ID != commentID {
			continue
		}
		if c.Likes.Contains(userID) {
			out.Comments[i].Likes = c.Likes.Without(userID)
		} else {
			out.Comments[i].Likes = c.Likes.With(userID)
		}
	}
	return out
}

// Clone deep-copies the mutable parts of the snapshot.
func (p Post) Clone() Post {
	out := p
	out.Likes = p.Likes.Clone()
	if p.Comments != nil {
		out.Comments = make([]Comment, len(p.Comments))
		for i, c := range p.Comments {
			c.Likes = c.Likes.Clone()
			out.Comments[i] = c
		}
	}
	if p.LikesCount != nil {
		n := *p.LikesCount
		out.LikesCount = &n
	}
	if p.CommentsCount != nil {
		n := *p.CommentsCount
		out.CommentsCount = &n
	}
	return out
}

// Profile is a user profile snapshot. The current user ("me") carries its
// following set, which is what follow state is derived from.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName,omitempty"`
	Email     string `json:"email,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	About     string `json:"about,omitempty"`
	Website   string `json:"website,omitempty"`
	Following IDSet  `json:"following"`
	Followers IDSet  `json:"followers"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	var raw struct {
		alias
		UID json.RawMessage `json:"_id"`
		ID  json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := firstID(raw.UID, raw.ID)
	if err != nil {
		return err
	}
	*p = Profile(raw.alias)
	p.ID = id
	return nil
}

// Ref returns the profile's entity reference.
func (p Profile) Ref() Ref { return UserRef(p.ID) }

// Follows reports whether the profile's following set contains userID.
func (p Profile) Follows(userID string) bool {
	return userID != "" && p.Following.Contains(userID)
}

// Clone deep-copies the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Following = p.Following.Clone()
	out.Followers = p.Followers.Clone()
	return out
}

// ProfileStats are the counters shown in a profile header.
type ProfileStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// ProfileView is the public view of a user returned by GET /users/:username.
type ProfileView struct {
	User  Profile      `json:"user"`
	Stats ProfileStats `json:"stats"`
}

// ProfileUpdate holds the editable text fields of the current user.
type ProfileUpdate struct {
	Username string `json:"username"`
	Website  string `json:"website"`
	About    string `json:"about"`
}
