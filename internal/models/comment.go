package models

import "time"

// Comment is a comment on a post. Replies is part of the shape but is never
// populated by any operation.
type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	User      *User     `json:"user,omitempty" yaml:"-"`
	PostID    string    `json:"postId" yaml:"postId"`
	Content   string    `json:"content" yaml:"content"`
	Likes     []string  `json:"likes" yaml:"likes"`
	Replies   []Comment `json:"replies" yaml:"replies"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// Clone returns a deep copy of c.
func (c Comment) Clone() Comment {
	if c.User != nil {
		u := c.User.Clone()
		c.User = &u
	}
	c.Likes = cloneIDs(c.Likes)
	replies := make([]Comment, len(c.Replies))
	for i, r := range c.Replies {
		replies[i] = r.Clone()
	}
	c.Replies = replies
	return c
}
