package models

import "time"

// Post represents a photo post. User is only set on hydrated copies.
type Post struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	User      *User     `json:"user,omitempty" yaml:"-"`
	Images    []string  `json:"images" yaml:"images"`
	Caption   string    `json:"caption" yaml:"caption"`
	Likes     []string  `json:"likes" yaml:"likes"`
	Comments  []Comment `json:"comments" yaml:"-"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Location  string    `json:"location,omitempty" yaml:"location,omitempty"`
	Hashtags  []string  `json:"hashtags" yaml:"hashtags"`
	IsVideo   bool      `json:"isVideo,omitempty" yaml:"isVideo,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
}

// Clone returns a deep copy of p.
func (p Post) Clone() Post {
	if p.User != nil {
		u := p.User.Clone()
		p.User = &u
	}
	p.Images = cloneIDs(p.Images)
	p.Likes = cloneIDs(p.Likes)
	p.Hashtags = cloneIDs(p.Hashtags)
	comments := make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = c.Clone()
	}
	p.Comments = comments
	return p
}

// LikedBy reports whether userID is in the post's like set.
func (p Post) LikedBy(userID string) bool {
	return containsID(p.Likes, userID)
}
