package models

import "time"

// Story is a short-lived image or video shown at the top of the feed.
type Story struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId" yaml:"userId"`
	User      *User     `json:"user,omitempty" yaml:"-"`
	ImageURL  string    `json:"imageUrl" yaml:"imageUrl"`
	VideoURL  string    `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
	Text      string    `json:"text,omitempty" yaml:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" yaml:"expiresAt"`
	Viewers   []string  `json:"viewers" yaml:"viewers"`
}

// Clone returns a deep copy of s.
func (s Story) Clone() Story {
	if s.User != nil {
		u := s.User.Clone()
		s.User = &u
	}
	s.Viewers = cloneIDs(s.Viewers)
	return s
}
