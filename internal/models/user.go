// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account in the fixture set or one synthesized by signup.
type User struct {
	ID          string    `json:"id" yaml:"id"`
	Username    string    `json:"username" yaml:"username"`
	DisplayName string    `json:"displayName" yaml:"displayName"`
	Email       string    `json:"email" yaml:"email"`
	Avatar      string    `json:"avatar" yaml:"avatar"`
	Bio         string    `json:"bio" yaml:"bio"`
	Followers   []string  `json:"followers" yaml:"followers"`
	Following   []string  `json:"following" yaml:"following"`
	PostsCount  int       `json:"postsCount" yaml:"postsCount"`
	Verified    bool      `json:"verified" yaml:"verified"`
	IsPrivate   bool      `json:"isPrivate" yaml:"isPrivate"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// Clone returns a copy of u that shares no slices with it.
func (u User) Clone() User {
	u.Followers = cloneIDs(u.Followers)
	u.Following = cloneIDs(u.Following)
	return u
}

// IsFollowing reports whether u follows the user with the given id.
func (u User) IsFollowing(userID string) bool {
	return containsID(u.Following, userID)
}

// cloneIDs copies an id list, normalizing nil to an empty list so JSON
// renders [] rather than null.
func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
