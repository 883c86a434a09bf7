package fixtures

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"snapgram/internal/models"
)

var syntheticEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generate appends users synthetic users and posts synthetic posts after the
// canonical fixtures. Output depends only on seed. Generate mutates the store
// and must run before it is shared.
func (s *Store) Generate(users, posts int, seed int64) error {
	if users < 0 || posts < 0 {
		return models.NewValidationError("synthetic counts must not be negative")
	}
	if posts > 0 && users == 0 && len(s.users) == 0 {
		return models.NewValidationError("synthetic posts need at least one user")
	}

	f := gofakeit.New(seed)
	first := len(s.users)

	for i := 0; i < users; i++ {
		u := s.fakeUser(f, first+i+1)
		s.userByID[u.ID] = len(s.users)
		s.userByUsername[u.Username] = len(s.users)
		s.users = append(s.users, u)
	}

	// Synthetic posts are authored by synthetic users when there are any so
	// the canonical accounts keep their documented post lists.
	authors := s.users[first:]
	if len(authors) == 0 {
		authors = s.users
	}

	for i := 0; i < posts; i++ {
		author := authors[f.Number(0, len(authors)-1)]
		s.posts = append(s.posts, s.fakePost(f, author, i+1))
	}
	return nil
}

func (s *Store) fakeUser(f *gofakeit.Faker, n int) models.User {
	id := fmt.Sprintf("g%d", n)
	username := strings.ToLower(f.Username())
	for {
		if _, taken := s.userByUsername[username]; !taken {
			break
		}
		username = fmt.Sprintf("%s%d", username, f.Number(100, 999))
	}
	display := f.FirstName() + " " + f.LastName()

	u := models.User{
		ID:          id,
		Username:    username,
		DisplayName: display,
		Email:       username + "@example.net",
		Avatar:      "https://placehold.co/150x150?text=" + url.QueryEscape(display),
		Bio:         f.Sentence(8),
		Followers:   []string{},
		Following:   []string{},
		PostsCount:  0,
		Verified:    false,
		IsPrivate:   false,
		CreatedAt:   f.DateRange(syntheticEpoch.AddDate(-1, 0, 0), syntheticEpoch),
	}

	// Follow a couple of existing accounts so social_feed has something to show.
	if len(s.users) > 0 {
		for k := 0; k < 2; k++ {
			target := s.users[f.Number(0, len(s.users)-1)].ID
			if !containsString(u.Following, target) {
				u.Following = append(u.Following, target)
			}
		}
	}
	return u
}

func (s *Store) fakePost(f *gofakeit.Faker, author models.User, n int) models.Post {
	id := fmt.Sprintf("gp%d", n)

	tags := []string{}
	for k := 0; k < 3; k++ {
		w := strings.ToLower(f.Noun())
		if w != "" && !strings.ContainsAny(w, " -'") && !containsString(tags, w) {
			tags = append(tags, w)
		}
	}
	caption := f.Sentence(12)
	for _, t := range tags {
		caption += " #" + t
	}

	likes := []string{}
	for k := 0; k < f.Number(0, 4); k++ {
		liker := s.users[f.Number(0, len(s.users)-1)].ID
		if !containsString(likes, liker) {
			likes = append(likes, liker)
		}
	}

	p := models.Post{
		ID:        id,
		UserID:    author.ID,
		Images:    []string{"https://placehold.co/600x600?text=" + url.QueryEscape(f.Sentence(4))},
		Caption:   caption,
		Likes:     likes,
		Comments:  []models.Comment{},
		CreatedAt: f.DateRange(syntheticEpoch, syntheticEpoch.AddDate(0, 0, 30)),
		Hashtags:  tags,
	}
	if f.Bool() {
		p.Location = f.City()
	}

	for k := 0; k < f.Number(0, 2); k++ {
		p.Comments = append(p.Comments, models.Comment{
			ID:        fmt.Sprintf("%s-c%d", id, k+1),
			UserID:    s.users[f.Number(0, len(s.users)-1)].ID,
			PostID:    id,
			Content:   f.Sentence(6),
			Likes:     []string{},
			Replies:   []models.Comment{},
			CreatedAt: p.CreatedAt.Add(time.Duration(k+1) * time.Hour),
		})
	}
	return p
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
