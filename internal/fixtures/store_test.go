package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapgram/internal/models"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func summarizePosts(posts []models.Post) []byte {
	var b strings.Builder
	for _, p := range posts {
		author := "?"
		if p.User != nil {
			author = p.User.Username
		}
		commenters := []string{}
		for _, c := range p.Comments {
			if c.User != nil {
				commenters = append(commenters, c.User.Username)
			}
		}
		fmt.Fprintf(&b, "%s by=%s at=%s images=%d likes=%s comments=[%s] tags=%s\n",
			p.ID, author, p.CreatedAt.Format(time.RFC3339), len(p.Images),
			strings.Join(p.Likes, ","), strings.Join(commenters, ","), strings.Join(p.Hashtags, ","))
	}
	return []byte(b.String())
}

func TestPostsWithUsers_Golden(t *testing.T) {
	s := MustNew()
	golden(t).Assert(t, "hydrated_posts", summarizePosts(s.PostsWithUsers()))
}

func TestNotificationsWithUsers_Golden(t *testing.T) {
	s := MustNew()
	var b strings.Builder
	for _, n := range s.NotificationsWithUsers() {
		from := "?"
		if n.TriggeredByUser != nil {
			from = n.TriggeredByUser.Username
		}
		fmt.Fprintf(&b, "%s to=%s type=%s from=%s post=%s read=%t\n", n.ID, n.UserID, n.Type, from, n.PostID, n.Read)
	}
	golden(t).Assert(t, "hydrated_notifications", []byte(b.String()))
}

func TestCanonicalCounts(t *testing.T) {
	s := MustNew()
	assert.Len(t, s.Users(), 5)
	assert.Len(t, s.PostsWithUsers(), 5)
	assert.Len(t, s.StoriesWithUsers(), 3)
	assert.Len(t, s.Messages(), 3)
	assert.Len(t, s.Chats(), 2)
	assert.Len(t, s.NotificationsWithUsers(), 3)
}

func TestPostsWithUsers_FreshCopies(t *testing.T) {
	s := MustNew()
	a := s.PostsWithUsers()
	a[0].Likes[0] = "mutated"
	a[0].User.Username = "mutated"
	a[0].Comments[0].User.Followers[0] = "mutated"
	a[0].Comments = nil

	b := s.PostsWithUsers()
	assert.Equal(t, "2", b[0].Likes[0])
	assert.Equal(t, "johndoe", b[0].User.Username)
	require.Len(t, b[0].Comments, 2)
	assert.Equal(t, "1", b[0].Comments[0].User.Followers[0])
}

func TestUserByUsername(t *testing.T) {
	s := MustNew()

	u, ok := s.UserByUsername("johndoe")
	require.True(t, ok)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "john@example.com", u.Email)
	assert.True(t, u.Verified)
	assert.Equal(t, time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC), u.CreatedAt.UTC())

	_, ok = s.UserByUsername("JohnDoe")
	assert.False(t, ok, "lookup is case-sensitive")
	_, ok = s.UserByUsername("nobody")
	assert.False(t, ok)
}

func TestUserByIDAndFindUser(t *testing.T) {
	s := MustNew()

	u, ok := s.UserByID("4")
	require.True(t, ok)
	assert.Equal(t, "sarah_art", u.Username)
	_, ok = s.UserByID("99")
	assert.False(t, ok)

	u, ok = s.FindUser(func(u models.User) bool { return u.Email == "alex@example.com" })
	require.True(t, ok)
	assert.Equal(t, "5", u.ID)
	_, ok = s.FindUser(func(models.User) bool { return false })
	assert.False(t, ok)
}

func TestPostsByUserID(t *testing.T) {
	s := MustNew()

	posts := s.PostsByUserID("2")
	require.Len(t, posts, 1)
	assert.Equal(t, "p2", posts[0].ID)
	require.NotNil(t, posts[0].User)
	assert.Equal(t, "janecook", posts[0].User.Username)

	assert.Empty(t, s.PostsByUserID("99"))
	assert.NotNil(t, s.PostsByUserID("99"))
}

func TestStoriesWithUsers(t *testing.T) {
	s := MustNew()
	stories := s.StoriesWithUsers()
	require.Len(t, stories, 3)
	assert.Equal(t, "johndoe", stories[0].User.Username)
	assert.Empty(t, stories[0].Text)
	assert.Equal(t, "Fresh pasta recipe coming up!", stories[1].Text)
	assert.Equal(t, 24*time.Hour, stories[2].ExpiresAt.Sub(stories[2].CreatedAt))
}

func TestChats(t *testing.T) {
	s := MustNew()
	chats := s.Chats()
	require.Len(t, chats, 2)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "m2", chats[0].LastMessage.ID)
	require.Len(t, chats[0].Messages, 2)
	assert.Equal(t, "m1", chats[0].Messages[0].ID)

	assert.Len(t, s.ChatsFor("1"), 2)
	assert.Len(t, s.ChatsFor("3"), 1)
	assert.Empty(t, s.ChatsFor("4"))
	assert.Len(t, s.NotificationsFor("1"), 3)
	assert.Empty(t, s.NotificationsFor("2"))
}

func TestHydration_MissingUserLeavesNil(t *testing.T) {
	doc := `
users: []
posts:
  - id: x1
    userId: ghost
    images: []
    caption: hi
    likes: []
    createdAt: 2024-01-01T00:00:00Z
    hashtags: []
comments:
  - id: xc1
    userId: ghost
    postId: x1
    content: boo
    likes: []
    replies: []
    createdAt: 2024-01-01T00:00:00Z
`
	s, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	posts := s.PostsWithUsers()
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].User)
	require.Len(t, posts[0].Comments, 1)
	assert.Nil(t, posts[0].Comments[0].User)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "users: [\n"},
		{"unknown field", "users:\n  - id: \"1\"\n    shoeSize: 9\n"},
		{"duplicate user", "users:\n  - id: \"1\"\n  - id: \"1\"\n"},
		{"missing user id", "users:\n  - username: x\n"},
		{"duplicate post", "posts:\n  - id: p\n  - id: p\n"},
		{"chat unknown message", "chats:\n  - id: c\n    messageIds: [m9]\n"},
		{"bad notification type", "notifications:\n  - id: n\n    type: poke\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.yaml")
	require.NoError(t, os.WriteFile(path, canonical, 0o600))
	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, s.Users(), 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, models.IsCode(err, models.CodeInternal))
}

func TestGenerate_Deterministic(t *testing.T) {
	a := MustNew()
	b := MustNew()
	require.NoError(t, a.Generate(4, 10, 7))
	require.NoError(t, b.Generate(4, 10, 7))

	assert.Equal(t, a.Users(), b.Users())
	assert.Equal(t, a.PostsWithUsers(), b.PostsWithUsers())
	assert.Len(t, a.Users(), 9)
	assert.Len(t, a.PostsWithUsers(), 15)
}

func TestGenerate_Shape(t *testing.T) {
	s := MustNew()
	require.NoError(t, s.Generate(3, 6, 1))

	users := s.Users()
	seen := map[string]bool{}
	for _, u := range users {
		assert.False(t, seen[u.Username], "duplicate username %s", u.Username)
		seen[u.Username] = true
	}

	for _, p := range s.PostsWithUsers()[5:] {
		require.NotNil(t, p.User, "synthetic post %s must have a known author", p.ID)
		assert.True(t, strings.HasPrefix(p.User.ID, "g"))
		for _, tag := range p.Hashtags {
			assert.Contains(t, p.Caption, "#"+tag)
		}
		for _, c := range p.Comments {
			assert.Equal(t, p.ID, c.PostID)
			assert.NotNil(t, c.User)
		}
	}

	// canonical post lists are untouched
	assert.Len(t, s.PostsByUserID("1"), 1)
}

func TestGenerate_Validation(t *testing.T) {
	s := MustNew()
	assert.Error(t, s.Generate(-1, 0, 1))

	empty, err := Load(strings.NewReader("users: []\n"))
	require.NoError(t, err)
	assert.Error(t, empty.Generate(0, 3, 1))
}
