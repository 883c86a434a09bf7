package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapgram/internal/auth"
	"snapgram/internal/clock"
	"snapgram/internal/config"
	"snapgram/internal/fixtures"
	"snapgram/internal/models"
	"snapgram/internal/posts"
	"snapgram/internal/storage"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	a := New(Options{
		Config:   cfg,
		Fixtures: fixtures.MustNew(),
		Storage:  storage.NewMemory(),
		Clock:    clock.NewFake(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)),
	})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestBootstrap_LoadsPostsAndRestoresSession(t *testing.T) {
	a := newTestApp(t, nil)
	require.True(t, a.Auth.Login(context.Background(), models.LoginForm{Username: "johndoe", Password: "password123"}).Success)

	// A second app over the same storage is a page reload.
	b := New(Options{Config: a.Config, Fixtures: a.Fixtures, Storage: a.Storage, Clock: a.Clock})
	require.NoError(t, b.Bootstrap(context.Background()))

	u, ok := b.Auth.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "1", u.ID)
	assert.Len(t, b.Posts.State().Posts, 5)
}

func TestBootstrap_LoggedOut(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Bootstrap(context.Background()))
	assert.False(t, a.Auth.State().IsAuthenticated)
	assert.Len(t, a.Posts.State().Posts, 5)
}

func TestOnChange_ForwardsBothContainers(t *testing.T) {
	a := newTestApp(t, nil)

	var mu sync.Mutex
	var events []Event
	off := a.OnChange(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	require.NoError(t, a.Bootstrap(context.Background()))
	a.Auth.Logout(context.Background())
	off()
	a.Posts.LikePost("p1", "1")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, EventPostsState, events[0].Type)
	assert.True(t, events[0].Payload.(posts.State).Loading)
	assert.Equal(t, EventPostsState, events[1].Type)
	assert.Len(t, events[1].Payload.(posts.State).Posts, 5)
	assert.Equal(t, EventAuthState, events[2].Type)
	assert.False(t, events[2].Payload.(auth.State).IsAuthenticated)
}

func TestLookupUser_IncludesSignupUser(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, a.Bootstrap(ctx))

	require.True(t, a.Auth.Signup(ctx, models.SignupForm{
		Username: "newbie", Email: "n@example.com", DisplayName: "New Bie", Password: "x", ConfirmPassword: "x",
	}).Success)
	me, _ := a.Auth.CurrentUser()

	got, ok := a.LookupUser(me.ID)
	require.True(t, ok)
	assert.Equal(t, "newbie", got.Username)

	p, res := a.Posts.CreatePost(ctx, models.PostForm{Caption: "first! #hello"}, me.ID)
	require.True(t, res.Success)
	require.NotNil(t, p.User)
	assert.Equal(t, "newbie", p.User.Username)
	assert.NotEqual(t, me.ID, p.ID, "ids are shared across containers")

	_, ok = a.LookupUser("nobody")
	assert.False(t, ok)
}

func TestSocialFeedFlag(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.FeatureFlags = "social_feed=on" })
	require.NoError(t, a.Bootstrap(context.Background()))
	assert.Len(t, a.Posts.FeedPosts("1"), 3)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.StorageDriver = config.DriverFile
	cfg.StoragePath = filepath.Join(t.TempDir(), "session.json")
	cfg.SyntheticUsers = 2
	cfg.SyntheticPosts = 4
	cfg.FetchDelayMS = 0
	cfg.LoginDelayMS = 0

	a, err := FromConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Bootstrap(context.Background()))
	assert.Len(t, a.Posts.State().Posts, 9)
	assert.Len(t, a.Fixtures.Users(), 7)

	require.True(t, a.Auth.Login(context.Background(), models.LoginForm{Username: "johndoe", Password: "password123"}).Success)
	_, ok, err := a.Storage.GetItem(context.Background(), storage.SessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFromConfig_BadFixturesPath(t *testing.T) {
	cfg := config.Default()
	cfg.FixturesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := FromConfig(context.Background(), cfg)
	assert.Error(t, err)
}
