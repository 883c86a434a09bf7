package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapgram/internal/app"
	"snapgram/internal/auth"
	"snapgram/internal/clock"
	"snapgram/internal/config"
	"snapgram/internal/fixtures"
	"snapgram/internal/models"
	"snapgram/internal/posts"
	"snapgram/internal/storage"
)

func newTestServer(t *testing.T, store storage.LocalStorage) *Server {
	t.Helper()
	if store == nil {
		store = storage.NewMemory()
	}
	a := app.New(app.Options{
		Config:   config.Default(),
		Fixtures: fixtures.MustNew(),
		Storage:  store,
		Clock:    clock.NewFake(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, a.Bootstrap(context.Background()))
	s := NewServer(a, nil)
	t.Cleanup(func() {
		if s.detach != nil {
			s.detach()
		}
		_ = a.Close()
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Handler().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func login(t *testing.T, s *Server) {
	t.Helper()
	resp, _ := doJSON(t, s, http.MethodPost, "/api/auth/login",
		models.LoginForm{Username: "johndoe", Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type brokenStorage struct{}

func (brokenStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}
func (brokenStorage) SetItem(context.Context, string, string) error { return errors.New("backend down") }
func (brokenStorage) RemoveItem(context.Context, string) error      { return errors.New("backend down") }
func (brokenStorage) Close() error                                  { return nil }

func TestHealthChecks(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, s, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var ready map[string]any
	require.NoError(t, json.Unmarshal(body, &ready))
	assert.Equal(t, "healthy", ready["status"])
	assert.EqualValues(t, 5, ready["posts"])
	assert.Contains(t, ready, "feature_flags")
}

func TestReadinessCheck_StorageDown(t *testing.T) {
	s := newTestServer(t, brokenStorage{})

	resp, body := doJSON(t, s, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"storage":"unhealthy"`)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := doJSON(t, s, http.MethodGet, "/api/auth/me", nil)
	var st auth.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.False(t, st.IsAuthenticated)

	resp, body := doJSON(t, s, http.MethodPost, "/api/auth/login",
		models.LoginForm{Username: "johndoe", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), auth.MsgInvalidCredentials)

	resp, body = doJSON(t, s, http.MethodPost, "/api/auth/login",
		models.LoginForm{Username: "john@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res authResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	require.NotNil(t, res.State.CurrentUser)
	assert.Equal(t, "johndoe", res.State.CurrentUser.Username)

	resp, _ = doJSON(t, s, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = doJSON(t, s, http.MethodGet, "/api/auth/me", nil)
	require.NoError(t, json.Unmarshal(body, &st))
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.CurrentUser)
}

func TestSignup(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodPost, "/api/auth/signup", models.SignupForm{
		Username: "johndoe", Email: "x@example.com", DisplayName: "X", Password: "a", ConfirmPassword: "a",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), auth.MsgUserExists)

	resp, body = doJSON(t, s, http.MethodPost, "/api/auth/signup", models.SignupForm{
		Username: "newbie", Email: "newbie@example.com", DisplayName: "New Person", Password: "a", ConfirmPassword: "a",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res authResponse
	require.NoError(t, json.Unmarshal(body, &res))
	require.NotNil(t, res.State.CurrentUser)

	resp, body = doJSON(t, s, http.MethodGet, "/api/users/by-username/newbie", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), res.State.CurrentUser.ID)
}

func TestLoginBadBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Handler().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostMutationsRequireLogin(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodPost, "/api/posts/p1/like"},
		{http.MethodDelete, "/api/posts/p1/like"},
		{http.MethodPost, "/api/posts/p1/comments"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, body := doJSON(t, s, tc.method, tc.path, map[string]string{})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, string(body), models.CodeUnauthorized)
		})
	}
}

func TestCreatePostAndFeed(t *testing.T) {
	s := newTestServer(t, nil)
	login(t, s)

	resp, body := doJSON(t, s, http.MethodPost, "/api/posts", models.PostForm{
		Images:  []models.ImageInput{{Name: "pier.jpg"}},
		Caption: "Evening at the pier #beach #sunset",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Post
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "1", created.UserID)
	assert.Equal(t, []string{"beach", "sunset"}, created.Hashtags)
	assert.Equal(t, []string{posts.ImageURL(0, "pier.jpg")}, created.Images)

	_, body = doJSON(t, s, http.MethodGet, "/api/posts", nil)
	var st posts.State
	require.NoError(t, json.Unmarshal(body, &st))
	require.Len(t, st.Posts, 6)
	assert.Equal(t, created.ID, st.Posts[0].ID)

	_, body = doJSON(t, s, http.MethodGet, "/api/feed", nil)
	var feed []models.Post
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 6)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt))
	}
}

func TestLikeToggleAndUnlike(t *testing.T) {
	s := newTestServer(t, nil)
	login(t, s)

	// johndoe already likes p2, so the first like removes it.
	resp, body := doJSON(t, s, http.MethodPost, "/api/posts/p2/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p models.Post
	require.NoError(t, json.Unmarshal(body, &p))
	assert.False(t, p.LikedBy("1"))

	_, body = doJSON(t, s, http.MethodPost, "/api/posts/p2/like", nil)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.True(t, p.LikedBy("1"))

	resp, body = doJSON(t, s, http.MethodDelete, "/api/posts/p2/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.False(t, p.LikedBy("1"))

	resp, body = doJSON(t, s, http.MethodPost, "/api/posts/nope/like", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), models.CodeNotFound)
}

func TestEditAndDeletePost(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, http.MethodPut, "/api/posts/p1", map[string]string{"caption": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login(t, s)

	resp, body := doJSON(t, s, http.MethodPut, "/api/posts/p1", map[string]string{"caption": "Edited #new"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p models.Post
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Edited #new", p.Caption)
	assert.Equal(t, []string{"new"}, p.Hashtags)

	resp, _ = doJSON(t, s, http.MethodPut, "/api/posts/p1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, s, http.MethodPut, "/api/posts/p2", map[string]string{"caption": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), models.CodeForbidden)

	resp, _ = doJSON(t, s, http.MethodPut, "/api/posts/missing", map[string]string{"caption": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodDelete, "/api/posts/p2", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, s, http.MethodDelete, "/api/posts/p1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = doJSON(t, s, http.MethodGet, "/api/posts", nil)
	var st posts.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Len(t, st.Posts, 4)

	resp, _ = doJSON(t, s, http.MethodDelete, "/api/posts/p1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddComment(t *testing.T) {
	s := newTestServer(t, nil)
	login(t, s)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/posts/p1/comments", map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, s, http.MethodPost, "/api/posts/p1/comments", map[string]string{"content": "Nice view"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cm models.Comment
	require.NoError(t, json.Unmarshal(body, &cm))
	assert.Equal(t, "p1", cm.PostID)
	assert.Equal(t, "1", cm.UserID)
	require.NotNil(t, cm.User)
	assert.Equal(t, "johndoe", cm.User.Username)

	resp, _ = doJSON(t, s, http.MethodPost, "/api/posts/missing/comments", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRefreshPosts(t *testing.T) {
	s := newTestServer(t, nil)
	login(t, s)
	doJSON(t, s, http.MethodPost, "/api/posts", models.PostForm{Caption: "temp"})

	resp, body := doJSON(t, s, http.MethodPost, "/api/posts/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st posts.State
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Len(t, st.Posts, 5)
	assert.False(t, st.Loading)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := doJSON(t, s, http.MethodGet, "/api/users/by-username/janecook", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u models.User
	require.NoError(t, json.Unmarshal(body, &u))
	assert.Equal(t, "2", u.ID)

	resp, _ = doJSON(t, s, http.MethodGet, "/api/users/by-username/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, s, http.MethodGet, "/api/users/2/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Post
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)

	resp, _ = doJSON(t, s, http.MethodGet, "/api/users/999/posts", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisplayRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := doJSON(t, s, http.MethodGet, "/api/stories", nil)
	var stories []models.Story
	require.NoError(t, json.Unmarshal(body, &stories))
	assert.Len(t, stories, 3)

	_, body = doJSON(t, s, http.MethodGet, "/api/messages", nil)
	var messages []models.Message
	require.NoError(t, json.Unmarshal(body, &messages))
	assert.Len(t, messages, 3)

	_, body = doJSON(t, s, http.MethodGet, "/api/notifications", nil)
	var notes []models.Notification
	require.NoError(t, json.Unmarshal(body, &notes))
	assert.Len(t, notes, 3)

	login(t, s)
	_, body = doJSON(t, s, http.MethodGet, "/api/chats", nil)
	var chats []models.Chat
	require.NoError(t, json.Unmarshal(body, &chats))
	for _, c := range chats {
		assert.Contains(t, c.Participants, "1")
	}

	_, body = doJSON(t, s, http.MethodGet, "/api/messages", nil)
	messages = nil
	require.NoError(t, json.Unmarshal(body, &messages))
	require.NotEmpty(t, messages)
	for _, m := range messages {
		assert.True(t, m.SenderID == "1" || m.ReceiverID == "1", m.ID)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	doJSON(t, s, http.MethodGet, "/health/live", nil)

	resp, body := doJSON(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "snapgram")
}

func TestWebSocketRouteRejectsPlainHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, http.MethodGet, "/api/ws", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
