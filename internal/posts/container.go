package posts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"snapgram/internal/clock"
	"snapgram/internal/featureflags"
	"snapgram/internal/models"
	"snapgram/internal/observability"
)

// Error messages stored in State.Error.
const (
	MsgFetchFailed  = "Failed to fetch posts"
	MsgCreateFailed = "Failed to create post"
)

const containerName = "posts"

// Source supplies the hydrated post set a fetch loads.
type Source interface {
	PostsWithUsers() []models.Post
}

// UserLookup resolves a user by id. Used to attach authors to new posts and
// comments and to read the viewer's following list.
type UserLookup func(userID string) (models.User, bool)

// Options configures a Container. Source is required.
type Options struct {
	Source      Source
	Users       UserLookup
	Flags       *featureflags.Manager
	Clock       clock.Clock
	IDs         *clock.IDSource
	FetchDelay  time.Duration
	CreateDelay time.Duration
}

// Container owns the posts state. It is safe for concurrent use; the lock is
// never held while waiting on simulated latency.
type Container struct {
	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int

	source      Source
	users       UserLookup
	flags       *featureflags.Manager
	clock       clock.Clock
	ids         *clock.IDSource
	fetchDelay  time.Duration
	createDelay time.Duration
	log         *observability.OpLogger
}

// NewContainer returns a container with no posts loaded.
func NewContainer(opts Options) *Container {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = clock.NewIDSource(clk)
	}
	users := opts.Users
	if users == nil {
		users = func(string) (models.User, bool) { return models.User{}, false }
	}
	return &Container{
		state:       State{Posts: []models.Post{}},
		listeners:   make(map[int]func(State)),
		source:      opts.Source,
		users:       users,
		flags:       opts.Flags,
		clock:       clk,
		ids:         ids,
		fetchDelay:  opts.FetchDelay,
		createDelay: opts.CreateDelay,
		log:         observability.NewOpLogger(containerName),
	}
}

// State returns a snapshot of the current state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn to receive every new state. The returned function
// removes the registration.
func (c *Container) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Dispatch applies a through the reducer and notifies listeners.
func (c *Container) Dispatch(a Action) State {
	s, _ := c.dispatchIf(a, nil)
	return s
}

var errGuardRejected = errors.New("guard rejected")

// dispatchIf applies a only when guard accepts the current state. The check
// and the transition happen under one lock.
func (c *Container) dispatchIf(a Action, guard func(State) bool) (State, bool) {
	s, err := c.dispatchWith(func(cur State) (Action, error) {
		if guard != nil && !guard(cur) {
			return Action{}, errGuardRejected
		}
		return a, nil
	})
	return s, err == nil
}

// dispatchWith builds the action from the current state under the lock. A
// build error leaves the state alone and no listener runs.
func (c *Container) dispatchWith(build func(State) (Action, error)) (State, error) {
	c.mu.Lock()
	a, err := build(c.state)
	if err != nil {
		c.mu.Unlock()
		return State{}, err
	}
	c.state = Reduce(c.state, a)
	snapshot := c.state.Clone()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	observability.RecordAction(containerName, string(a.Type))
	for _, fn := range fns {
		fn(snapshot.Clone())
	}
	return snapshot, nil
}

func hasPost(id string) func(State) bool {
	return func(s State) bool {
		for _, p := range s.Posts {
			if p.ID == id {
				return true
			}
		}
		return false
	}
}

func (c *Container) wait(ctx context.Context, op string, d time.Duration) error {
	done := observability.TrackLatency(op)
	defer done()
	return c.clock.Sleep(ctx, d)
}

func (c *Container) author(userID string) *models.User {
	u, ok := c.users(userID)
	if !ok {
		return nil
	}
	return &u
}

// FetchPosts replaces the post list with the hydrated source posts. On
// failure the state carries MsgFetchFailed and the error is returned.
func (c *Container) FetchPosts(ctx context.Context) error {
	span, ctx := observability.StartOperation(ctx, containerName, "fetch")
	defer span.End()
	started := time.Now()

	c.log.LogStart(ctx, "fetch", map[string]any{"delay_ms": c.fetchDelay.Milliseconds()})
	c.Dispatch(SetLoading(true))
	if err := c.wait(ctx, "fetch_posts", c.fetchDelay); err != nil {
		c.Dispatch(SetError(MsgFetchFailed))
		span.SetError(err)
		c.log.LogError(ctx, "fetch", err)
		return fmt.Errorf("fetch posts: %w", err)
	}

	posts := c.source.PostsWithUsers()
	c.Dispatch(SetPosts(posts))
	span.AddAttributes(attribute.Int("posts.count", len(posts)))
	c.log.LogEnd(ctx, "fetch", started, map[string]any{"count": len(posts)})
	return nil
}

// CreatePost builds a post from form for userID and prepends it.
func (c *Container) CreatePost(ctx context.Context, form models.PostForm, userID string) (models.Post, models.Result) {
	span, ctx := observability.StartOperation(ctx, containerName, "create",
		attribute.String("user.id", userID))
	defer span.End()
	started := time.Now()

	c.log.LogStart(ctx, "create", map[string]any{"delay_ms": c.createDelay.Milliseconds()})
	c.Dispatch(SetLoading(true))
	if err := c.wait(ctx, "create_post", c.createDelay); err != nil {
		c.Dispatch(SetError(MsgCreateFailed))
		span.SetError(err)
		c.log.LogError(ctx, "create", err)
		return models.Post{}, models.Fail(MsgCreateFailed)
	}

	images := make([]string, len(form.Images))
	for i, img := range form.Images {
		images[i] = ImageURL(i, img.Name)
	}

	p := models.Post{
		ID:        c.ids.Next(),
		UserID:    userID,
		User:      c.author(userID),
		Images:    images,
		Caption:   form.Caption,
		Likes:     []string{},
		Comments:  []models.Comment{},
		CreatedAt: c.clock.Now(),
		Location:  form.Location,
		Hashtags:  ExtractHashtags(form.Caption),
	}

	c.Dispatch(AddPost(p))
	span.AddAttributes(attribute.String("post.id", p.ID))
	c.log.LogEnd(ctx, "create", started, map[string]any{"post_id": p.ID})
	return p.Clone(), models.OK()
}

// ImageURL is the placeholder standing in for the index-th uploaded image.
// The file name is interpolated as given.
func ImageURL(index int, name string) string {
	return fmt.Sprintf("https://placehold.co/600x600?text=User+uploaded+image+%d+from+%s", index+1, name)
}

// LikePost toggles userID's like on postID. It reports false, changing
// nothing, when no such post is loaded.
func (c *Container) LikePost(postID, userID string) bool {
	_, ok := c.dispatchIf(LikePost(postID, userID), hasPost(postID))
	if !ok {
		c.log.LogNoop(context.Background(), "like", map[string]any{"post_id": postID})
	}
	return ok
}

// UnlikePost removes userID's like from postID if present.
func (c *Container) UnlikePost(postID, userID string) bool {
	_, ok := c.dispatchIf(UnlikePost(postID, userID), hasPost(postID))
	if !ok {
		c.log.LogNoop(context.Background(), "unlike", map[string]any{"post_id": postID})
	}
	return ok
}

// AddComment appends a new comment by userID to postID. It reports false,
// changing nothing, when no such post is loaded.
func (c *Container) AddComment(ctx context.Context, postID, content, userID string) (models.Comment, bool) {
	span, ctx := observability.StartOperation(ctx, containerName, "comment",
		attribute.String("post.id", postID))
	defer span.End()

	cm := models.Comment{
		ID:        c.ids.Next(),
		UserID:    userID,
		User:      c.author(userID),
		PostID:    postID,
		Content:   content,
		Likes:     []string{},
		Replies:   []models.Comment{},
		CreatedAt: c.clock.Now(),
	}

	if _, ok := c.dispatchIf(AddComment(postID, cm), hasPost(postID)); !ok {
		c.log.LogNoop(ctx, "comment", map[string]any{"post_id": postID})
		return models.Comment{}, false
	}
	return cm.Clone(), true
}

// ownedPost returns postID from s when userID authored it.
func ownedPost(s State, postID, userID string) (models.Post, error) {
	for _, p := range s.Posts {
		if p.ID != postID {
			continue
		}
		if p.UserID != userID {
			return models.Post{}, models.NewForbiddenError("Only the author can change this post")
		}
		return p, nil
	}
	return models.Post{}, models.NewNotFoundError("Post", postID)
}

// EditPost changes the caption and/or location of a post authored by
// userID. A new caption re-derives the hashtags.
func (c *Container) EditPost(ctx context.Context, postID, userID string, edit models.PostEdit) (models.Post, error) {
	span, ctx := observability.StartOperation(ctx, containerName, "edit",
		attribute.String("post.id", postID))
	defer span.End()
	started := time.Now()

	var updated models.Post
	_, err := c.dispatchWith(func(s State) (Action, error) {
		p, err := ownedPost(s, postID, userID)
		if err != nil {
			return Action{}, err
		}
		if edit.Caption != nil {
			p.Caption = *edit.Caption
			p.Hashtags = ExtractHashtags(p.Caption)
		}
		if edit.Location != nil {
			p.Location = *edit.Location
		}
		updated = p
		return UpdatePost(p), nil
	})
	if err != nil {
		span.SetError(err)
		c.log.LogRejected(ctx, "edit", err.Error())
		return models.Post{}, err
	}
	c.log.LogEnd(ctx, "edit", started, map[string]any{"post_id": postID})
	return updated.Clone(), nil
}

// DeletePost removes a post authored by userID.
func (c *Container) DeletePost(ctx context.Context, postID, userID string) error {
	span, ctx := observability.StartOperation(ctx, containerName, "delete",
		attribute.String("post.id", postID))
	defer span.End()
	started := time.Now()

	_, err := c.dispatchWith(func(s State) (Action, error) {
		if _, err := ownedPost(s, postID, userID); err != nil {
			return Action{}, err
		}
		return DeletePost(postID), nil
	})
	if err != nil {
		span.SetError(err)
		c.log.LogRejected(ctx, "delete", err.Error())
		return err
	}
	c.log.LogEnd(ctx, "delete", started, map[string]any{"post_id": postID})
	return nil
}

// PostsByUser returns the loaded posts owned by userID in state order.
func (c *Container) PostsByUser(userID string) []models.Post {
	out := []models.Post{}
	for _, p := range c.State().Posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

// FeedPosts returns the loaded posts newest first as a new slice; the
// container's own order is left alone. With the social_feed flag on for the
// viewer only their own posts and those of accounts they follow are kept.
func (c *Container) FeedPosts(userID string) []models.Post {
	posts := c.State().Posts

	if c.flags.Enabled(featureflags.SocialFeed, userID) {
		visible := map[string]bool{userID: true}
		if u, ok := c.users(userID); ok {
			for _, id := range u.Following {
				visible[id] = true
			}
		}
		filtered := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if visible[p.UserID] {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}
