// Package app wires the fixture store, session storage and both state
// containers into the single context a command runs against.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"snapgram/internal/auth"
	"snapgram/internal/clock"
	"snapgram/internal/config"
	"snapgram/internal/featureflags"
	"snapgram/internal/fixtures"
	"snapgram/internal/models"
	"snapgram/internal/observability"
	"snapgram/internal/posts"
	"snapgram/internal/storage"
)

// Event types streamed to change listeners.
const (
	EventAuthState  = "auth_state"
	EventPostsState = "posts_state"
)

// Event is one state transition of either container.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Options are the collaborators of an App. Fixtures and Storage are required.
type Options struct {
	Config   *config.Config
	Fixtures *fixtures.Store
	Storage  storage.LocalStorage
	Clock    clock.Clock
}

// App is the application context. Construct one per process and hand it to
// the consumers (HTTP server, CLI).
type App struct {
	Config   *config.Config
	Fixtures *fixtures.Store
	Storage  storage.LocalStorage
	Flags    *featureflags.Manager
	Clock    clock.Clock
	Auth     *auth.Container
	Posts    *posts.Container

	mu        sync.Mutex
	listeners map[int]func(Event)
	nextID    int
	unsubs    []func()
}

// New assembles an App from already-built collaborators.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	ids := clock.NewIDSource(clk)
	delays := cfg.Delays()

	a := &App{
		Config:    cfg,
		Fixtures:  opts.Fixtures,
		Storage:   opts.Storage,
		Flags:     featureflags.NewManager(cfg.FeatureFlags),
		Clock:     clk,
		listeners: make(map[int]func(Event)),
	}

	a.Auth = auth.NewContainer(auth.Options{
		Storage:     opts.Storage,
		Users:       opts.Fixtures,
		Clock:       clk,
		IDs:         ids,
		LoginDelay:  delays.Login,
		SignupDelay: delays.Signup,
	})
	a.Posts = posts.NewContainer(posts.Options{
		Source:      opts.Fixtures,
		Users:       a.LookupUser,
		Flags:       a.Flags,
		Clock:       clk,
		IDs:         ids,
		FetchDelay:  delays.Fetch,
		CreateDelay: delays.CreatePost,
	})

	a.unsubs = append(a.unsubs,
		a.Auth.Subscribe(func(s auth.State) { a.emit(Event{Type: EventAuthState, Payload: s}) }),
		a.Posts.Subscribe(func(s posts.State) { a.emit(Event{Type: EventPostsState, Payload: s}) }),
	)
	return a
}

// FromConfig loads fixtures and opens session storage as cfg describes.
func FromConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		fx  *fixtures.Store
		err error
	)
	if cfg.FixturesPath != "" {
		fx, err = fixtures.LoadFile(cfg.FixturesPath)
	} else {
		fx, err = fixtures.New()
	}
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	if cfg.SyntheticUsers > 0 || cfg.SyntheticPosts > 0 {
		if err := fx.Generate(cfg.SyntheticUsers, cfg.SyntheticPosts, cfg.SyntheticSeed); err != nil {
			return nil, fmt.Errorf("generate fixtures: %w", err)
		}
		observability.GlobalLogger.InfoContext(ctx, "synthetic fixtures generated",
			slog.Int("users", cfg.SyntheticUsers),
			slog.Int("posts", cfg.SyntheticPosts),
		)
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	return New(Options{Config: cfg, Fixtures: fx, Storage: store}), nil
}

// Bootstrap restores any persisted session and loads the post list.
func (a *App) Bootstrap(ctx context.Context) error {
	a.Auth.Init(ctx)
	return a.Posts.FetchPosts(ctx)
}

// LookupUser resolves id against the fixture users, then the signed-in
// account, which may be a signup user unknown to the fixtures.
func (a *App) LookupUser(id string) (models.User, bool) {
	if u, ok := a.Fixtures.UserByID(id); ok {
		return u, true
	}
	if u, ok := a.Auth.CurrentUser(); ok && u.ID == id {
		return u, true
	}
	return models.User{}, false
}

// OnChange registers fn for every auth and posts transition. The returned
// function removes it.
func (a *App) OnChange(fn func(Event)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *App) emit(ev Event) {
	a.mu.Lock()
	fns := make([]func(Event), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close detaches listeners and closes session storage.
func (a *App) Close() error {
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
	if a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}
