package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"snapgram/internal/clock"
	"snapgram/internal/models"
	"snapgram/internal/observability"
	"snapgram/internal/storage"
)

// Result messages.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgUserExists         = "Username or email already exists"
	MsgPasswordMismatch   = "Passwords do not match"
	MsgCancelled          = "Request cancelled"
)

const containerName = "auth"

// UserDirectory is the set of known accounts login and signup check against.
type UserDirectory interface {
	FindUser(match func(models.User) bool) (models.User, bool)
}

// Options configures a Container. Storage and Users are required.
type Options struct {
	Storage     storage.LocalStorage
	Users       UserDirectory
	Clock       clock.Clock
	IDs         *clock.IDSource
	LoginDelay  time.Duration
	SignupDelay time.Duration
}

// Container owns the authentication state. It is safe for concurrent use;
// the lock is never held while waiting on simulated latency or storage.
type Container struct {
	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int

	store       storage.LocalStorage
	users       UserDirectory
	clock       clock.Clock
	ids         *clock.IDSource
	loginDelay  time.Duration
	signupDelay time.Duration
	log         *observability.OpLogger
}

// NewContainer returns a logged-out container.
func NewContainer(opts Options) *Container {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = clock.NewIDSource(clk)
	}
	return &Container{
		listeners:   make(map[int]func(State)),
		store:       opts.Storage,
		users:       opts.Users,
		clock:       clk,
		ids:         ids,
		loginDelay:  opts.LoginDelay,
		signupDelay: opts.SignupDelay,
		log:         observability.NewOpLogger(containerName),
	}
}

// State returns a snapshot of the current state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// CurrentUser returns the logged-in user, if any.
func (c *Container) CurrentUser() (models.User, bool) {
	s := c.State()
	if !s.IsAuthenticated || s.CurrentUser == nil {
		return models.User{}, false
	}
	return *s.CurrentUser, true
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
	c.mu.Lock()
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
	return snapshot
}

// Init restores a persisted session without re-validating it. An unreadable
// record is discarded.
func (c *Container) Init(ctx context.Context) {
	span, ctx := observability.StartOperation(ctx, containerName, "init")
	defer span.End()

	raw, ok, err := c.store.GetItem(ctx, storage.SessionKey)
	if err != nil {
		span.SetError(err)
		c.log.LogError(ctx, "init", err)
		return
	}
	if !ok {
		return
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		span.SetError(err)
		observability.GlobalLogger.WarnContext(ctx, "discarding unreadable session record",
			slog.String("key", storage.SessionKey),
			slog.String("error", err.Error()),
		)
		if err := c.store.RemoveItem(ctx, storage.SessionKey); err != nil {
			c.log.LogError(ctx, "init", err)
		}
		return
	}

	span.AddAttributes(attribute.String("user.id", u.ID))
	c.Dispatch(Login(u))
	observability.GlobalLogger.InfoContext(ctx, "session restored", slog.String("user_id", u.ID))
}

func (c *Container) wait(ctx context.Context, op string, d time.Duration) error {
	done := observability.TrackLatency(op)
	defer done()
	return c.clock.Sleep(ctx, d)
}

// Login authenticates by username or email and the shared demo password.
func (c *Container) Login(ctx context.Context, form models.LoginForm) models.Result {
	span, ctx := observability.StartOperation(ctx, containerName, "login")
	defer span.End()
	started := time.Now()

	c.log.LogStart(ctx, "login", map[string]any{"delay_ms": c.loginDelay.Milliseconds()})
	c.Dispatch(SetLoading(true))
	if err := c.wait(ctx, "login", c.loginDelay); err != nil {
		c.Dispatch(SetLoading(false))
		span.SetError(err)
		c.log.LogError(ctx, "login", err)
		return models.Fail(MsgCancelled)
	}

	u, found := c.users.FindUser(func(u models.User) bool {
		return u.Username == form.Username || u.Email == form.Username
	})
	if !found || !CheckPassword(form.Password) {
		c.Dispatch(SetLoading(false))
		observability.RecordAuthAttempt("login", false)
		c.log.LogRejected(ctx, "login", MsgInvalidCredentials)
		return models.Fail(MsgInvalidCredentials)
	}

	c.persist(ctx, "login", u)
	c.Dispatch(Login(u))
	observability.RecordAuthAttempt("login", true)
	span.AddAttributes(attribute.String("user.id", u.ID))
	c.log.LogEnd(ctx, "login", started, map[string]any{"user_id": u.ID})
	return models.OK()
}

// Signup registers a new account and logs it in. The account is held only
// in this container and the session record.
func (c *Container) Signup(ctx context.Context, form models.SignupForm) models.Result {
	span, ctx := observability.StartOperation(ctx, containerName, "signup")
	defer span.End()
	started := time.Now()

	c.log.LogStart(ctx, "signup", map[string]any{"delay_ms": c.signupDelay.Milliseconds()})
	c.Dispatch(SetLoading(true))
	if err := c.wait(ctx, "signup", c.signupDelay); err != nil {
		c.Dispatch(SetLoading(false))
		span.SetError(err)
		c.log.LogError(ctx, "signup", err)
		return models.Fail(MsgCancelled)
	}

	_, exists := c.users.FindUser(func(u models.User) bool {
		return u.Username == form.Username || u.Email == form.Email
	})
	if exists {
		c.Dispatch(SetLoading(false))
		observability.RecordAuthAttempt("signup", false)
		c.log.LogRejected(ctx, "signup", MsgUserExists)
		return models.Fail(MsgUserExists)
	}
	if form.Password != form.ConfirmPassword {
		c.Dispatch(SetLoading(false))
		observability.RecordAuthAttempt("signup", false)
		c.log.LogRejected(ctx, "signup", MsgPasswordMismatch)
		return models.Fail(MsgPasswordMismatch)
	}

	u := models.User{
		ID:          c.ids.Next(),
		Username:    form.Username,
		DisplayName: form.DisplayName,
		Email:       form.Email,
		Avatar:      AvatarURL(form.DisplayName),
		Bio:         "",
		Followers:   []string{},
		Following:   []string{},
		PostsCount:  0,
		Verified:    false,
		IsPrivate:   false,
		CreatedAt:   c.clock.Now(),
	}

	c.persist(ctx, "signup", u)
	c.Dispatch(Login(u))
	observability.RecordAuthAttempt("signup", true)
	span.AddAttributes(attribute.String("user.id", u.ID))
	c.log.LogEnd(ctx, "signup", started, map[string]any{"user_id": u.ID})
	return models.OK()
}

// Logout clears the session record and the in-memory session.
func (c *Container) Logout(ctx context.Context) {
	span, ctx := observability.StartOperation(ctx, containerName, "logout")
	defer span.End()

	if err := c.store.RemoveItem(ctx, storage.SessionKey); err != nil {
		span.SetError(err)
		c.log.LogError(ctx, "logout", err)
	}
	c.Dispatch(Logout())
}

// persist writes the session record. Failures are logged and otherwise
// ignored; the in-memory session is authoritative for this process.
func (c *Container) persist(ctx context.Context, op string, u models.User) {
	data, err := json.Marshal(u)
	if err == nil {
		err = c.store.SetItem(ctx, storage.SessionKey, string(data))
	}
	if err != nil {
		c.log.LogError(ctx, op, errors.Join(errors.New("persist session"), err))
	}
}

// AvatarURL builds the placeholder avatar for a display name from the first
// letter of each word.
func AvatarURL(displayName string) string {
	var initials strings.Builder
	for _, part := range strings.Split(displayName, " ") {
		for _, r := range part {
			initials.WriteRune(r)
			break
		}
	}
	return "https://placehold.co/150x150?text=" + url.QueryEscape(initials.String())
}
