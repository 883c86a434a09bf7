// Package fixtures holds the read-only demo data set and the joins that
// attach author records to posts, comments, stories and notifications.
package fixtures

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"snapgram/internal/models"
)

//go:embed fixtures.yaml
var canonical []byte

type chatRecord struct {
	ID            string    `yaml:"id"`
	Participants  []string  `yaml:"participants"`
	LastMessageID string    `yaml:"lastMessageId"`
	MessageIDs    []string  `yaml:"messageIds"`
	UpdatedAt     time.Time `yaml:"updatedAt"`
}

type document struct {
	Users         []models.User         `yaml:"users"`
	Comments      []models.Comment      `yaml:"comments"`
	Posts         []models.Post         `yaml:"posts"`
	Stories       []models.Story        `yaml:"stories"`
	Messages      []models.Message      `yaml:"messages"`
	Chats         []chatRecord          `yaml:"chats"`
	Notifications []models.Notification `yaml:"notifications"`
}

// Store is the indexed fixture data set. It is immutable once constructed
// (Generate must run before the store is shared) and every accessor returns
// copies, so callers may modify results freely.
type Store struct {
	users         []models.User
	posts         []models.Post
	stories       []models.Story
	messages      []models.Message
	chats         []models.Chat
	notifications []models.Notification

	userByID       map[string]int
	userByUsername map[string]int
}

// New loads the embedded canonical fixtures.
func New() (*Store, error) {
	return Load(bytes.NewReader(canonical))
}

// MustNew is New for callers that treat a broken embedded document as a
// programming error.
func MustNew() *Store {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// LoadFile loads fixtures from a YAML file on disk.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("open fixtures %s: %w", path, err))
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and indexes a fixture document.
func Load(r io.Reader) (*Store, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, models.NewValidationError(fmt.Sprintf("decode fixtures: %v", err))
	}
	return build(doc)
}

func build(doc document) (*Store, error) {
	s := &Store{
		users:          doc.Users,
		stories:        doc.Stories,
		messages:       doc.Messages,
		notifications:  doc.Notifications,
		userByID:       make(map[string]int, len(doc.Users)),
		userByUsername: make(map[string]int, len(doc.Users)),
	}

	for i, u := range doc.Users {
		if u.ID == "" {
			return nil, models.NewValidationError(fmt.Sprintf("user at index %d has no id", i))
		}
		if _, dup := s.userByID[u.ID]; dup {
			return nil, models.NewValidationError("duplicate user id " + u.ID)
		}
		s.userByID[u.ID] = i
		if _, dup := s.userByUsername[u.Username]; !dup {
			s.userByUsername[u.Username] = i
		}
	}

	postIdx := make(map[string]int, len(doc.Posts))
	s.posts = make([]models.Post, len(doc.Posts))
	for i, p := range doc.Posts {
		if _, dup := postIdx[p.ID]; dup {
			return nil, models.NewValidationError("duplicate post id " + p.ID)
		}
		postIdx[p.ID] = i
		p.Comments = []models.Comment{}
		s.posts[i] = p
	}

	seen := make(map[string]bool, len(doc.Comments))
	for _, c := range doc.Comments {
		if seen[c.ID] {
			return nil, models.NewValidationError("duplicate comment id " + c.ID)
		}
		seen[c.ID] = true
		i, ok := postIdx[c.PostID]
		if !ok {
			continue
		}
		s.posts[i].Comments = append(s.posts[i].Comments, c)
	}

	msgIdx := make(map[string]int, len(doc.Messages))
	for i, m := range doc.Messages {
		if _, dup := msgIdx[m.ID]; dup {
			return nil, models.NewValidationError("duplicate message id " + m.ID)
		}
		msgIdx[m.ID] = i
	}

	s.chats = make([]models.Chat, 0, len(doc.Chats))
	for _, rec := range doc.Chats {
		chat := models.Chat{
			ID:           rec.ID,
			Participants: rec.Participants,
			Messages:     make([]models.Message, 0, len(rec.MessageIDs)),
			UpdatedAt:    rec.UpdatedAt,
		}
		for _, id := range rec.MessageIDs {
			i, ok := msgIdx[id]
			if !ok {
				return nil, models.NewValidationError(fmt.Sprintf("chat %s references unknown message %s", rec.ID, id))
			}
			chat.Messages = append(chat.Messages, doc.Messages[i])
		}
		if rec.LastMessageID != "" {
			i, ok := msgIdx[rec.LastMessageID]
			if !ok {
				return nil, models.NewValidationError(fmt.Sprintf("chat %s references unknown message %s", rec.ID, rec.LastMessageID))
			}
			m := doc.Messages[i]
			chat.LastMessage = &m
		}
		s.chats = append(s.chats, chat)
	}

	for _, n := range doc.Notifications {
		if !n.Type.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("notification %s has unknown type %q", n.ID, n.Type))
		}
	}

	return s, nil
}

func (s *Store) lookup(id string) *models.User {
	i, ok := s.userByID[id]
	if !ok {
		return nil
	}
	u := s.users[i].Clone()
	return &u
}

// Users returns every fixture user in document order.
func (s *Store) Users() []models.User {
	out := make([]models.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out
}

// UserByID finds a user by id.
func (s *Store) UserByID(id string) (models.User, bool) {
	u := s.lookup(id)
	if u == nil {
		return models.User{}, false
	}
	return *u, true
}

// UserByUsername finds a user by exact, case-sensitive username.
func (s *Store) UserByUsername(username string) (models.User, bool) {
	i, ok := s.userByUsername[username]
	if !ok {
		return models.User{}, false
	}
	return s.users[i].Clone(), true
}

// FindUser returns the first user, in document order, satisfying match.
func (s *Store) FindUser(match func(models.User) bool) (models.User, bool) {
	for _, u := range s.users {
		if match(u) {
			return u.Clone(), true
		}
	}
	return models.User{}, false
}

// PostsWithUsers returns every post with its author and each comment's
// author attached. Unknown authors leave the field nil.
func (s *Store) PostsWithUsers() []models.Post {
	out := make([]models.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = s.hydratePost(p)
	}
	return out
}

func (s *Store) hydratePost(p models.Post) models.Post {
	hp := p.Clone()
	hp.User = s.lookup(p.UserID)
	for j := range hp.Comments {
		hp.Comments[j].User = s.lookup(hp.Comments[j].UserID)
	}
	return hp
}

// PostsByUserID returns the hydrated posts owned by userID in fixture order.
func (s *Store) PostsByUserID(userID string) []models.Post {
	out := []models.Post{}
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, s.hydratePost(p))
		}
	}
	return out
}

// StoriesWithUsers returns every story with its author attached.
func (s *Store) StoriesWithUsers() []models.Story {
	out := make([]models.Story, len(s.stories))
	for i, st := range s.stories {
		out[i] = st.Clone()
		out[i].User = s.lookup(st.UserID)
	}
	return out
}

// NotificationsWithUsers returns every notification with the triggering
// user attached.
func (s *Store) NotificationsWithUsers() []models.Notification {
	out := make([]models.Notification, len(s.notifications))
	for i, n := range s.notifications {
		out[i] = n
		out[i].TriggeredByUser = s.lookup(n.TriggeredBy)
	}
	return out
}

// NotificationsFor returns the hydrated notifications addressed to userID.
func (s *Store) NotificationsFor(userID string) []models.Notification {
	out := []models.Notification{}
	for _, n := range s.NotificationsWithUsers() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// Messages returns every direct message.
func (s *Store) Messages() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Chats returns every chat with its messages resolved.
func (s *Store) Chats() []models.Chat {
	out := make([]models.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = c.Clone()
	}
	return out
}

// ChatsFor returns the chats userID participates in.
func (s *Store) ChatsFor(userID string) []models.Chat {
	out := []models.Chat{}
	for _, c := range s.chats {
		for _, p := range c.Participants {
			if p == userID {
				out = append(out, c.Clone())
				break
			}
		}
	}
	return out
}
