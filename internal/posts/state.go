// Package posts holds the visible post collection and its transitions:
// fetch, create, like, comment, and the derived per-user and feed views.
package posts

import "snapgram/internal/models"

// State is the posts state. Error is nil unless the last fetch or create failed.
type State struct {
	Posts   []models.Post `json:"posts"`
	Loading bool          `json:"loading"`
	Error   *string       `json:"error"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	posts := make([]models.Post, len(s.Posts))
	for i, p := range s.Posts {
		posts[i] = p.Clone()
	}
	s.Posts = posts
	if s.Error != nil {
		e := *s.Error
		s.Error = &e
	}
	return s
}

// ActionType names a state transition.
type ActionType string

const (
	ActionSetPosts   ActionType = "SET_POSTS"
	ActionAddPost    ActionType = "ADD_POST"
	ActionUpdatePost ActionType = "UPDATE_POST"
	ActionDeletePost ActionType = "DELETE_POST"
	ActionLikePost   ActionType = "LIKE_POST"
	ActionUnlikePost ActionType = "UNLIKE_POST"
	ActionAddComment ActionType = "ADD_COMMENT"
	ActionSetLoading ActionType = "SET_LOADING"
	ActionSetError   ActionType = "SET_ERROR"
)

// Action is a transition request; each type reads only its own fields.
type Action struct {
	Type    ActionType
	Posts   []models.Post
	Post    *models.Post
	PostID  string
	UserID  string
	Comment *models.Comment
	Loading bool
	Error   *string
}

// Action constructors.

func SetPosts(posts []models.Post) Action { return Action{Type: ActionSetPosts, Posts: posts} }

func AddPost(p models.Post) Action { return Action{Type: ActionAddPost, Post: &p} }

func UpdatePost(p models.Post) Action { return Action{Type: ActionUpdatePost, Post: &p} }

func DeletePost(postID string) Action { return Action{Type: ActionDeletePost, PostID: postID} }

func LikePost(postID, userID string) Action {
	return Action{Type: ActionLikePost, PostID: postID, UserID: userID}
}

func UnlikePost(postID, userID string) Action {
	return Action{Type: ActionUnlikePost, PostID: postID, UserID: userID}
}

func AddComment(postID string, c models.Comment) Action {
	return Action{Type: ActionAddComment, PostID: postID, Comment: &c}
}

func SetLoading(v bool) Action { return Action{Type: ActionSetLoading, Loading: v} }

func SetError(msg string) Action { return Action{Type: ActionSetError, Error: &msg} }

// ClearError is SET_ERROR with no message.
func ClearError() Action { return Action{Type: ActionSetError} }

// Reduce applies a to s and returns the new state. The input is never
// modified: changed posts are copied, untouched ones are shared.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetPosts:
		s.Posts = a.Posts
		s.Loading = false
		s.Error = nil
	case ActionAddPost:
		posts := make([]models.Post, 0, len(s.Posts)+1)
		posts = append(posts, *a.Post)
		s.Posts = append(posts, s.Posts...)
		s.Loading = false
		s.Error = nil
	case ActionUpdatePost:
		s.Posts = mapPost(s.Posts, a.Post.ID, func(models.Post) models.Post { return *a.Post })
		s.Loading = false
		s.Error = nil
	case ActionDeletePost:
		posts := make([]models.Post, 0, len(s.Posts))
		for _, p := range s.Posts {
			if p.ID != a.PostID {
				posts = append(posts, p)
			}
		}
		s.Posts = posts
		s.Loading = false
		s.Error = nil
	case ActionLikePost:
		s.Posts = mapPost(s.Posts, a.PostID, func(p models.Post) models.Post {
			if p.LikedBy(a.UserID) {
				p.Likes = without(p.Likes, a.UserID)
			} else {
				p.Likes = append(append(make([]string, 0, len(p.Likes)+1), p.Likes...), a.UserID)
			}
			return p
		})
	case ActionUnlikePost:
		s.Posts = mapPost(s.Posts, a.PostID, func(p models.Post) models.Post {
			p.Likes = without(p.Likes, a.UserID)
			return p
		})
	case ActionAddComment:
		s.Posts = mapPost(s.Posts, a.PostID, func(p models.Post) models.Post {
			p.Comments = append(append(make([]models.Comment, 0, len(p.Comments)+1), p.Comments...), *a.Comment)
			return p
		})
	case ActionSetLoading:
		s.Loading = a.Loading
	case ActionSetError:
		s.Error = nil
		if a.Error != nil {
			msg := *a.Error
			s.Error = &msg
		}
		s.Loading = false
	}
	return s
}

func mapPost(posts []models.Post, id string, fn func(models.Post) models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		if p.ID == id {
			p = fn(p)
		}
		out[i] = p
	}
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
