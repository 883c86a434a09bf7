// Package auth holds the session identity state container: login, signup,
// logout, and the persisted session record.
package auth

import "snapgram/internal/models"

// State is the authentication state. CurrentUser is nil when logged out.
type State struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	CurrentUser     *models.User `json:"currentUser"`
	Loading         bool         `json:"loading"`
}

// Clone returns a copy of s that shares nothing with it.
func (s State) Clone() State {
	if s.CurrentUser != nil {
		u := s.CurrentUser.Clone()
		s.CurrentUser = &u
	}
	return s
}

// ActionType names a state transition.
type ActionType string

const (
	ActionLogin      ActionType = "LOGIN"
	ActionLogout     ActionType = "LOGOUT"
	ActionSetLoading ActionType = "SET_LOADING"
)

// Action is a transition request. User is read by LOGIN, Loading by SET_LOADING.
type Action struct {
	Type    ActionType
	User    *models.User
	Loading bool
}

// Login authenticates u.
func Login(u models.User) Action { return Action{Type: ActionLogin, User: &u} }

// Logout clears the session.
func Logout() Action { return Action{Type: ActionLogout} }

// SetLoading toggles the in-flight flag.
func SetLoading(v bool) Action { return Action{Type: ActionSetLoading, Loading: v} }

// Reduce applies a to s. Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLogin:
		s.IsAuthenticated = true
		s.CurrentUser = a.User
		s.Loading = false
	case ActionLogout:
		s.IsAuthenticated = false
		s.CurrentUser = nil
		s.Loading = false
	case ActionSetLoading:
		s.Loading = a.Loading
	}
	return s
}
