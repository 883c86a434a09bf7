package models

import "time"

// NotificationType enumerates the activity kinds a notification reports.
type NotificationType string

const (
	NotificationLike      NotificationType = "like"
	NotificationComment   NotificationType = "comment"
	NotificationFollow    NotificationType = "follow"
	NotificationMention   NotificationType = "mention"
	NotificationStoryView NotificationType = "story_view"
)

// Notification is an activity entry addressed to UserID.
type Notification struct {
	ID              string           `json:"id" yaml:"id"`
	UserID          string           `json:"userId" yaml:"userId"`
	Type            NotificationType `json:"type" yaml:"type"`
	TriggeredBy     string           `json:"triggeredBy" yaml:"triggeredBy"`
	TriggeredByUser *User            `json:"triggeredByUser,omitempty" yaml:"-"`
	PostID          string           `json:"postId,omitempty" yaml:"postId,omitempty"`
	Message         string           `json:"message" yaml:"message"`
	Read            bool             `json:"read" yaml:"read"`
	CreatedAt       time.Time        `json:"createdAt" yaml:"createdAt"`
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationMention, NotificationStoryView:
		return true
	}
	return false
}
