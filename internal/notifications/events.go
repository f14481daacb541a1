package notifications

import (
	"time"

	"postboard/internal/models"
)

// Post event types delivered on the live feed.
const (
	EventPostCreated   = "post_created"
	EventPostUpdated   = "post_updated"
	EventPostLiked     = "post_liked"
	EventPostCommented = "post_commented"
	EventPostDeleted   = "post_deleted"
)

// PostEvent is the envelope published for every post write.
// Post is omitted for deletions.
type PostEvent struct {
	Type   string       `json:"type"`
	PostID string       `json:"postId"`
	Post   *models.Post `json:"post,omitempty"`
	Actor  string       `json:"actor,omitempty"`
	At     string       `json:"at"`
}

// NewPostEvent stamps an event with the current time.
func NewPostEvent(eventType, postID string, post *models.Post, actor string) PostEvent {
	return PostEvent{
		Type:   eventType,
		PostID: postID,
		Post:   post,
		Actor:  actor,
		At:     models.FormatCreatedAt(time.Now()),
	}
}
