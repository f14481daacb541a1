// Package models contains data structures for the application's domain models.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PageSize is the fixed number of posts per listing page.
const PageSize = 4

// MaxPage is the largest page whose offset fits in an int.
const MaxPage = math.MaxInt / PageSize

// createdAtLayout matches the millisecond ISO-8601 form clients already parse.
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// Post is one user-authored item with its tags, likes and comments.
// The JSON form is the document clients consume; the *Rows fields hold the
// relational storage of the embedded sequences and are never serialized.
type Post struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	Title        string `json:"title"`
	Message      string `gorm:"type:text" json:"message"`
	Creator      string `gorm:"index" json:"creator"`
	SelectedFile string `gorm:"type:text" json:"selectedFile"`
	CreatedAt    string `gorm:"type:varchar(32);not null" json:"createdAt"`

	Tags     []string `gorm:"-" json:"tags"`
	Likes    []string `gorm:"-" json:"likes"`
	Comments []string `gorm:"-" json:"comments"`

	TagRows     []PostTag     `gorm:"foreignKey:PostID" json:"-"`
	LikeRows    []PostLike    `gorm:"foreignKey:PostID" json:"-"`
	CommentRows []PostComment `gorm:"foreignKey:PostID" json:"-"`
}

// PostTag stores one entry of a post's ordered tag sequence.
type PostTag struct {
	ID       uint   `gorm:"primaryKey"`
	PostID   string `gorm:"type:varchar(36);not null;index"`
	Tag      string `gorm:"not null;index"`
	Position int    `gorm:"not null"`
}

// PostLike records that a user currently likes a post. The unique index makes
// membership a set.
type PostLike struct {
	ID     uint   `gorm:"primaryKey"`
	PostID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user"`
	UserID string `gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
}

// PostComment is one appended comment; primary key order is insertion order.
type PostComment struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	PostID string `gorm:"type:varchar(36);not null;index"`
	Value  string `gorm:"type:text;not null"`
}

// BeforeCreate assigns a time-ordered identifier so that descending id order is newest first.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		p.ID = id.String()
	}
	return nil
}

// Hydrate copies the preloaded child rows into the document sequences.
func (p *Post) Hydrate() {
	p.Tags = make([]string, 0, len(p.TagRows))
	for _, t := range p.TagRows {
		p.Tags = append(p.Tags, t.Tag)
	}
	p.Likes = make([]string, 0, len(p.LikeRows))
	for _, l := range p.LikeRows {
		p.Likes = append(p.Likes, l.UserID)
	}
	p.Comments = make([]string, 0, len(p.CommentRows))
	for _, c := range p.CommentRows {
		p.Comments = append(p.Comments, c.Value)
	}
}

// TagRowsFor builds the ordered tag rows for a post.
func TagRowsFor(postID string, tags []string) []PostTag {
	rows := make([]PostTag, 0, len(tags))
	for i, tag := range tags {
		rows = append(rows, PostTag{PostID: postID, Tag: tag, Position: i})
	}
	return rows
}

// FormatCreatedAt renders t in the stored createdAt form.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

// CanonicalPostID returns the stored (lowercase) form of id, and false when id
// is not a well-formed post identifier.
func CanonicalPostID(id string) (string, bool) {
	if len(id) != 36 {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// IsValidPostID reports whether id is a well-formed post identifier.
func IsValidPostID(id string) bool {
	_, ok := CanonicalPostID(id)
	return ok
}

// PostsPage is one page of the newest-first listing.
type PostsPage struct {
	Data          []*Post `json:"data"`
	CurrentPage   int     `json:"currentPage"`
	NumberOfPages int     `json:"numberOfPages"`
}

// CreatePostRequest is the body accepted by POST /posts.
type CreatePostRequest struct {
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Tags         []string `json:"tags"`
	SelectedFile string   `json:"selectedFile"`
}

// UpdatePostRequest is the body accepted by PATCH /posts/:postId.
// Nil fields were absent from the body and are left untouched.
type UpdatePostRequest struct {
	Title        *string   `json:"title"`
	Message      *string   `json:"message"`
	Tags         *[]string `json:"tags"`
	SelectedFile *string   `json:"selectedFile"`
}

// CommentRequest is the body accepted by POST /posts/:postId/commentPost.
type CommentRequest struct {
	Value string `json:"value"`
}

// MessageResponse is the generic `{message}` body.
type MessageResponse struct {
	Message string `json:"message"`
}
