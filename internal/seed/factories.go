// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"postboard/internal/models"
	"postboard/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions tunes the generated data.
type SeedOptions struct {
	// Users is the number of distinct creator/liker identifiers.
	Users int
	// MaxDays bounds how far back createdAt is spread.
	MaxDays int
	// MaxLikes and MaxComments bound per-post engagement.
	MaxLikes    int
	MaxComments int
}

func (o SeedOptions) withDefaults() SeedOptions {
	if o.Users <= 0 {
		o.Users = 20
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.MaxLikes < 0 {
		o.MaxLikes = 0
	}
	if o.MaxComments < 0 {
		o.MaxComments = 0
	}
	return o
}

var tagPool = []string{"travel", "food", "tech", "music", "art", "sports", "books", "nature", "memes", "news"}

// Seeder writes fake posts through the post repository so every row it
// creates goes through the same paths as the API.
type Seeder struct {
	db    *gorm.DB
	posts repository.PostRepository
	opts  SeedOptions
	users []string
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts SeedOptions) *Seeder {
	opts = opts.withDefaults()
	users := make([]string, opts.Users)
	for i := range users {
		users[i] = gofakeit.UUID()
	}
	return &Seeder{
		db:    db,
		posts: repository.NewPostRepository(db),
		opts:  opts,
		users: users,
	}
}

// BuildPost constructs an unsaved post with fake content.
func (s *Seeder) BuildPost(overrides ...func(*models.Post)) *models.Post {
	daysBack := rand.IntN(s.opts.MaxDays)
	created := time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(rand.IntN(24*60))*time.Minute)

	tags := make([]string, 0, 3)
	for _, i := range rand.Perm(len(tagPool))[:rand.IntN(4)] {
		tags = append(tags, tagPool[i])
	}

	post := &models.Post{
		Title:        gofakeit.Sentence(5),
		Message:      gofakeit.Paragraph(1, 3, 12, "\n"),
		Creator:      s.randomUser(),
		Tags:         tags,
		SelectedFile: fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		CreatedAt:    models.FormatCreatedAt(created),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// SeedPosts creates n posts with random likes and comments.
func (s *Seeder) SeedPosts(ctx context.Context, n int) ([]*models.Post, error) {
	out := make([]*models.Post, 0, n)
	for range n {
		post := s.BuildPost()
		if err := s.posts.Create(ctx, post); err != nil {
			return out, fmt.Errorf("create post: %w", err)
		}

		likers := rand.Perm(len(s.users))[:rand.IntN(min(s.opts.MaxLikes, len(s.users))+1)]
		for _, i := range likers {
			updated, err := s.posts.ToggleLike(ctx, post.ID, s.users[i])
			if err != nil {
				return out, fmt.Errorf("like post %s: %w", post.ID, err)
			}
			post = updated
		}

		for range rand.IntN(s.opts.MaxComments + 1) {
			value := fmt.Sprintf("%s: %s", gofakeit.Username(), gofakeit.Sentence(8))
			updated, err := s.posts.AddComment(ctx, post.ID, value)
			if err != nil {
				return out, fmt.Errorf("comment on post %s: %w", post.ID, err)
			}
			post = updated
		}

		out = append(out, post)
	}
	return out, nil
}

// ClearAll removes every post and its child rows.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.PostComment{}, &models.PostLike{}, &models.PostTag{}, &models.Post{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Seeder) randomUser() string {
	return s.users[rand.IntN(len(s.users))]
}
