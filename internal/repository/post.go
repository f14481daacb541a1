// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"postboard/internal/models"
	"postboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const postsTable = "posts"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Search(ctx context.Context, query string, tags []string) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, id string, in models.UpdatePostRequest) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error)
	AddComment(ctx context.Context, postID, value string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// withChildren preloads the tag, like and comment rows in their stored order.
func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("TagRows", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("LikeRows", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("CommentRows", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") })
}

func hydrateAll(posts []*models.Post) {
	for _, p := range posts {
		p.Hydrate()
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrPostNotFound
	}
	return err
}

func (r *postRepository) Count(ctx context.Context) (total int64, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Count", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("count", postsTable)()

	err = r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error
	return total, err
}

func (r *postRepository) List(ctx context.Context, limit, offset int) (posts []*models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "List", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("list", postsTable)()

	err = withChildren(r.db.WithContext(ctx)).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	hydrateAll(posts)
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (post *models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("get", postsTable)()

	return r.load(r.db.WithContext(ctx), id)
}

func (r *postRepository) load(db *gorm.DB, id string) (*models.Post, error) {
	var post models.Post
	if err := withChildren(db).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	post.Hydrate()
	return &post, nil
}

// likeEscaper escapes LIKE wildcards so the query is matched as a literal substring.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postRepository) Search(ctx context.Context, query string, tags []string) (posts []*models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Search", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("search", postsTable)()

	like := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	db := withChildren(r.db.WithContext(ctx))
	if len(tags) > 0 {
		tagged := r.db.Model(&models.PostTag{}).Select("post_id").Where("tag IN ?", tags)
		db = db.Where(`LOWER(title) LIKE ? ESCAPE '\' OR id IN (?)`, like, tagged)
	} else {
		db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, like)
	}

	if err = db.Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	hydrateAll(posts)
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("create", postsTable)()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}
		rows := models.TagRowsFor(post.ID, post.Tags)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return err
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	post.Likes = []string{}
	post.Comments = []string{}
	return nil
}

func (r *postRepository) Update(ctx context.Context, id string, in models.UpdatePostRequest) (post *models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Update", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("update", postsTable)()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Title != nil {
			fields["title"] = *in.Title
		}
		if in.Message != nil {
			fields["message"] = *in.Message
		}
		if in.SelectedFile != nil {
			fields["selected_file"] = *in.SelectedFile
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}

		if in.Tags != nil {
			if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
				return err
			}
			if len(*in.Tags) > 0 {
				rows := models.TagRowsFor(id, *in.Tags)
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		var loadErr error
		post, loadErr = r.load(tx, id)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleLike flips userID's membership in the post's like set inside one transaction.
// A delete that removes nothing means the user had not liked the post yet.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (post *models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ToggleLike", "post_likes")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("toggle_like", "post_likes")()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.PostLike{PostID: postID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
		}

		var loadErr error
		post, loadErr = r.load(tx, postID)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *postRepository) AddComment(ctx context.Context, postID, value string) (post *models.Post, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "AddComment", "post_comments")
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("add_comment", "post_comments")()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, postID); err != nil {
			return err
		}
		comment := models.PostComment{PostID: postID, Value: value}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		var loadErr error
		post, loadErr = r.load(tx, postID)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes the post and its child rows. Deleting an unknown id is not an error.
func (r *postRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Delete", postsTable)
	defer func() { observability.EndSpan(span, err) }()
	defer observability.TrackQuery("delete", postsTable)()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.PostTag{}, &models.PostLike{}, &models.PostComment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&models.Post{}).Error
	})
}

func exists(db *gorm.DB, id string) error {
	var n int64
	if err := db.Model(&models.Post{}).Where("id = ?", id).Limit(1).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return models.ErrPostNotFound
	}
	return nil
}
