// Package service holds the post use cases between the HTTP handlers and the repository.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"postboard/internal/cache"
	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/notifications"
	"postboard/internal/repository"
)

// EventPublisher receives an event for every successful post write.
type EventPublisher interface {
	PublishPostEvent(ctx context.Context, ev notifications.PostEvent) error
}

type PostService struct {
	postRepo repository.PostRepository
	events   EventPublisher
	flags    *featureflags.Manager
	now      func() time.Time
}

// NewPostService wires the post use cases. events may be nil.
func NewPostService(
	postRepo repository.PostRepository,
	events EventPublisher,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		events:   events,
		flags:    flags,
		now:      time.Now,
	}
}

// NumberOfPages is ceil(total / models.PageSize).
func NumberOfPages(total int64) int {
	return int((total + models.PageSize - 1) / models.PageSize)
}

// ListPosts returns one newest-first page. Pages below 1 are treated as page 1
// and pages past models.MaxPage as models.MaxPage.
func (s *PostService) ListPosts(ctx context.Context, page int) (*models.PostsPage, error) {
	page = min(max(page, 1), models.MaxPage)

	var out models.PostsPage
	fetch := func() error {
		total, err := s.postRepo.Count(ctx)
		if err != nil {
			return err
		}
		posts, err := s.postRepo.List(ctx, models.PageSize, (page-1)*models.PageSize)
		if err != nil {
			return err
		}
		if posts == nil {
			posts = []*models.Post{}
		}
		out = models.PostsPage{
			Data:          posts,
			CurrentPage:   page,
			NumberOfPages: NumberOfPages(total),
		}
		return nil
	}

	var err error
	if s.cacheEnabled() {
		err = cache.Aside(ctx, "posts_page", cache.PostsPageKey(ctx, page), &out, cache.ListTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return &out, nil
}

func (s *PostService) GetPost(ctx context.Context, rawID string) (*models.Post, error) {
	id, ok := models.CanonicalPostID(rawID)
	if !ok {
		return nil, models.NewMalformedIDError(rawID)
	}

	var post *models.Post
	fetch := func() error {
		var err error
		post, err = s.postRepo.GetByID(ctx, id)
		return err
	}

	var err error
	if s.cacheEnabled() {
		var cached models.Post
		err = cache.Aside(ctx, "post", cache.PostKey(ctx, id), &cached, cache.PostTTL, func() error {
			if err := fetch(); err != nil {
				return err
			}
			cached = *post
			return nil
		})
		post = &cached
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, mapRepoError(id, err)
	}
	return post, nil
}

// ParseTags splits the comma-separated tags parameter, dropping empty entries.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// SearchPosts matches posts whose title contains query (case-insensitive) or
// that carry any of the comma-separated tags.
func (s *PostService) SearchPosts(ctx context.Context, query, tags string) ([]*models.Post, error) {
	posts, err := s.postRepo.Search(ctx, query, ParseTags(tags))
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// CreatePost stores a new post owned by userID.
func (s *PostService) CreatePost(ctx context.Context, userID string, in models.CreatePostRequest) (*models.Post, error) {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	post := &models.Post{
		Title:        in.Title,
		Message:      in.Message,
		Tags:         tags,
		SelectedFile: in.SelectedFile,
		Creator:      userID,
		CreatedAt:    models.FormatCreatedAt(s.now()),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewStoreError(err)
	}

	cache.InvalidatePostsList(ctx)
	s.publish(ctx, notifications.EventPostCreated, post.ID, post, userID)
	return post, nil
}

// UpdatePost writes the fields present in the request. There is no ownership check.
func (s *PostService) UpdatePost(ctx context.Context, rawID, userID string, in models.UpdatePostRequest) (*models.Post, error) {
	id, ok := models.CanonicalPostID(rawID)
	if !ok {
		return nil, models.NewMalformedIDError(rawID)
	}
	post, err := s.postRepo.Update(ctx, id, in)
	if err != nil {
		return nil, mapRepoError(id, err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, notifications.EventPostUpdated, id, post, userID)
	return post, nil
}

// ToggleLike adds userID to the post's likes, or removes it when already present.
func (s *PostService) ToggleLike(ctx context.Context, rawID, userID string) (*models.Post, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError(models.MsgUnauthenticated)
	}
	id, ok := models.CanonicalPostID(rawID)
	if !ok {
		return nil, models.NewMalformedIDError(rawID)
	}
	post, err := s.postRepo.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, mapRepoError(id, err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, notifications.EventPostLiked, id, post, userID)
	return post, nil
}

// AddComment appends value to the post's comments.
func (s *PostService) AddComment(ctx context.Context, rawID, userID, value string) (*models.Post, error) {
	id, ok := models.CanonicalPostID(rawID)
	if !ok {
		return nil, models.NewMalformedIDError(rawID)
	}
	post, err := s.postRepo.AddComment(ctx, id, value)
	if err != nil {
		return nil, mapRepoError(id, err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, notifications.EventPostCommented, id, post, userID)
	return post, nil
}

// DeletePost removes a post. Deleting an unknown id succeeds.
func (s *PostService) DeletePost(ctx context.Context, rawID, userID string) error {
	id, ok := models.CanonicalPostID(rawID)
	if !ok {
		return models.NewMalformedIDError(rawID)
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return models.NewStoreError(err)
	}

	s.invalidate(ctx, id)
	s.publish(ctx, notifications.EventPostDeleted, id, nil, userID)
	return nil
}

func (s *PostService) cacheEnabled() bool {
	return s.flags.On(featureflags.PostCache)
}

func (s *PostService) invalidate(ctx context.Context, id string) {
	cache.InvalidatePost(ctx, id)
	cache.InvalidatePostsList(ctx)
}

func (s *PostService) publish(ctx context.Context, eventType, id string, post *models.Post, actor string) {
	if s.events == nil || !s.flags.On(featureflags.LiveFeed) {
		return
	}
	if err := s.events.PublishPostEvent(ctx, notifications.NewPostEvent(eventType, id, post, actor)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish post event",
			"event_type", eventType, "post_id", id, "error", err.Error())
	}
}

func mapRepoError(id string, err error) error {
	if errors.Is(err, models.ErrPostNotFound) {
		return models.NewNotFoundError(id)
	}
	return models.NewStoreError(err)
}
