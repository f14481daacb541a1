package server

import (
	"errors"

	"postboard/internal/middleware"
	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /posts?page=N
// @Summary List posts
// @Description Newest-first page of four posts
// @Tags posts
// @Produce json
// @Param page query int false "1-based page number"
// @Success 200 {object} models.PostsPage
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), parsePage(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /posts/:postId
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{postId} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPost(c.UserContext(), c.Params("postId"))
	switch {
	case err == nil:
		return c.JSON(post)
	case isNotFound(err):
		return models.RespondWithMessage(c, fiber.StatusNotFound, models.MsgPostNotFound)
	default:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
}

// SearchPosts handles GET /posts/search?searchQuery=...&tags=a,b
// @Summary Search posts
// @Description Title substring (case-insensitive) or any matching tag
// @Tags posts
// @Produce json
// @Param searchQuery query string false "Title substring"
// @Param tags query string false "Comma-separated tags"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.postService.SearchPosts(c.UserContext(), c.Query("searchQuery"), c.Query("tags"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body models.CreatePostRequest true "Post fields"
// @Success 201 {object} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req models.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /posts/:postId
// @Summary Update a post
// @Description Writes only the fields present in the body
// @Tags posts
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param request body models.UpdatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 404 {string} string "No post with that id"
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{postId} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id := c.Params("postId")
	if !models.IsValidPostID(id) {
		return respondNoPost(c)
	}

	var req models.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), id, middleware.UserID(c), req)
	switch {
	case err == nil:
		return c.JSON(post)
	case isMalformed(err), isNotFound(err):
		return respondNoPost(c)
	default:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
}

// LikePost handles PATCH /posts/:postId/likePost
// @Summary Toggle the caller's like
// @Tags posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {string} string "No post with that id"
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{postId}/likePost [patch]
func (s *Server) LikePost(c *fiber.Ctx) error {
	post, err := s.postService.ToggleLike(c.UserContext(), c.Params("postId"), middleware.UserID(c))
	switch {
	case err == nil:
		return c.JSON(post)
	case errors.Is(err, models.ErrUnauthenticated):
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case isMalformed(err):
		return respondNoPost(c)
	default:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
}

// CommentPost handles POST /posts/:postId/commentPost
// @Summary Append a comment
// @Tags posts
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param request body models.CommentRequest true "Comment"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{postId}/commentPost [post]
func (s *Server) CommentPost(c *fiber.Ctx) error {
	var req models.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}

	post, err := s.postService.AddComment(c.UserContext(), c.Params("postId"), middleware.UserID(c), req.Value)
	switch {
	case err == nil:
		return c.JSON(post)
	case isNotFound(err):
		return models.RespondWithMessage(c, fiber.StatusNotFound, models.MsgPostNotFound)
	default:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {string} string "No post with that id"
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	err := s.postService.DeletePost(c.UserContext(), c.Params("id"), middleware.UserID(c))
	switch {
	case err == nil:
		return c.JSON(models.MessageResponse{Message: models.MsgPostDeleted})
	case isMalformed(err):
		return respondNoPost(c)
	default:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	}
}
