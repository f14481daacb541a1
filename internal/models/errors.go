package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// User-visible messages shared by several routes.
const (
	MsgPostNotFound    = "Sorry, could not find such post."
	MsgNoPostWithID    = "No post with that id"
	MsgUnauthenticated = "Unauthorised! Try signing In or signing Up."
	MsgPostDeleted     = "Post successfully deleted"
)

var (
	// ErrPostNotFound reports that no post exists for an identifier.
	ErrPostNotFound = errors.New("post not found")
	// ErrMalformedID reports an identifier that is not a well-formed post id.
	ErrMalformedID = errors.New("malformed post id")
	// ErrUnauthenticated reports a missing acting-user identifier.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error codes carried by AppError.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeMalformedID  = "MALFORMED_ID"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeStore        = "STORE_FAILURE"
)

// ErrorResponse represents the standardized `{message}` error body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing post.
func NewNotFoundError(id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: MsgPostNotFound,
		Err:     fmt.Errorf("%w: %s", ErrPostNotFound, id),
	}
}

// NewMalformedIDError reports an identifier that cannot name a post.
func NewMalformedIDError(id string) *AppError {
	return &AppError{
		Code:    CodeMalformedID,
		Message: fmt.Sprintf("invalid post id %q", id),
		Err:     ErrMalformedID,
	}
}

// NewUnauthorizedError reports a request without an acting user.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Err:     ErrUnauthenticated,
	}
}

// NewStoreError wraps a persistence failure.
func NewStoreError(err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: err.Error(),
		Err:     err,
	}
}

// Message returns the user-visible message for err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// RespondWithError writes err as a `{message}` JSON body with the given status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(ErrorResponse{Message: Message(err)})
}

// RespondWithMessage writes a `{message}` JSON body with the given status.
func RespondWithMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{Message: message})
}

// RespondWithText writes a plain-text body, used by the malformed-identifier paths.
func RespondWithText(c *fiber.Ctx, status int, text string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(status).SendString(text)
}
