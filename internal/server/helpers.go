package server

import (
	"errors"
	"strconv"

	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parsePage reads the 1-based page query parameter. Missing, malformed or
// non-positive values select the first page.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// respondNoPost writes the plain-text "No post with that id" 404.
func respondNoPost(c *fiber.Ctx) error {
	return models.RespondWithText(c, fiber.StatusNotFound, models.MsgNoPostWithID)
}

func isMalformed(err error) bool {
	return errors.Is(err, models.ErrMalformedID)
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrPostNotFound)
}
