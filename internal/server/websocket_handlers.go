package server

import (
	"errors"

	"postboard/internal/featureflags"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveFeedUpgrade rejects plain HTTP requests and requests made while the live feed is off.
// A valid bearer token is optional; it only labels the connection.
func (s *Server) LiveFeedUpgrade() fiber.Handler {
	optional := s.auth.Optional()
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.On(featureflags.LiveFeed) {
			return models.RespondWithMessage(c, fiber.StatusNotFound, "Live feed is disabled")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithMessage(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
		}
		return optional(c)
	}
}

// LiveFeedHandler streams post events to the connected client.
// @Summary Live post events
// @Description WebSocket stream of post_created, post_updated, post_liked, post_commented and post_deleted events
// @Tags posts
// @Success 101
// @Router /posts/live [get]
func (s *Server) LiveFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(middleware.LocalUserID).(string)

		client, err := s.hub.Register(conn, userID)
		if err != nil {
			reason := "live feed unavailable"
			if errors.Is(err, notifications.ErrHubFull) {
				reason = err.Error()
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, reason))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("live feed client connected", "user_id", userID)
		go client.WritePump()
		client.ReadPump()
		middleware.Logger.Info("live feed client disconnected", "user_id", userID)
	})
}
