package handlers

import (
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/anjiri1684/studio_booking/middleware"
	"github.com/anjiri1684/studio_booking/websocket"
)

type FeedHandler struct {
	hub *websocket.Hub
}

func NewFeedHandler(hub *websocket.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Upgrade rejects plain HTTP requests and carries the admin id into the socket.
func (h *FeedHandler) Upgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("admin_id", middleware.AdminID(c))
	return c.Next()
}

func (h *FeedHandler) Serve() fiber.Handler {
	return websocketcontrib.New(func(c *websocketcontrib.Conn) {
		adminID, _ := c.Locals("admin_id").(string)
		h.hub.Serve(c, adminID)
	})
}
