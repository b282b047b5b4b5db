package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ValidateFunc resolves a token to its session id.
type ValidateFunc func(token string) (string, error)

func RegisterRoutes(r fiber.Router, hub *Hub, validate ValidateFunc) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})

	r.Get("/ws/:sessionID", func(c *fiber.Ctx) error {
		sessionID, err := validate(c.Query("token"))
		if err != nil || sessionID != c.Params("sessionID") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session token")
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("sessionID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
