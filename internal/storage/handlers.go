package storage

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store Store, authMiddleware fiber.Handler) {
	r.Get("/storage/:key", authMiddleware, func(c *fiber.Ctx) error {
		sessionID, _ := c.Locals("session_id").(string)
		if sessionID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "session required")
		}
		value, ok, err := store.GetItem(c.Context(), sessionID, c.Params("key"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "key not found")
		}
		return c.JSON(fiber.Map{"key": c.Params("key"), "value": value})
	})
}
