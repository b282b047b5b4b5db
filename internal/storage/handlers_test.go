package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func withSession(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("session_id", id)
		return c.Next()
	}
}

func TestStorageGetHandler(t *testing.T) {
	store := NewMemoryStore()
	_ = store.SetItem(context.Background(), "session-1", KeyCurrentID, "7")

	app := fiber.New()
	RegisterRoutes(app.Group("/app"), store, withSession("session-1"))

	req := httptest.NewRequest(http.MethodGet, "/app/storage/currentId", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/app/storage/sort", nil)
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestStorageGetHandlerNoSession(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/app"), NewMemoryStore(), func(c *fiber.Ctx) error { return c.Next() })

	req := httptest.NewRequest(http.MethodGet, "/app/storage/sort", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}
