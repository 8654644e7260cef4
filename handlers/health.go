package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/database"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
)

// Pinger is a backing service that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports liveness and the reachability of the database and
// cache. Either may be nil when it is not configured.
func HealthCheck(cache Pinger) func(c *fiber.Ctx, store database.Storage) error {
	return func(c *fiber.Ctx, store database.Storage) error {
		status := fiber.Map{"status": "ok", "database": "disabled", "cache": "disabled"}

		if store != nil {
			if err := store.HealthCheck(); err != nil {
				return response.ServiceUnavailable(c, "Database unreachable")
			}
			status["database"] = "ok"
		}

		if cache != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				return response.ServiceUnavailable(c, "Cache unreachable")
			}
			status["cache"] = "ok"
		}

		return response.Success(c, status)
	}
}
