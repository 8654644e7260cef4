package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/edtech-checkout/handlers"
	"github.com/sahilchouksey/edtech-checkout/utils/middleware"
	"github.com/sahilchouksey/edtech-checkout/utils/response"
)

// ListCourses handles GET /api/v1/catalog
func ListCourses(c *fiber.Ctx) error {
	s, ok := middleware.GetStorefront(c)
	if !ok {
		return response.InternalServerError(c, "")
	}

	courses, err := s.Catalog()
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, courses)
}
