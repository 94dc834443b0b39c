package api

import "github.com/gofiber/fiber/v2"

// Route is implemented by every feature API. Fx collects all implementations
// into the "routes" group so main can register them in one pass.
type Route interface {
	Setup(app *fiber.App)
}
