package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a set of routes into the fiber app
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, routers ...Router) {
	for _, r := range routers {
		r.InstallRouter(app)
	}
}
