package router // package router builds the Echo instance and registers its routes

import (
	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // import Echo's bundled middleware for recovery, logging and body limits
	"github.com/labstack/gommon/log"                // import the logger Echo ships with to control its level

	"github.com/iliyamo/lan-echo-server/internal/config"  // import runtime configuration
	"github.com/iliyamo/lan-echo-server/internal/handler" // import the handlers serving each route
)

// New returns an Echo instance configured from cfg with every route
// registered.  cache wraps the greeting route; pass nil to serve it
// uncached.
func New(cfg config.Config, cache echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	// Debug mirrors a development server: verbose error bodies and debug logs.
	e.Debug = cfg.Debug
	if cfg.Debug {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	RegisterRoutes(e, cache)
	return e
}

// RegisterRoutes maps the two public routes.  Any other method or path is
// left to Echo's default 404/405 handling.
func RegisterRoutes(e *echo.Echo, cache echo.MiddlewareFunc) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache)
	}
	// GET / returns the plain-text greeting.
	e.GET("/", handler.Root, mws...)
	// POST /api/data echoes the name and age fields of a JSON object.
	e.POST("/api/data", handler.Data)
}
