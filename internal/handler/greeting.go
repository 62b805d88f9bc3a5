package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Greeting is the fixed body served on the root path.
const Greeting = "Hello from Flask on local network!"

// Root answers GET / with the greeting as plain text and a 200 status.  The
// request headers and body are ignored.
func Root(c echo.Context) error {
	return c.String(http.StatusOK, Greeting) // String writes text/plain
}
