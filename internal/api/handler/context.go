package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// viewerID returns the authenticated user id, or "" for anonymous requests.
// Read-only endpoints use it to scope visibility without requiring auth.
func viewerID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// actorID returns the authenticated user id and fails fast when the Auth
// middleware did not run. Mutation endpoints must never see an empty actor.
func actorID(c echo.Context) (string, error) {
	id, _ := c.Get("user_id").(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
