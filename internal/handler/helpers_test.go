package handler

import (
	"context"

	"github.com/finchapp/finch/finch-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// setupAuthContext injects an authenticated user into the request context,
// mirroring what middleware.Authenticate does after token validation.
func setupAuthContext(c echo.Context, userID string) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserIDKey, userID)
	c.SetRequest(c.Request().WithContext(ctx))
}
