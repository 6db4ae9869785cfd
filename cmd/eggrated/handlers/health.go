package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/eggrates/eggrate/pkg/api/types/errors"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
)

// HealthHandler answers 200 when the database is reachable.
func HealthHandler(dbPlaces kplaces.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if _, err := dbPlaces.States(ctx); err != nil {
			return apierr.ServiceUnavailable("try again later", err)
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
