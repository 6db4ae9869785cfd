package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/eggrates/eggrate/pkg/api/types/errors"
	apiplaces "github.com/eggrates/eggrate/pkg/api/types/places"
	"github.com/eggrates/eggrate/pkg/domain"
	kplaces "github.com/eggrates/eggrate/pkg/domain/places/db"
)

// DeleteCityHandler removes a city, its rate facts (by cascade) and,
// best-effort, its legacy rows.
func DeleteCityHandler(dbPlaces kplaces.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		place, err := queryParamToPlace(c)
		if err != nil {
			return apierr.BadRequest(`query parameters "city" and "state" are required`, err)
		}

		receipt, err := dbPlaces.RemoveCity(ctx, place)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if receipt.CitiesDeleted == 0 && receipt.LegacyDeleted == 0 {
			return apierr.NotFound()
		}

		return c.JSON(http.StatusOK, apiplaces.ComposeRemovalResult(receipt))
	}
}

// DeleteStateHandler removes a state, its cities and their facts, and,
// best-effort, the matching legacy rows.
func DeleteStateHandler(dbPlaces kplaces.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		state := domain.CanonicalName(c.QueryParam("state"))
		if state == "" {
			return apierr.BadRequest(
				`query parameter "state" is required`,
				errors.New(`"state" is required`),
			)
		}

		receipt, err := dbPlaces.RemoveState(ctx, state)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if receipt.CitiesDeleted == 0 && receipt.LegacyDeleted == 0 {
			return apierr.NotFound()
		}

		return c.JSON(http.StatusOK, apiplaces.ComposeRemovalResult(receipt))
	}
}
