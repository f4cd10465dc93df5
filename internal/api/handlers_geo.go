// handlers_geo.go - Geocoding and routing add-on handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/routing"
)

// GeoHandlerImpl implements the GeoHandler interface. Either add-on may be
// nil when its service key is not configured.
type GeoHandlerImpl struct {
	access     *mapAccess
	search     *geocode.Search
	directions *routing.Directions
}

// NewGeoHandler creates a new geo handler instance
func NewGeoHandler(access *mapAccess, search *geocode.Search, directions *routing.Directions) GeoHandler {
	return &GeoHandlerImpl{access: access, search: search, directions: directions}
}

// HandleGeocode searches places within the configured bounds
func (h *GeoHandlerImpl) HandleGeocode(c echo.Context) error {
	if h.search == nil {
		return NewServiceUnavailableError("geocoding is not configured")
	}

	matches, err := h.search.Query(c.Request().Context(), c.QueryParam("q"))
	if errors.Is(err, geocode.ErrEmptyQuery) {
		return NewValidationError("q")
	}
	if err != nil {
		return NewBadGatewayError("geocoding", err)
	}
	if matches == nil {
		matches = []geocode.Match{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

// HandleGeocodeSelect fits the map to a search result
func (h *GeoHandlerImpl) HandleGeocodeSelect(c echo.Context) error {
	if h.search == nil {
		return NewServiceUnavailableError("geocoding is not configured")
	}

	var m geocode.Match
	if err := c.Bind(&m); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	ctx := c.Request().Context()
	view, err := query(ctx, h.access, func(r *mapkit.Root) (models.ViewOptions, error) {
		h.search.Select(m)
		return r.Map().View(), nil
	})
	if err != nil {
		return err
	}
	h.access.publish(ctx)
	return c.JSON(http.StatusOK, view)
}

type routeRequest struct {
	From *models.LatLng `json:"from"`
	To   *models.LatLng `json:"to"`
}

type routeResponse struct {
	Route routing.Route `json:"route"`
	Legal string        `json:"legal"`
}

// HandleRoute sets the endpoints that are present in the body and
// navigates between the current endpoints.
func (h *GeoHandlerImpl) HandleRoute(c echo.Context) error {
	if h.directions == nil {
		return NewServiceUnavailableError("directions are not configured")
	}

	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	type navResult struct {
		route routing.Route
		err   error
	}
	ctx := c.Request().Context()
	done := make(chan navResult, 1)
	if err := h.access.do(ctx, func(*mapkit.Root) error {
		if req.From != nil {
			h.directions.From(*req.From)
		}
		if req.To != nil {
			h.directions.To(*req.To)
		}
		h.directions.Nav(ctx, func(route routing.Route, err error) {
			done <- navResult{route, err}
		})
		return nil
	}); err != nil {
		return err
	}

	var res navResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(res.err, routing.ErrIncomplete) {
		return FromError(res.err)
	}
	if res.err != nil {
		return NewBadGatewayError("directions", res.err)
	}

	h.access.publish(ctx)
	return c.JSON(http.StatusOK, routeResponse{Route: res.route, Legal: routing.MapQuestLegal})
}

// HandleClearRoute removes the drawn route
func (h *GeoHandlerImpl) HandleClearRoute(c echo.Context) error {
	if h.directions == nil {
		return NewServiceUnavailableError("directions are not configured")
	}

	if err := h.access.mutate(c.Request().Context(), func(*mapkit.Root) error {
		h.directions.Clear()
		return nil
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
