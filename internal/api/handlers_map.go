// handlers_map.go - Map state and map-wide interaction handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/filter"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/vmihailenco/msgpack/v5"
)

// MapHandlerImpl implements the MapHandler interface
type MapHandlerImpl struct {
	access *mapAccess
}

// NewMapHandler creates a new map handler instance
func NewMapHandler(access *mapAccess) MapHandler {
	return &MapHandlerImpl{access: access}
}

// HandleGetState returns the current map snapshot as JSON
func (h *MapHandlerImpl) HandleGetState(c echo.Context) error {
	st, err := h.access.snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// HandleGetStateMsgpack returns the current map snapshot as MessagePack
func (h *MapHandlerImpl) HandleGetStateMsgpack(c echo.Context) error {
	st, err := h.access.snapshot(c.Request().Context())
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(st)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

type filterRequest struct {
	Query string `json:"query"`
}

// HandleFilter hides every location whose entry text does not contain the
// query. An empty query shows everything.
func (h *MapHandlerImpl) HandleFilter(c echo.Context) error {
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	ctx := c.Request().Context()
	res, err := query(ctx, h.access, func(r *mapkit.Root) (filter.Result, error) {
		return r.Filter(req.Query), nil
	})
	if err != nil {
		return err
	}
	h.access.publish(ctx)
	return c.JSON(http.StatusOK, res)
}

// HandleClickMarker clicks the marker with the given correlation id, which
// pans the map to it.
func (h *MapHandlerImpl) HandleClickMarker(c echo.Context) error {
	cid := c.Param("cid")
	if cid == "" {
		return NewValidationError("cid")
	}

	err := h.access.mutate(c.Request().Context(), func(r *mapkit.Root) error {
		return r.ClickMarker(cid)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"correlationId": cid})
}
