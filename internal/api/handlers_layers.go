// handlers_layers.go - Layer creation and visibility handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/catalog"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
)

// LayerHandlerImpl implements the LayerHandler interface
type LayerHandlerImpl struct {
	access  *mapAccess
	builder *catalog.Builder
}

// NewLayerHandler creates a new layer handler instance
func NewLayerHandler(access *mapAccess, builder *catalog.Builder) LayerHandler {
	return &LayerHandlerImpl{access: access, builder: builder}
}

// HandleListLayers returns every registered layer in registration order
func (h *LayerHandlerImpl) HandleListLayers(c echo.Context) error {
	layers, err := query(c.Request().Context(), h.access, func(r *mapkit.Root) ([]models.LayerState, error) {
		out := make([]models.LayerState, 0, len(r.Layers()))
		for _, l := range r.Layers() {
			out = append(out, l.State())
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"layers": layers,
	})
}

// HandleCreateLayer registers a new layer. The layer is returned as soon as
// its pipeline starts; remote data keeps loading in the background.
func (h *LayerHandlerImpl) HandleCreateLayer(c echo.Context) error {
	var spec models.LayerSpec
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if spec.Name == "" {
		return NewValidationError("name")
	}
	if spec.Source == "" && spec.Records == nil {
		return NewValidationError("source")
	}

	ctx := c.Request().Context()
	st, err := query(ctx, h.access, func(r *mapkit.Root) (models.LayerState, error) {
		l, err := h.builder.Build(spec)
		if err != nil {
			return models.LayerState{}, err
		}
		return l.State(), nil
	})
	if err != nil {
		return err
	}
	h.access.publish(ctx)
	return c.JSON(http.StatusCreated, st)
}

// HandleSelectLayer hides every layer, then shows the named one
func (h *LayerHandlerImpl) HandleSelectLayer(c echo.Context) error {
	return h.visibility(c, (*mapkit.Root).Select)
}

// HandleShowLayer shows the named layer
func (h *LayerHandlerImpl) HandleShowLayer(c echo.Context) error {
	return h.visibility(c, (*mapkit.Root).ShowByName)
}

// HandleHideLayer hides the named layer
func (h *LayerHandlerImpl) HandleHideLayer(c echo.Context) error {
	return h.visibility(c, (*mapkit.Root).HideByName)
}

// HandleShowAll shows every rendered layer
func (h *LayerHandlerImpl) HandleShowAll(c echo.Context) error {
	return h.all(c, (*mapkit.Root).ShowAll)
}

// HandleHideAll hides every rendered layer
func (h *LayerHandlerImpl) HandleHideAll(c echo.Context) error {
	return h.all(c, (*mapkit.Root).HideAll)
}

func (h *LayerHandlerImpl) visibility(c echo.Context, op func(*mapkit.Root, string) error) error {
	name := c.Param("name")
	if name == "" {
		return NewValidationError("name")
	}
	if err := h.access.mutate(c.Request().Context(), func(r *mapkit.Root) error {
		return op(r, name)
	}); err != nil {
		return err
	}
	return h.HandleListLayers(c)
}

func (h *LayerHandlerImpl) all(c echo.Context, op func(*mapkit.Root)) error {
	if err := h.access.mutate(c.Request().Context(), func(r *mapkit.Root) error {
		op(r)
		return nil
	}); err != nil {
		return err
	}
	return h.HandleListLayers(c)
}
