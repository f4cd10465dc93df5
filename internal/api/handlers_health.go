// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/mapkit"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	access  *mapAccess
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, access *mapAccess) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		access:  access,
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Ready   bool   `json:"ready"`
	Layers  int    `json:"layers"`
}

// HandleHealth returns server health status. A loop that does not answer
// reports "degraded" with a 503.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp, err := query(c.Request().Context(), h.access, func(r *mapkit.Root) (healthResponse, error) {
		return healthResponse{Status: "ok", Ready: r.Ready(), Layers: len(r.Layers())}, nil
	})
	resp.Version = h.version
	if err != nil {
		resp.Status = "degraded"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
