// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// MapHandler exposes the map state and whole-map interactions
type MapHandler interface {
	HandleGetState(c echo.Context) error
	HandleGetStateMsgpack(c echo.Context) error
	HandleFilter(c echo.Context) error
	HandleClickMarker(c echo.Context) error
}

// LayerHandler handles layer creation and visibility
type LayerHandler interface {
	HandleListLayers(c echo.Context) error
	HandleCreateLayer(c echo.Context) error
	HandleSelectLayer(c echo.Context) error
	HandleShowLayer(c echo.Context) error
	HandleHideLayer(c echo.Context) error
	HandleShowAll(c echo.Context) error
	HandleHideAll(c echo.Context) error
}

// DataHandler handles uploaded layer data files
type DataHandler interface {
	HandleUploadData(c echo.Context) error
	HandleUploadDataFile(c echo.Context) error
	HandleListData(c echo.Context) error
	HandleGetData(c echo.Context) error
	HandleDeleteData(c echo.Context) error
}

// GeoHandler handles the geocoding and routing add-ons
type GeoHandler interface {
	HandleGeocode(c echo.Context) error
	HandleGeocodeSelect(c echo.Context) error
	HandleRoute(c echo.Context) error
	HandleClearRoute(c echo.Context) error
}

// StreamHandler pushes map state over a WebSocket
type StreamHandler interface {
	HandleWebSocket(c echo.Context) error
}
