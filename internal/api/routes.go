// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/layermap/backend/internal/catalog"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/routing"
	"github.com/layermap/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Root       *mapkit.Root
	Builder    *catalog.Builder
	Store      storage.Store
	Search     *geocode.Search     // nil disables geocoding
	Directions *routing.Directions // nil disables directions
	Version    string

	// CallTimeout bounds how long a request waits for the map loop.
	CallTimeout time.Duration
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Map    MapHandler
	Layer  LayerHandler
	Data   DataHandler
	Geo    GeoHandler
	Stream StreamHandler
	Hub    *Hub
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	hub := NewHub()
	access := newMapAccess(deps.Root, deps.CallTimeout, hub)
	return &Handlers{
		Health: NewHealthHandler(deps.Version, access),
		Map:    NewMapHandler(access),
		Layer:  NewLayerHandler(access, deps.Builder),
		Data:   NewDataHandler(deps.Store),
		Geo:    NewGeoHandler(access, deps.Search, deps.Directions),
		Stream: NewWebSocketHandler(access, hub),
		Hub:    hub,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Map state and interaction
	apiGroup.GET("/map/state", handlers.Map.HandleGetState)
	apiGroup.GET("/map/state/msgpack", handlers.Map.HandleGetStateMsgpack)
	apiGroup.POST("/filter", handlers.Map.HandleFilter)
	apiGroup.POST("/markers/:cid/click", handlers.Map.HandleClickMarker)

	// Layers
	layers := apiGroup.Group("/layers")
	layers.GET("", handlers.Layer.HandleListLayers)
	layers.POST("", handlers.Layer.HandleCreateLayer)
	layers.POST("/show-all", handlers.Layer.HandleShowAll)
	layers.POST("/hide-all", handlers.Layer.HandleHideAll)
	layers.POST("/:name/select", handlers.Layer.HandleSelectLayer)
	layers.POST("/:name/show", handlers.Layer.HandleShowLayer)
	layers.POST("/:name/hide", handlers.Layer.HandleHideLayer)

	// Uploaded layer data
	data := apiGroup.Group("/data")
	data.POST("", handlers.Data.HandleUploadData)
	data.POST("/file", handlers.Data.HandleUploadDataFile)
	data.GET("", handlers.Data.HandleListData)
	data.GET("/:id", handlers.Data.HandleGetData)
	data.DELETE("/:id", handlers.Data.HandleDeleteData)

	// Add-ons
	apiGroup.GET("/geocode", handlers.Geo.HandleGeocode)
	apiGroup.POST("/geocode/select", handlers.Geo.HandleGeocodeSelect)
	apiGroup.POST("/route", handlers.Geo.HandleRoute)
	apiGroup.DELETE("/route", handlers.Geo.HandleClearRoute)

	apiGroup.GET("/ws", handlers.Stream.HandleWebSocket)
}

// MiddlewareOptions selects the optional middleware
type MiddlewareOptions struct {
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   string // comma separated
	BodyLimit      string // e.g. "10M"
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	if opts.RequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/api/metrics" || path == "/api/map/state"
			},
		}))
	}
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))

	if opts.EnableCORS {
		origins := []string{"*"}
		if opts.AllowOrigins != "" && opts.AllowOrigins != "*" {
			origins = strings.Split(opts.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
}
