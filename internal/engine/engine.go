// Package engine declares the capabilities the map core consumes from the
// tile-rendering engine and the page DOM. Implementations are driven from the
// pipeline loop and need not be safe for concurrent use.
package engine

import "github.com/layermap/backend/internal/models"

// FilterClass marks panel entries that take part in text filtering.
const FilterClass = "filterEl"

// CorrelationAttr is the panel entry attribute holding the correlation id.
const CorrelationAttr = "data-correlation-id"

// Map is the tile-rendering engine.
type Map interface {
	CreateView(target string, opts models.ViewOptions) error
	AddTileLayer(t models.TileLayer) error
	SetMaxBounds(b models.Bounds)
	View() models.ViewOptions

	NewLayerGroup(name string) LayerGroup
	AddLayer(g LayerGroup)
	RemoveLayer(g LayerGroup)
	HasLayer(g LayerGroup) bool

	NewMarker(spec MarkerSpec) Marker
	PanTo(p models.LatLng)
	FitBounds(b models.Bounds)

	// Markers returns every marker created on this map, in creation order.
	Markers() []Marker
}

// MarkerSpec describes a marker to create.
type MarkerSpec struct {
	Position      models.LatLng
	Icon          *models.Icon
	Popup         string
	CorrelationID string
}

// LayerGroup is a toggleable set of map overlays.
type LayerGroup interface {
	Name() string
	AddMarker(m Marker)
	AddPolyline(pts []models.LatLng)
	Markers() []Marker
}

// Marker is a single point overlay.
type Marker interface {
	CorrelationID() string
	Position() models.LatLng
	Icon() *models.Icon
	Popup() string
	OnClick(fn func())
	Click()
	Show()
	Hide()
	Visible() bool
}

// MarkerSource lists markers; Map satisfies it.
type MarkerSource interface {
	Markers() []Marker
}

// DOM is the page document holding the side panel.
type DOM interface {
	// Append parses fragment and appends it under the element with parentID.
	Append(parentID, fragment string) error
	Exists(id string) bool
	ByClass(class string) []Element
	OuterHTML(id string) (string, bool)
}

// Element is one DOM element.
type Element interface {
	ID() string
	Attr(key string) string
	Text() string
	Show()
	Hide()
	Visible() bool
}
