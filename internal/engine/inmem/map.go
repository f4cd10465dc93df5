// Package inmem provides headless implementations of the engine
// capabilities: a map that records its overlays and camera, and a DOM backed
// by golang.org/x/net/html.
package inmem

import (
	"errors"

	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/models"
)

// ErrNoView is returned when an operation needs a created view.
var ErrNoView = errors.New("map view not created")

// Map is an in-memory engine.Map.
type Map struct {
	target    string
	created   bool
	view      models.ViewOptions
	tiles     []models.TileLayer
	attached  map[*Group]bool
	markers   []engine.Marker
	pans      []models.LatLng
	fitBounds []models.Bounds
}

// NewMap creates a map with no view.
func NewMap() *Map {
	return &Map{attached: make(map[*Group]bool)}
}

func (m *Map) CreateView(target string, opts models.ViewOptions) error {
	if target == "" {
		return errors.New("map target id is empty")
	}
	m.target = target
	m.view = opts
	m.created = true
	return nil
}

func (m *Map) AddTileLayer(t models.TileLayer) error {
	if !m.created {
		return ErrNoView
	}
	m.tiles = append(m.tiles, t)
	return nil
}

func (m *Map) SetMaxBounds(b models.Bounds) {
	m.view.MaxBounds = &b
}

func (m *Map) View() models.ViewOptions { return m.view }

// Target returns the id of the surface the view is bound to.
func (m *Map) Target() string { return m.target }

// Tiles returns the tile layers in the order they were added.
func (m *Map) Tiles() []models.TileLayer { return m.tiles }

func (m *Map) NewLayerGroup(name string) engine.LayerGroup {
	return &Group{name: name}
}

func (m *Map) AddLayer(g engine.LayerGroup) {
	if grp, ok := g.(*Group); ok {
		m.attached[grp] = true
	}
}

func (m *Map) RemoveLayer(g engine.LayerGroup) {
	if grp, ok := g.(*Group); ok {
		delete(m.attached, grp)
	}
}

// Attached returns how many layer groups are on the map.
func (m *Map) Attached() int { return len(m.attached) }

func (m *Map) HasLayer(g engine.LayerGroup) bool {
	grp, ok := g.(*Group)
	return ok && m.attached[grp]
}

func (m *Map) NewMarker(spec engine.MarkerSpec) engine.Marker {
	mk := &Marker{spec: spec, visible: true}
	m.markers = append(m.markers, mk)
	return mk
}

// PanTo re-centers the view without changing zoom.
func (m *Map) PanTo(p models.LatLng) {
	m.view.Center = p
	m.pans = append(m.pans, p)
}

// FitBounds centers the view on b.
func (m *Map) FitBounds(b models.Bounds) {
	m.view.Center = models.LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
	m.fitBounds = append(m.fitBounds, b)
}

// Pans returns every PanTo target in call order.
func (m *Map) Pans() []models.LatLng { return m.pans }

// FittedBounds returns every FitBounds argument in call order.
func (m *Map) FittedBounds() []models.Bounds { return m.fitBounds }

func (m *Map) Markers() []engine.Marker { return m.markers }

// Group is an in-memory engine.LayerGroup.
type Group struct {
	name      string
	markers   []engine.Marker
	polylines [][]models.LatLng
}

func (g *Group) Name() string { return g.name }

func (g *Group) AddMarker(mk engine.Marker) { g.markers = append(g.markers, mk) }

func (g *Group) AddPolyline(pts []models.LatLng) {
	g.polylines = append(g.polylines, append([]models.LatLng(nil), pts...))
}

func (g *Group) Markers() []engine.Marker { return g.markers }

// Polylines returns the polylines drawn in this group.
func (g *Group) Polylines() [][]models.LatLng { return g.polylines }

// Marker is an in-memory engine.Marker.
type Marker struct {
	spec     engine.MarkerSpec
	visible  bool
	handlers []func()
}

func (mk *Marker) CorrelationID() string { return mk.spec.CorrelationID }
func (mk *Marker) Position() models.LatLng { return mk.spec.Position }
func (mk *Marker) Icon() *models.Icon { return mk.spec.Icon }
func (mk *Marker) Popup() string { return mk.spec.Popup }
func (mk *Marker) OnClick(fn func()) { mk.handlers = append(mk.handlers, fn) }
func (mk *Marker) Show() { mk.visible = true }
func (mk *Marker) Hide() { mk.visible = false }
func (mk *Marker) Visible() bool { return mk.visible }

// Click fires the registered click handlers in order.
func (mk *Marker) Click() {
	for _, fn := range mk.handlers {
		fn()
	}
}
