// Package routing draws driving directions between two points on the map.
package routing

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/models"
)

// Route is a resolved path.
type Route struct {
	Points   []models.LatLng `json:"points" msgpack:"points"`
	Distance float64         `json:"distance" msgpack:"distance"` // miles
	Seconds  int             `json:"seconds" msgpack:"seconds"`
}

// Router resolves a route between two coordinates.
type Router interface {
	Route(ctx context.Context, from, to models.LatLng) (Route, error)
}

// Poster schedules work on the loop that owns the map.
type Poster interface {
	Post(fn func())
}

// ErrIncomplete is returned by Nav when either endpoint is unset.
var ErrIncomplete = errors.New("directions need both a start and an end")

// Directions keeps the route endpoints and the drawn route overlay. All
// methods must run on the loop; Nav's completion is posted back to it.
type Directions struct {
	router Router
	m      engine.Map
	loop   Poster
	log    *log.Logger

	from, to *models.LatLng
	overlay  engine.LayerGroup
	gen      int
}

// NewDirections creates a controller drawing on m.
func NewDirections(router Router, m engine.Map, loop Poster, logger *log.Logger) *Directions {
	return &Directions{router: router, m: m, loop: loop, log: logger.WithPrefix("routing")}
}

// From sets the start point.
func (d *Directions) From(p models.LatLng) { d.from = &p }

// To sets the end point.
func (d *Directions) To(p models.LatLng) { d.to = &p }

// Visible reports whether a route overlay is drawn.
func (d *Directions) Visible() bool { return d.overlay != nil }

// Clear removes the drawn route, if any. A navigation still in flight no
// longer draws when it completes.
func (d *Directions) Clear() {
	d.gen++
	if d.overlay != nil {
		d.m.RemoveLayer(d.overlay)
		d.overlay = nil
	}
}

// Nav clears the current route and requests a new one. On success the route
// is drawn and the map fits its bounds. done runs on the loop.
func (d *Directions) Nav(ctx context.Context, done func(Route, error)) {
	d.Clear()
	if d.from == nil || d.to == nil {
		done(Route{}, ErrIncomplete)
		return
	}
	from, to, gen := *d.from, *d.to, d.gen
	go func() {
		route, err := d.router.Route(ctx, from, to)
		d.loop.Post(func() {
			if err == nil && gen == d.gen {
				d.draw(route)
			}
			if err != nil {
				d.log.Error("route request failed", "from", from, "to", to, "err", err)
			}
			done(route, err)
		})
	}()
}

func (d *Directions) draw(route Route) {
	g := d.m.NewLayerGroup("route")
	g.AddPolyline(route.Points)
	d.m.AddLayer(g)
	d.overlay = g
	if b, ok := models.BoundsOf(route.Points); ok {
		d.m.FitBounds(b)
	}
	d.log.Info("route drawn", "points", len(route.Points), "miles", route.Distance)
}
