// Package geocode implements bounded place search and fitting the map to a
// selected result.
package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/models"
)

// Match is one search result.
type Match struct {
	Name   string        `json:"name" msgpack:"name"`
	Center models.LatLng `json:"center" msgpack:"center"`
	BBox   models.Bounds `json:"bbox" msgpack:"bbox"`
}

// Geocoder resolves free text to places.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Match, error)
}

// ErrEmptyQuery is returned for blank searches.
var ErrEmptyQuery = errors.New("search query is empty")

// Search runs queries and moves the map to selections.
type Search struct {
	geocoder Geocoder
	m        engine.Map
}

// NewSearch creates a search over geocoder. m is only touched by Select.
func NewSearch(geocoder Geocoder, m engine.Map) *Search {
	return &Search{geocoder: geocoder, m: m}
}

// Query resolves query. It does not touch the map and may run off the loop.
func (s *Search) Query(ctx context.Context, query string) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.geocoder.Search(ctx, query)
}

// Select fits the map to the match's bounding box. Must run on the loop.
func (s *Search) Select(m Match) {
	s.m.FitBounds(m.BBox)
}
