package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	matches []geocode.Match
	err     error
}

func (g *fakeGeocoder) Search(_ context.Context, query string) ([]geocode.Match, error) {
	return g.matches, g.err
}

type fakeRouter struct {
	err error
}

func (r *fakeRouter) Route(_ context.Context, from, to models.LatLng) (routing.Route, error) {
	if r.err != nil {
		return routing.Route{}, r.err
	}
	return routing.Route{Points: []models.LatLng{from, to}, Distance: 61.4, Seconds: 3600}, nil
}

var santaFe = geocode.Match{
	Name:   "Santa Fe, New Mexico",
	Center: models.LatLng{Lat: 35.687, Lng: -105.938},
	BBox: models.Bounds{
		SouthWest: models.LatLng{Lat: 35.6, Lng: -106.1},
		NorthEast: models.LatLng{Lat: 35.8, Lng: -105.9},
	},
}

func TestGeo_NotConfigured(t *testing.T) {
	f := newAPIFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/geocode?q=santa"},
		{http.MethodPost, "/api/geocode/select"},
		{http.MethodPost, "/api/route"},
		{http.MethodDelete, "/api/route"},
	} {
		rec := f.request(t, tc.method, tc.path, map[string]string{})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, tc.path)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, rec).Code)
	}
}

func TestGeocode(t *testing.T) {
	g := &fakeGeocoder{matches: []geocode.Match{santaFe}}
	f := newAPIFixture(t, withGeo(g, &fakeRouter{}))

	rec := f.request(t, http.MethodGet, "/api/geocode?q=%20%20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)

	rec = f.request(t, http.MethodGet, "/api/geocode?q=santa+fe", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Matches []geocode.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, santaFe.Name, resp.Matches[0].Name)

	g.err = errors.New("quota exceeded")
	rec = f.request(t, http.MethodGet, "/api/geocode?q=santa+fe", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM_ERROR", decodeError(t, rec).Code)
}

func TestGeocodeSelect(t *testing.T) {
	f := newAPIFixture(t, withGeo(&fakeGeocoder{}, &fakeRouter{}))

	rec := f.request(t, http.MethodPost, "/api/geocode/select", santaFe)
	require.Equal(t, http.StatusOK, rec.Code)

	want := models.LatLng{Lat: 35.7, Lng: -106.0}
	center := f.state(t).View.Center
	assert.InDelta(t, want.Lat, center.Lat, 1e-9)
	assert.InDelta(t, want.Lng, center.Lng, 1e-9)
}

func TestRoute(t *testing.T) {
	router := &fakeRouter{}
	f := newAPIFixture(t, withGeo(&fakeGeocoder{}, router))

	from := models.LatLng{Lat: 35.08, Lng: -106.65}
	to := models.LatLng{Lat: 35.68, Lng: -105.94}

	rec := f.request(t, http.MethodPost, "/api/route", routeRequest{From: &from})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a route needs both endpoints")

	rec = f.request(t, http.MethodPost, "/api/route", routeRequest{To: &to})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp routeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []models.LatLng{from, to}, resp.Route.Points)
	assert.Contains(t, resp.Legal, "MapQuest")

	center := f.state(t).View.Center
	assert.InDelta(t, (from.Lat+to.Lat)/2, center.Lat, 1e-9, "the map fits the route")

	router.err = errors.New("mapquest status 402")
	rec = f.request(t, http.MethodPost, "/api/route", routeRequest{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = f.request(t, http.MethodDelete, "/api/route", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
