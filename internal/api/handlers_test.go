package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/catalog"
	"github.com/layermap/backend/internal/engine/inmem"
	"github.com/layermap/backend/internal/filter"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/logging"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/pipeline"
	"github.com/layermap/backend/internal/routing"
	"github.com/layermap/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type apiFixture struct {
	e       *echo.Echo
	root    *mapkit.Root
	fetcher *testutil.ScriptedFetcher
	store   *testutil.MockStorage
}

type fixtureOption func(deps *Dependencies, loop *pipeline.Loop, m *inmem.Map)

func withGeo(g geocode.Geocoder, r routing.Router) fixtureOption {
	return func(deps *Dependencies, loop *pipeline.Loop, m *inmem.Map) {
		deps.Search = geocode.NewSearch(g, m)
		deps.Directions = routing.NewDirections(r, m, loop, logging.Discard())
	}
}

// newAPIFixture starts a root with a Parks layer (two locations) and a
// Trails layer (one location), then runs the loop in the background.
func newAPIFixture(t *testing.T, opts ...fixtureOption) *apiFixture {
	t.Helper()
	loop := pipeline.NewLoop()
	m := inmem.NewMap()
	fetcher := testutil.NewScriptedFetcher()
	root, err := mapkit.NewRoot(loop, mapkit.Options{
		TargetID:    "map",
		PanelID:     "panel",
		View:        models.ViewOptions{Center: models.LatLng{Lat: 35.35, Lng: -106.25}, Zoom: 7},
		Map:         m,
		DOM:         inmem.NewDocument("map", "panel"),
		Fetcher:     fetcher,
		LoadTimeout: time.Second,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)
	require.NoError(t, root.Start())

	store := testutil.NewMockStorage()
	builder := catalog.NewBuilder(root, store)
	_, err = builder.BuildAll(&models.LayerCatalog{Layers: []models.LayerSpec{
		{Name: "Parks", Records: []map[string]any{
			{"name": "Tingley Beach", "lat": 35.09, "lng": -106.68},
			{"name": "Rio Grande Nature Center", "lat": 35.13, "lng": -106.68},
		}},
		{Name: "Trails", PanelStyle: "overlay", Records: []map[string]any{
			{"name": "La Luz", "lat": 35.22, "lng": -106.48},
		}},
	}})
	require.NoError(t, err)
	loop.RunPending()

	deps := &Dependencies{Root: root, Builder: builder, Store: store, Version: "test", CallTimeout: time.Second}
	for _, opt := range opts {
		opt(deps, loop, m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{})
	RegisterRoutes(e, NewHandlers(deps))
	return &apiFixture{e: e, root: root, fetcher: fetcher, store: store}
}

func (f *apiFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) state(t *testing.T) models.MapState {
	t.Helper()
	rec := f.request(t, http.MethodGet, "/api/map/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.MapState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func (f *apiFixture) layers(t *testing.T) map[string]models.LayerState {
	t.Helper()
	rec := f.request(t, http.MethodGet, "/api/layers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Layers []models.LayerState `json:"layers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	out := make(map[string]models.LayerState, len(resp.Layers))
	for _, l := range resp.Layers {
		out[l.Name] = l
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}

func markerNamed(st models.MapState, name string) (models.MarkerState, bool) {
	for _, mk := range st.Markers {
		if mk.Name == name {
			return mk, true
		}
	}
	return models.MarkerState{}, false
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.True(t, resp.Ready)
	assert.Equal(t, 2, resp.Layers)
}

func TestHealth_LoopNotRunning(t *testing.T) {
	loop := pipeline.NewLoop()
	root, err := mapkit.NewRoot(loop, mapkit.Options{
		TargetID: "map",
		PanelID:  "panel",
		Map:      inmem.NewMap(),
		DOM:      inmem.NewDocument("map", "panel"),
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	h := NewHealthHandler("test", newMapAccess(root, 20*time.Millisecond, nil))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/health", nil), rec)

	require.NoError(t, h.HandleHealth(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestGetState(t *testing.T) {
	f := newAPIFixture(t)

	st := f.state(t)
	assert.True(t, st.Ready)
	assert.Equal(t, "map", st.TargetID)
	assert.Len(t, st.Layers, 2)
	assert.Len(t, st.Markers, 3)
	assert.Contains(t, st.PanelHTML, "filterEl")
	for _, mk := range st.Markers {
		assert.NotEmpty(t, mk.CorrelationID)
		assert.True(t, mk.Visible)
	}
}

func TestGetStateMsgpack(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/map/state/msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var st models.MapState
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &st))
	assert.Len(t, st.Markers, 3)
	assert.Equal(t, models.LayerStageRendered, st.Layers[0].Stage)
}

func TestFilter(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/filter", filterRequest{Query: "TINGLEY"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res filter.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.Visible, 1)
	assert.Len(t, res.Hidden, 2)

	st := f.state(t)
	assert.Equal(t, "TINGLEY", st.Query)
	beach, ok := markerNamed(st, "Tingley Beach")
	require.True(t, ok)
	assert.True(t, beach.Visible)
	luz, _ := markerNamed(st, "La Luz")
	assert.False(t, luz.Visible)

	rec = f.request(t, http.MethodPost, "/api/filter", filterRequest{Query: ""})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, mk := range f.state(t).Markers {
		assert.True(t, mk.Visible, "empty query shows %s", mk.Name)
	}
}

func TestClickMarker(t *testing.T) {
	f := newAPIFixture(t)

	luz, ok := markerNamed(f.state(t), "La Luz")
	require.True(t, ok)

	rec := f.request(t, http.MethodPost, "/api/markers/"+luz.CorrelationID+"/click", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, luz.Position, f.state(t).View.Center)

	rec = f.request(t, http.MethodPost, "/api/markers/unknown/click", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestLayerVisibility(t *testing.T) {
	f := newAPIFixture(t)

	layers := f.layers(t)
	assert.True(t, layers["Parks"].Visible)
	assert.Equal(t, 2, layers["Parks"].LocationCount)

	rec := f.request(t, http.MethodPost, "/api/layers/Trails/select", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	layers = f.layers(t)
	assert.False(t, layers["Parks"].Visible)
	assert.True(t, layers["Trails"].Visible)

	rec = f.request(t, http.MethodPost, "/api/layers/Volcanoes/select", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, f.layers(t)["Trails"].Visible, "a failed select hides nothing")

	require.Equal(t, http.StatusOK, f.request(t, http.MethodPost, "/api/layers/Parks/show", nil).Code)
	require.Equal(t, http.StatusOK, f.request(t, http.MethodPost, "/api/layers/Trails/hide", nil).Code)
	layers = f.layers(t)
	assert.True(t, layers["Parks"].Visible)
	assert.False(t, layers["Trails"].Visible)

	require.Equal(t, http.StatusOK, f.request(t, http.MethodPost, "/api/layers/hide-all", nil).Code)
	for name, l := range f.layers(t) {
		assert.False(t, l.Visible, name)
	}
	require.Equal(t, http.StatusOK, f.request(t, http.MethodPost, "/api/layers/show-all", nil).Code)
	for name, l := range f.layers(t) {
		assert.True(t, l.Visible, name)
		assert.Equal(t, models.LayerStageRendered, l.Stage, "visibility never changes stage")
	}
}

func TestCreateLayer_Validation(t *testing.T) {
	tests := []struct {
		name       string
		spec       models.LayerSpec
		wantStatus int
		errCode    string
	}{
		{
			name:       "empty name",
			spec:       models.LayerSpec{Source: "/x.json"},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "no source or records",
			spec:       models.LayerSpec{Name: "Empty"},
			wantStatus: http.StatusBadRequest,
			errCode:    "VALIDATION_ERROR",
		},
		{
			name:       "unknown upload",
			spec:       models.LayerSpec{Name: "Ghost", Source: catalog.UploadPrefix + "nope"},
			wantStatus: http.StatusBadRequest,
			errCode:    "CONFIGURATION_ERROR",
		},
		{
			name:       "unknown panel style",
			spec:       models.LayerSpec{Name: "Odd", Source: "/x.json", PanelStyle: "carousel"},
			wantStatus: http.StatusBadRequest,
			errCode:    "CONFIGURATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)

			rec := f.request(t, http.MethodPost, "/api/layers", tt.spec)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.errCode, decodeError(t, rec).Code)
			assert.Len(t, f.layers(t), 2, "invalid layers are not registered")
		})
	}
}

func TestCreateLayer_Inline(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/layers", models.LayerSpec{
		Name:    "Springs",
		Records: []map[string]any{{"name": "Ojo Caliente", "lat": 36.3, "lng": -106.05}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var st models.LayerState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "Springs", st.Name)
	assert.Equal(t, models.LayerStageDataReady, st.Stage, "inline data loads synchronously, later steps are posted")

	assert.Eventually(t, func() bool {
		_, ok := markerNamed(f.state(t), "Ojo Caliente")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.LayerStageRendered, f.layers(t)["Springs"].Stage)
}

func TestCreateLayer_Remote(t *testing.T) {
	f := newAPIFixture(t)
	f.fetcher.Respond("/springs.json", []any{
		map[string]any{"name": "Ojo Caliente", "lat": 36.3, "lng": -106.05},
		map[string]any{"name": "Jemez Springs", "lat": 35.77, "lng": -106.69},
	})

	rec := f.request(t, http.MethodPost, "/api/layers", models.LayerSpec{Name: "Springs", Source: "/springs.json"})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Eventually(t, func() bool {
		return f.layers(t)["Springs"].Stage == models.LayerStageRendered
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, f.layers(t)["Springs"].LocationCount)
	assert.Equal(t, []string{"/springs.json"}, f.fetcher.Calls())
}

func TestCreateLayer_RemoteFailure(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodPost, "/api/layers", models.LayerSpec{Name: "Springs", Source: "/missing.json"})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Eventually(t, func() bool {
		return f.layers(t)["Springs"].LoadError != ""
	}, 2*time.Second, 10*time.Millisecond)
	springs := f.layers(t)["Springs"]
	assert.Equal(t, models.LayerStageDataLoading, springs.Stage)
	assert.Contains(t, springs.LoadError, "/missing.json")
	assert.Equal(t, models.LayerStageRendered, f.layers(t)["Parks"].Stage, "other layers are unaffected")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.request(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "layermap_locations_rendered_total")
	assert.Contains(t, rec.Body.String(), "layermap_pipeline_steps_total")
}
