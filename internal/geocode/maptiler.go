package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/models"
)

const defaultMapTilerURL = "https://api.maptiler.com/geocoding"

// MapTiler calls the MapTiler geocoding API, limited to Bounds when set.
type MapTiler struct {
	Key     string
	BaseURL string
	Bounds  *models.Bounds
	Client  *http.Client
}

type featureCollection struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"` // lng, lat
		BBox      []float64 `json:"bbox"`   // minLng, minLat, maxLng, maxLat
	} `json:"features"`
}

func (mt *MapTiler) Search(ctx context.Context, query string) ([]Match, error) {
	if mt.Key == "" {
		return nil, errors.New("missing maptiler key")
	}
	base := mt.BaseURL
	if base == "" {
		base = defaultMapTilerURL
	}
	q := url.Values{}
	q.Set("key", mt.Key)
	if b := mt.Bounds; b != nil {
		q.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", b.SouthWest.Lng, b.SouthWest.Lat, b.NorthEast.Lng, b.NorthEast.Lat))
	}
	u := strings.TrimRight(base, "/") + "/" + url.PathEscape(query) + ".json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := mt.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues("maptiler", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ServiceRequestsTotal.WithLabelValues("maptiler", "error").Inc()
		return nil, fmt.Errorf("maptiler: unexpected status %d", resp.StatusCode)
	}
	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues("maptiler", "error").Inc()
		return nil, fmt.Errorf("maptiler: decoding response: %w", err)
	}

	matches := make([]Match, 0, len(fc.Features))
	for _, f := range fc.Features {
		if len(f.Center) < 2 {
			continue
		}
		m := Match{Name: f.PlaceName, Center: models.LatLng{Lat: f.Center[1], Lng: f.Center[0]}}
		if len(f.BBox) == 4 {
			m.BBox = models.Bounds{
				SouthWest: models.LatLng{Lat: f.BBox[1], Lng: f.BBox[0]},
				NorthEast: models.LatLng{Lat: f.BBox[3], Lng: f.BBox[2]},
			}
		} else {
			m.BBox = models.Bounds{SouthWest: m.Center, NorthEast: m.Center}
		}
		matches = append(matches, m)
	}
	metrics.ServiceRequestsTotal.WithLabelValues("maptiler", "ok").Inc()
	return matches, nil
}
