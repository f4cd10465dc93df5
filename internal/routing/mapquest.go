package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/models"
)

// MapQuestLegal is shown with every route drawn from MapQuest data.
const MapQuestLegal = `<hr><small><b>Powered by MapQuest </b><a href="http://hello.mapquest.com/terms-of-use/">Terms</a><p>Use of directions and maps is subject to the MapQuest Terms of Use. We make no guarantee of the accuracy of their content, road conditions or route usability. You assume all risk of use</p></small>`

const defaultMapQuestURL = "https://www.mapquestapi.com/directions/v2/route"

// MapQuest calls the MapQuest directions API.
type MapQuest struct {
	Key     string
	BaseURL string
	Client  *http.Client
}

type mqResponse struct {
	Route struct {
		Distance float64 `json:"distance"`
		Time     int     `json:"time"`
		Shape    struct {
			ShapePoints []float64 `json:"shapePoints"`
		} `json:"shape"`
	} `json:"route"`
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
}

func (mq *MapQuest) Route(ctx context.Context, from, to models.LatLng) (Route, error) {
	if mq.Key == "" {
		return Route{}, errors.New("missing mapquest key")
	}
	base := mq.BaseURL
	if base == "" {
		base = defaultMapQuestURL
	}
	q := url.Values{}
	q.Set("key", mq.Key)
	q.Set("from", fmt.Sprintf("%f,%f", from.Lat, from.Lng))
	q.Set("to", fmt.Sprintf("%f,%f", to.Lat, to.Lng))
	q.Set("fullShape", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return Route{}, err
	}
	client := mq.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues("mapquest", "error").Inc()
		return Route{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ServiceRequestsTotal.WithLabelValues("mapquest", "error").Inc()
		return Route{}, fmt.Errorf("mapquest: unexpected status %d", resp.StatusCode)
	}
	var r mqResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues("mapquest", "error").Inc()
		return Route{}, fmt.Errorf("mapquest: decoding response: %w", err)
	}
	if r.Info.StatusCode != 0 {
		metrics.ServiceRequestsTotal.WithLabelValues("mapquest", "error").Inc()
		return Route{}, fmt.Errorf("mapquest: status %d %v", r.Info.StatusCode, r.Info.Messages)
	}

	pts := r.Route.Shape.ShapePoints
	route := Route{Distance: r.Route.Distance, Seconds: r.Route.Time}
	for i := 0; i+1 < len(pts); i += 2 {
		route.Points = append(route.Points, models.LatLng{Lat: pts[i], Lng: pts[i+1]})
	}
	metrics.ServiceRequestsTotal.WithLabelValues("mapquest", "ok").Inc()
	return route, nil
}
