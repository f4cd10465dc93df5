package models

import "fmt"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat" msgpack:"lat" yaml:"lat"`
	Lng float64 `json:"lng" msgpack:"lng" yaml:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Bounds is a south-west / north-east box.
type Bounds struct {
	SouthWest LatLng `json:"southWest" msgpack:"southWest" yaml:"southWest"`
	NorthEast LatLng `json:"northEast" msgpack:"northEast" yaml:"northEast"`
}

// BoundsOf returns the smallest box containing every point.
// The second result is false when pts is empty.
func BoundsOf(pts []LatLng) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SouthWest: pts[0], NorthEast: pts[0]}
	for _, p := range pts[1:] {
		b.SouthWest.Lat = min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lng = min(b.SouthWest.Lng, p.Lng)
		b.NorthEast.Lat = max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lng = max(b.NorthEast.Lng, p.Lng)
	}
	return b, true
}

// Icon describes a marker image. Icons are shared by pointer between
// locations and never mutated after construction.
type Icon struct {
	URL         string     `json:"url" msgpack:"url" yaml:"url"`
	Size        [2]float64 `json:"size" msgpack:"size" yaml:"size"`
	Anchor      [2]float64 `json:"anchor" msgpack:"anchor" yaml:"anchor"`
	PopupAnchor [2]float64 `json:"popupAnchor" msgpack:"popupAnchor" yaml:"popupAnchor"`
}

// NewIcon creates an icon value.
func NewIcon(url string, size, anchor, popupAnchor [2]float64) *Icon {
	return &Icon{URL: url, Size: size, Anchor: anchor, PopupAnchor: popupAnchor}
}

// ViewOptions is the initial camera of the map view.
type ViewOptions struct {
	Center    LatLng  `json:"center" msgpack:"center"`
	Zoom      int     `json:"zoom" msgpack:"zoom"`
	MaxBounds *Bounds `json:"maxBounds,omitempty" msgpack:"maxBounds,omitempty"`
}

// TileLayer is a raster tile source.
type TileLayer struct {
	URLTemplate string `json:"urlTemplate" msgpack:"urlTemplate"`
	Attribution string `json:"attribution" msgpack:"attribution"`
	MinZoom     int    `json:"minZoom" msgpack:"minZoom"`
	MaxZoom     int    `json:"maxZoom" msgpack:"maxZoom"`
}
