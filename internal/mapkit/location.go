package mapkit

import (
	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/models"
)

// LocationOptions configures a Location.
type LocationOptions struct {
	// ParentID is the element the panel entry is appended to. Defaults to
	// the root panel.
	ParentID string
	Name     string
	Position models.LatLng
	// Icon defaults to the layer's icon.
	Icon *models.Icon
	// Content is the HTML fragment shown in the panel entry and the marker
	// popup. It is sanitized at render time.
	Content string
}

// Location is one point of interest within a layer.
type Location struct {
	layer    *Layer
	parentID string
	name     string
	position models.LatLng
	icon     *models.Icon
	content  string

	cid    string
	marker engine.Marker
}

// NewLocation registers a location with layer. It must be called from the
// layer's generate callback.
func NewLocation(layer *Layer, opts LocationOptions) (*Location, error) {
	if layer == nil {
		return nil, &ConfigurationError{Entity: "location", Name: opts.Name, Reason: "layer is nil"}
	}
	loc := &Location{
		layer:    layer,
		parentID: opts.ParentID,
		name:     opts.Name,
		position: opts.Position,
		icon:     opts.Icon,
		content:  opts.Content,
	}
	if loc.parentID == "" {
		loc.parentID = layer.root.opts.PanelID
	}
	if loc.icon == nil {
		loc.icon = layer.icon
	}
	if err := layer.registerLocation(loc); err != nil {
		return nil, &ConfigurationError{Entity: "location", Name: opts.Name, Err: err}
	}
	return loc, nil
}

func (loc *Location) Layer() *Layer { return loc.layer }

func (loc *Location) Name() string { return loc.name }

func (loc *Location) Position() models.LatLng { return loc.position }

func (loc *Location) ParentID() string { return loc.parentID }

// CorrelationID links the marker and the panel entry. Empty until rendered.
func (loc *Location) CorrelationID() string { return loc.cid }

// Marker returns the rendered marker, nil until rendered.
func (loc *Location) Marker() engine.Marker { return loc.marker }
