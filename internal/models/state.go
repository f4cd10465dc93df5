package models

// LayerStage represents a layer's position in its initialization lifecycle.
type LayerStage string

const (
	LayerStagePending     LayerStage = "pending"
	LayerStageDataLoading LayerStage = "data_loading"
	LayerStageDataReady   LayerStage = "data_ready"
	LayerStageRendered    LayerStage = "rendered"
)

// MapState is a read-only snapshot of the hosted map, sent to the browser.
type MapState struct {
	Ready     bool          `json:"ready" msgpack:"ready"`
	TargetID  string        `json:"targetId" msgpack:"targetId"`
	PanelID   string        `json:"panelId" msgpack:"panelId"`
	View      ViewOptions   `json:"view" msgpack:"view"`
	Tiles     []TileLayer   `json:"tiles" msgpack:"tiles"`
	Layers    []LayerState  `json:"layers" msgpack:"layers"`
	Markers   []MarkerState `json:"markers" msgpack:"markers"`
	PanelHTML string        `json:"panelHtml" msgpack:"panelHtml"`
	Query     string        `json:"query,omitempty" msgpack:"query,omitempty"`
}

// LayerState describes one layer in a MapState.
type LayerState struct {
	Name          string     `json:"name" msgpack:"name"`
	Stage         LayerStage `json:"stage" msgpack:"stage"`
	Visible       bool       `json:"visible" msgpack:"visible"`
	LocationCount int        `json:"locationCount" msgpack:"locationCount"`
	LoadError     string     `json:"loadError,omitempty" msgpack:"loadError,omitempty"`
}

// MarkerState describes one rendered marker in a MapState.
type MarkerState struct {
	CorrelationID string `json:"correlationId" msgpack:"correlationId"`
	Layer         string `json:"layer" msgpack:"layer"`
	Name          string `json:"name" msgpack:"name"`
	Position      LatLng `json:"position" msgpack:"position"`
	Icon          *Icon  `json:"icon,omitempty" msgpack:"icon,omitempty"`
	Popup         string `json:"popup" msgpack:"popup"`
	Visible       bool   `json:"visible" msgpack:"visible"`
}
