package models

// LayerCatalog is the YAML file listing the layers created at startup.
type LayerCatalog struct {
	Layers []LayerSpec `json:"layers" yaml:"layers"`
}

// LayerSpec describes one catalog layer. Exactly one of Source and Records
// should be set; Source is either a URL or "upload:<fileID>".
type LayerSpec struct {
	Name       string           `json:"name" yaml:"name"`
	Icon       *Icon            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Source     string           `json:"source,omitempty" yaml:"source,omitempty"`
	Records    []map[string]any `json:"records,omitempty" yaml:"records,omitempty"`
	PanelStyle string           `json:"panelStyle,omitempty" yaml:"panel_style,omitempty"` // "accordion" or "overlay"
	HeaderIcon string           `json:"headerIcon,omitempty" yaml:"header_icon,omitempty"`
	Fields     FieldMapping     `json:"fields" yaml:"fields"`
}

// FieldMapping names the record keys read by the default generator.
// Empty fields fall back to name, lat and lng (or long).
type FieldMapping struct {
	List    string   `json:"list,omitempty" yaml:"list,omitempty"` // key holding the record list when the payload is an object
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Lat     string   `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lng     string   `json:"lng,omitempty" yaml:"lng,omitempty"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}
