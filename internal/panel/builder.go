// Package panel generates the side-panel cards that hold a layer's entries.
package panel

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Style selects the card template.
type Style string

const (
	StyleAccordion Style = "accordion"
	StyleOverlay   Style = "overlay"
)

// SelectAttr marks the header button; its value is the layer name to select.
const SelectAttr = "data-select-layer"

var accordionTmpl = template.Must(template.New("accordion").Parse(`<div class="card">
<div class="card-header" id="heading{{.Seq}}">
<h2 class="mb-0">
<img src="{{.IconURL}}">
<button data-select-layer="{{.Layer}}" class="btn btn-link collapsed" type="button" data-toggle="collapse" data-target="#collapse{{.Seq}}" aria-expanded="true" aria-controls="collapse{{.Seq}}">{{.Layer}}</button>
</h2>
</div>
<div id="collapse{{.Seq}}" class="collapse" aria-labelledby="heading{{.Seq}}" data-parent="#{{.ParentID}}">{{.Body}}</div>
</div>`))

var overlayTmpl = template.Must(template.New("overlay").Parse(`<div class="card" style="padding:5px; box-shadow: 0 0 3px #797979;">
<div class="card-header" id="heading{{.Seq}}" style="padding:0; margin:0;">
<button data-select-layer="{{.Layer}}" class="btn btn-link collapsed" type="button" data-toggle="collapse" data-target="#collapse{{.Seq}}" aria-expanded="true" aria-controls="collapse{{.Seq}}" style="padding:0; margin:0;"><img src="{{.IconURL}}" title="{{.Layer}}"></button>
</div>
<div id="collapse{{.Seq}}" class="collapse" aria-labelledby="heading{{.Seq}}" data-parent="#{{.ParentID}}">{{.Body}}</div>
</div>`))

type card struct {
	Seq      int
	ParentID string
	Layer    string
	IconURL  string
	Body     template.HTML
}

// Builder numbers cards sequentially so their element ids never collide.
// One Builder belongs to one Root; it is not safe for concurrent use.
type Builder struct {
	seq int
}

// NewBuilder creates a builder whose first card is numbered 1.
func NewBuilder() *Builder {
	return &Builder{}
}

// Count returns how many cards have been generated.
func (b *Builder) Count() int { return b.seq }

// Accordion generates a collapsible card titled with the layer name.
// body is trusted markup, typically the container the layer's locations
// are appended into.
func (b *Builder) Accordion(parentID, layerName, headerIconURL, body string) (string, error) {
	return b.render(accordionTmpl, parentID, layerName, headerIconURL, body)
}

// Overlay generates a compact card whose header is the icon alone.
func (b *Builder) Overlay(parentID, layerName, headerIconURL, body string) (string, error) {
	return b.render(overlayTmpl, parentID, layerName, headerIconURL, body)
}

// Build dispatches on style.
func (b *Builder) Build(style Style, parentID, layerName, headerIconURL, body string) (string, error) {
	switch Style(strings.ToLower(string(style))) {
	case StyleAccordion, "":
		return b.Accordion(parentID, layerName, headerIconURL, body)
	case StyleOverlay:
		return b.Overlay(parentID, layerName, headerIconURL, body)
	default:
		return "", fmt.Errorf("unknown panel style %q", style)
	}
}

func (b *Builder) render(t *template.Template, parentID, layerName, headerIconURL, body string) (string, error) {
	b.seq++
	var buf bytes.Buffer
	err := t.Execute(&buf, card{
		Seq:      b.seq,
		ParentID: parentID,
		Layer:    layerName,
		IconURL:  headerIconURL,
		Body:     template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("rendering %s card for %s: %w", t.Name(), layerName, err)
	}
	return buf.String(), nil
}
