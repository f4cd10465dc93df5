package mapkit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/models"
)

// entryHTML wraps sanitized content as a filterable panel entry.
func entryHTML(cid, content string) string {
	return fmt.Sprintf(`<div id="loc_%s" class="%s" %s="%s">%s<hr class="mt-3 mb-2"></div>`,
		cid, engine.FilterClass, engine.CorrelationAttr, cid, content)
}

// renderLayer materializes l once. The group is attached and the panel
// container appended before any location renders, so entries can target
// elements inside the container.
func (r *Root) renderLayer(l *Layer) {
	if l.stage != models.LayerStageDataReady {
		r.log.Error("render out of order", "layer", l.name, "stage", l.stage)
		return
	}
	l.group = r.opts.Map.NewLayerGroup(l.name)
	r.opts.Map.AddLayer(l.group)

	if l.panelHTML != "" {
		if err := r.opts.DOM.Append(r.opts.PanelID, l.panelHTML); err != nil {
			r.log.Error("appending panel container", "layer", l.name, "err", err)
		}
	}
	for _, loc := range l.locations {
		if err := r.renderLocation(loc); err != nil {
			r.log.Error("rendering location", "layer", l.name, "location", loc.name, "err", err)
		}
	}
	l.stage = models.LayerStageRendered
	r.log.Info("layer rendered", "layer", l.name, "locations", len(l.locations))
	if r.query != "" {
		r.filter.Apply(r.query)
	}
	if r.opts.OnRendered != nil {
		r.opts.OnRendered(l)
	}
}

// renderLocation appends the panel entry first. A location whose entry
// cannot be placed gets no marker either.
func (r *Root) renderLocation(loc *Location) error {
	cid := uuid.NewString()
	content := r.policy.Sanitize(loc.content)
	if err := r.opts.DOM.Append(loc.parentID, entryHTML(cid, content)); err != nil {
		return fmt.Errorf("panel entry %s: %w", cid, err)
	}

	mk := r.opts.Map.NewMarker(engine.MarkerSpec{
		Position:      loc.position,
		Icon:          loc.icon,
		Popup:         content,
		CorrelationID: cid,
	})
	pos := loc.position
	mk.OnClick(func() { r.opts.Map.PanTo(pos) })
	loc.layer.group.AddMarker(mk)
	loc.cid = cid
	loc.marker = mk
	metrics.LocationsRenderedTotal.Inc()
	return nil
}
