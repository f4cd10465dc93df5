// Package mapkit builds the map model: a Root owning named Layers, each
// owning Locations. Every entity initializes through a pipeline.Sequencer
// and every method must be called from a task on the Root's Loop.
package mapkit

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/filter"
	"github.com/layermap/backend/internal/loader"
	"github.com/layermap/backend/internal/logging"
	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/panel"
	"github.com/layermap/backend/internal/pipeline"
	"github.com/microcosm-cc/bluemonday"
)

const rootID = "root"

// Options configures a Root.
type Options struct {
	TargetID string // element the map view is created in
	PanelID  string // element panel containers are appended to

	View      models.ViewOptions
	Tiles     []models.TileLayer
	MaxBounds *models.Bounds

	Map     engine.Map
	DOM     engine.DOM
	Fetcher loader.Fetcher

	// LoadTimeout bounds each remote fetch. Zero means no deadline.
	LoadTimeout time.Duration
	// OnLoadError runs on the loop after a failed fetch has been logged.
	OnLoadError func(*LoadError)
	// OnRendered runs on the loop after a layer has rendered.
	OnRendered func(*Layer)

	Logger *log.Logger
}

// Root is the single map context of an application.
type Root struct {
	opts   Options
	loop   *pipeline.Loop
	seq    *pipeline.Sequencer
	loader *loader.Loader
	panel  *panel.Builder
	filter *filter.Index
	policy *bluemonday.Policy
	log    *log.Logger

	ready     bool
	generated bool
	layers    []*Layer
	parked    []*Layer
	query     string
}

// NewRoot creates the root for loop. A loop hosts exactly one root; a second
// call fails with a ConfigurationError. The map is not created until Start.
func NewRoot(loop *pipeline.Loop, opts Options) (*Root, error) {
	switch {
	case loop == nil:
		return nil, &ConfigurationError{Entity: "root", Reason: "loop is nil"}
	case opts.TargetID == "":
		return nil, &ConfigurationError{Entity: "root", Reason: "map target id is empty"}
	case opts.PanelID == "":
		return nil, &ConfigurationError{Entity: "root", Reason: "panel id is empty"}
	case opts.Map == nil || opts.DOM == nil:
		return nil, &ConfigurationError{Entity: "root", Reason: "map engine and DOM are required"}
	}
	if !loop.Claim() {
		return nil, &ConfigurationError{Entity: "root", Reason: "a root already exists for this loop"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}
	r := &Root{
		opts:   opts,
		loop:   loop,
		loader: loader.New(opts.Fetcher, loop, opts.LoadTimeout),
		panel:  panel.NewBuilder(),
		filter: filter.New(opts.DOM, opts.Map),
		policy: bluemonday.UGCPolicy(),
		log:    logger.WithPrefix("mapkit"),
	}
	r.seq = pipeline.NewSequencer(loop, pipeline.Observer{
		StepStarted: func(id string, _ int, name string) {
			metrics.PipelineStepsTotal.WithLabelValues(entityKind(id), name).Inc()
			r.log.Debug("step started", "entity", id, "step", name)
		},
		Done: func(id string) {
			metrics.PipelineCompletedTotal.WithLabelValues(entityKind(id)).Inc()
			r.log.Debug("pipeline done", "entity", id)
		},
	})
	err := r.seq.Register(rootID,
		pipeline.Step{Name: "create-map", Run: r.createMap},
		pipeline.Step{Name: "generate-elements", Run: r.generateElements},
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func entityKind(id string) string {
	kind, _, _ := strings.Cut(id, ":")
	return kind
}

// Start begins the root pipeline. It may be called once.
func (r *Root) Start() error {
	return r.seq.Start(rootID)
}

// Loop returns the loop the root and its entities run on.
func (r *Root) Loop() *pipeline.Loop { return r.loop }

// Panel returns the card builder; its numbering is shared by every layer.
func (r *Root) Panel() *panel.Builder { return r.panel }

// PanelID returns the side-panel element id.
func (r *Root) PanelID() string { return r.opts.PanelID }

// Ready reports whether the map view has been created.
func (r *Root) Ready() bool { return r.ready }

// Layers returns the registered layers in registration order.
func (r *Root) Layers() []*Layer { return r.layers }

// Map returns the map engine.
func (r *Root) Map() engine.Map { return r.opts.Map }

func (r *Root) createMap() {
	view := r.opts.View
	if r.opts.MaxBounds != nil {
		view.MaxBounds = r.opts.MaxBounds
	}
	if err := r.opts.Map.CreateView(r.opts.TargetID, view); err != nil {
		r.log.Error("creating map view", "target", r.opts.TargetID, "err", err)
		return
	}
	for _, t := range r.opts.Tiles {
		if err := r.opts.Map.AddTileLayer(t); err != nil {
			r.log.Error("adding tile layer", "url", t.URLTemplate, "err", err)
			return
		}
	}
	if r.opts.MaxBounds != nil {
		r.opts.Map.SetMaxBounds(*r.opts.MaxBounds)
	}
	r.ready = true
	r.log.Info("map created", "target", r.opts.TargetID, "zoom", view.Zoom)
	r.advance(rootID)
}

// generateElements renders every layer that reached DataReady before the map
// existed, in the order they got there. Later layers render on arrival.
func (r *Root) generateElements() {
	r.generated = true
	parked := r.parked
	r.parked = nil
	for _, l := range parked {
		r.renderLayer(l)
		r.advance(l.id)
	}
	r.advance(rootID)
}

// queueRender is a layer's render step.
func (r *Root) queueRender(l *Layer) {
	if !r.generated {
		r.parked = append(r.parked, l)
		return
	}
	r.renderLayer(l)
	r.advance(l.id)
}

func (r *Root) advance(id string) {
	if err := r.seq.Advance(id); err != nil {
		r.log.Error("pipeline", "err", err)
	}
}

func (r *Root) registerLayer(l *Layer) {
	r.layers = append(r.layers, l)
}

// LayerByName returns the first registered layer called name.
func (r *Root) LayerByName(name string) (*Layer, bool) {
	for _, l := range r.layers {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

// Filter applies query to every rendered location.
func (r *Root) Filter(query string) filter.Result {
	r.query = query
	metrics.FilterRunsTotal.Inc()
	res := r.filter.Apply(query)
	r.log.Debug("filter applied", "query", query, "visible", len(res.Visible), "hidden", len(res.Hidden))
	return res
}

// ClickMarker simulates a click on the marker with correlation id cid.
func (r *Root) ClickMarker(cid string) error {
	for _, mk := range r.opts.Map.Markers() {
		if mk.CorrelationID() == cid {
			mk.Click()
			return nil
		}
	}
	return &SelectionError{Kind: "marker", Name: cid}
}

// Snapshot returns the current map and panel state.
func (r *Root) Snapshot() models.MapState {
	st := models.MapState{
		Ready:    r.ready,
		TargetID: r.opts.TargetID,
		PanelID:  r.opts.PanelID,
		View:     r.opts.Map.View(),
		Tiles:    append([]models.TileLayer(nil), r.opts.Tiles...),
		Layers:   []models.LayerState{},
		Markers:  []models.MarkerState{},
		Query:    r.query,
	}
	if html, ok := r.opts.DOM.OuterHTML(r.opts.PanelID); ok {
		st.PanelHTML = html
	}
	for _, l := range r.layers {
		st.Layers = append(st.Layers, l.State())
		for _, loc := range l.locations {
			if loc.marker == nil {
				continue
			}
			st.Markers = append(st.Markers, models.MarkerState{
				CorrelationID: loc.cid,
				Layer:         l.name,
				Name:          loc.name,
				Position:      loc.position,
				Icon:          loc.icon,
				Popup:         loc.marker.Popup(),
				Visible:       loc.marker.Visible(),
			})
		}
	}
	return st
}
