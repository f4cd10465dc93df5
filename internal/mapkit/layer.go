package mapkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/layermap/backend/internal/engine"
	"github.com/layermap/backend/internal/loader"
	"github.com/layermap/backend/internal/metrics"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/pipeline"
)

// GenerateFunc creates the layer's locations from its resolved data by
// calling NewLocation. It runs once, on the loop, after DataReady.
type GenerateFunc func(l *Layer, data any) error

// LayerOptions configures a Layer.
type LayerOptions struct {
	Name string
	Icon *models.Icon
	// Data is a URL string fetched as JSON, or an inline map, slice,
	// array or struct.
	Data any
	// PanelHTML is the container appended under the root panel before the
	// layer's entries. It may be empty.
	PanelHTML string
	Generate  GenerateFunc
}

// Layer is a named, independently loaded group of locations.
type Layer struct {
	root      *Root
	id        string
	name      string
	icon      *models.Icon
	source    loader.Source
	panelHTML string
	generate  GenerateFunc

	stage     models.LayerStage
	data      any
	locations []*Location
	group     engine.LayerGroup
	loadErr   *LoadError
	genErr    error
}

// NewLayer registers a layer with root and starts its pipeline, which
// begins loading data immediately. Layers may be created before or after
// root.Start.
func NewLayer(root *Root, opts LayerOptions) (*Layer, error) {
	if root == nil {
		return nil, &ConfigurationError{Entity: "layer", Name: opts.Name, Reason: "root is nil"}
	}
	if opts.Name == "" {
		return nil, &ConfigurationError{Entity: "layer", Reason: "name is empty"}
	}
	if opts.Generate == nil {
		return nil, &ConfigurationError{Entity: "layer", Name: opts.Name, Reason: "generate callback is nil"}
	}
	src, err := loader.Classify(opts.Data)
	if err != nil {
		root.log.Error("layer data source", "layer", opts.Name, "err", err)
		return nil, &ConfigurationError{Entity: "layer", Name: opts.Name, Err: err}
	}

	l := &Layer{
		root:      root,
		id:        fmt.Sprintf("layer:%d:%s", len(root.layers), opts.Name),
		name:      opts.Name,
		icon:      opts.Icon,
		source:    src,
		panelHTML: opts.PanelHTML,
		generate:  opts.Generate,
		stage:     models.LayerStagePending,
	}
	err = root.seq.Register(l.id,
		pipeline.Step{Name: "load", Run: l.load},
		pipeline.Step{Name: "generate", Run: l.generateLocations},
		pipeline.Step{Name: "render", Run: func() { root.queueRender(l) }},
	)
	if err != nil {
		return nil, err
	}
	root.registerLayer(l)
	if err := root.seq.Start(l.id); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Layer) Name() string { return l.name }

func (l *Layer) Icon() *models.Icon { return l.icon }

func (l *Layer) Stage() models.LayerStage { return l.stage }

// Data returns the resolved payload, nil before DataReady.
func (l *Layer) Data() any { return l.data }

// Locations returns the registered locations in registration order.
func (l *Layer) Locations() []*Location { return l.locations }

// LoadErr returns the failed fetch, if any.
func (l *Layer) LoadErr() *LoadError { return l.loadErr }

// Visible reports whether the rendered layer group is attached to the map.
func (l *Layer) Visible() bool {
	return l.group != nil && l.root.opts.Map.HasLayer(l.group)
}

// Show attaches the layer group. It has no effect before the layer renders.
func (l *Layer) Show() {
	if l.group != nil {
		l.root.opts.Map.AddLayer(l.group)
	}
}

// Hide detaches the layer group. It has no effect before the layer renders.
func (l *Layer) Hide() {
	if l.group != nil {
		l.root.opts.Map.RemoveLayer(l.group)
	}
}

func (l *Layer) load() {
	l.stage = models.LayerStageDataLoading
	l.root.loader.Load(context.Background(), l.source, func(res loader.Result) {
		if res.Err != nil {
			l.fail(res.Err)
			return
		}
		if l.source.Kind == loader.KindRemote {
			metrics.LayerLoadDurationMs.Observe(float64(res.Duration.Milliseconds()))
		}
		l.data = res.Data
		l.stage = models.LayerStageDataReady
		l.root.advance(l.id)
	})
}

func (l *Layer) fail(err error) {
	l.loadErr = &LoadError{Layer: l.name, URL: l.source.URL, Err: err}
	metrics.LayerLoadErrorsTotal.Inc()
	l.root.log.Error("layer load failed", "layer", l.name, "url", l.source.URL, "err", err)
	if l.root.opts.OnLoadError != nil {
		l.root.opts.OnLoadError(l.loadErr)
	}
}

// generateLocations runs the user callback. A failing callback leaves the
// layer at DataReady; locations it registered before failing are discarded.
func (l *Layer) generateLocations() {
	if err := l.generate(l, l.data); err != nil {
		l.genErr = err
		l.locations = nil
		l.root.log.Error("generating locations", "layer", l.name, "err", err)
		return
	}
	l.root.log.Debug("locations generated", "layer", l.name, "count", len(l.locations))
	l.root.advance(l.id)
}

func (l *Layer) registerLocation(loc *Location) error {
	idx, state, _ := l.root.seq.Position(l.id)
	if state != pipeline.StateRunning || idx != 1 {
		return errors.New("locations can only be created by the layer's generate callback")
	}
	l.locations = append(l.locations, loc)
	return nil
}

// State summarizes the layer for a MapState.
func (l *Layer) State() models.LayerState {
	st := models.LayerState{
		Name:          l.name,
		Stage:         l.stage,
		Visible:       l.Visible(),
		LocationCount: len(l.locations),
	}
	if l.loadErr != nil {
		st.LoadError = l.loadErr.Error()
	} else if l.genErr != nil {
		st.LoadError = l.genErr.Error()
	}
	return st
}
