// Package filter keeps panel entries and map markers in agreement about a
// text query. The two representations are linked only by correlation id.
package filter

import (
	"strings"

	"github.com/layermap/backend/internal/engine"
)

// Result lists correlation ids by visibility after a query.
type Result struct {
	Query   string   `json:"query"`
	Visible []string `json:"visible"`
	Hidden  []string `json:"hidden"`
}

// Index applies queries over a page and a marker source.
type Index struct {
	dom     engine.DOM
	markers engine.MarkerSource
}

// New creates an index. It holds no state of its own between queries.
func New(dom engine.DOM, markers engine.MarkerSource) *Index {
	return &Index{dom: dom, markers: markers}
}

// Apply shows every entry and marker, hides the entries whose text does not
// contain query (case-insensitive), then hides the markers of those entries.
// An empty query matches everything.
func (ix *Index) Apply(query string) Result {
	res := Result{Query: query}
	needle := strings.ToLower(query)

	entries := ix.dom.ByClass(engine.FilterClass)
	markers := ix.markers.Markers()
	for _, el := range entries {
		el.Show()
	}
	for _, mk := range markers {
		mk.Show()
	}

	hidden := make(map[string]struct{})
	for _, el := range entries {
		cid := el.Attr(engine.CorrelationAttr)
		if strings.Contains(strings.ToLower(el.Text()), needle) {
			if cid != "" {
				res.Visible = append(res.Visible, cid)
			}
			continue
		}
		el.Hide()
		if cid != "" {
			hidden[cid] = struct{}{}
			res.Hidden = append(res.Hidden, cid)
		}
	}

	for _, mk := range markers {
		if _, ok := hidden[mk.CorrelationID()]; ok {
			mk.Hide()
		}
	}
	return res
}
