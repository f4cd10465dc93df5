// Package catalog turns layer specs from the YAML catalog or the API into
// mapkit layers with a record-driven location generator.
package catalog

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/panel"
	"github.com/layermap/backend/internal/storage"
)

// UploadPrefix marks a Source that names a stored file instead of a URL.
const UploadPrefix = "upload:"

var contentTmpl = template.Must(template.New("location").Parse(
	`<h5>{{.Name}}</h5>{{range .Details}}<p>{{.}}</p>{{end}}`))

// Builder creates layers on one root. Build must run on the root's loop.
type Builder struct {
	root  *mapkit.Root
	store storage.Store
}

// NewBuilder creates a builder. store may be nil when no layer uses uploads.
func NewBuilder(root *mapkit.Root, store storage.Store) *Builder {
	return &Builder{root: root, store: store}
}

// Build registers spec as a new layer.
func (b *Builder) Build(spec models.LayerSpec) (*mapkit.Layer, error) {
	data, err := b.resolveData(spec)
	if err != nil {
		return nil, &mapkit.ConfigurationError{Entity: "layer", Name: spec.Name, Err: err}
	}

	containerID := fmt.Sprintf("%s_locations%d", slug(spec.Name), len(b.root.Layers())+1)
	headerIcon := spec.HeaderIcon
	if headerIcon == "" && spec.Icon != nil {
		headerIcon = spec.Icon.URL
	}
	card, err := b.root.Panel().Build(panel.Style(spec.PanelStyle), b.root.PanelID(), spec.Name, headerIcon,
		fmt.Sprintf(`<div id="%s"></div>`, containerID))
	if err != nil {
		return nil, &mapkit.ConfigurationError{Entity: "layer", Name: spec.Name, Err: err}
	}

	return mapkit.NewLayer(b.root, mapkit.LayerOptions{
		Name:      spec.Name,
		Icon:      spec.Icon,
		Data:      data,
		PanelHTML: card,
		Generate:  RecordGenerator(spec.Fields, containerID),
	})
}

// BuildAll registers every layer in order and returns the first error
// after attempting all of them.
func (b *Builder) BuildAll(cat *models.LayerCatalog) ([]*mapkit.Layer, error) {
	var (
		layers   []*mapkit.Layer
		firstErr error
	)
	for _, spec := range cat.Layers {
		l, err := b.Build(spec)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		layers = append(layers, l)
	}
	return layers, firstErr
}

func (b *Builder) resolveData(spec models.LayerSpec) (any, error) {
	switch {
	case spec.Records != nil:
		out := make([]any, len(spec.Records))
		for i, r := range spec.Records {
			out[i] = r
		}
		return out, nil
	case strings.HasPrefix(spec.Source, UploadPrefix):
		if b.store == nil {
			return nil, fmt.Errorf("no upload store configured")
		}
		return storage.ReadJSON(b.store, strings.TrimPrefix(spec.Source, UploadPrefix))
	case spec.Source != "":
		return spec.Source, nil
	default:
		return nil, fmt.Errorf("source or records is required")
	}
}

// RecordGenerator creates one location per record in the payload, appending
// entries into containerID. The payload is a list of objects, or an object
// holding that list under fields.List.
func RecordGenerator(fields models.FieldMapping, containerID string) mapkit.GenerateFunc {
	nameKey := orDefault(fields.Name, "name")
	latKey := orDefault(fields.Lat, "lat")
	lngKey := fields.Lng

	return func(l *mapkit.Layer, data any) error {
		records, err := recordList(data, fields.List)
		if err != nil {
			return err
		}
		for i, rec := range records {
			obj, ok := rec.(map[string]any)
			if !ok {
				return fmt.Errorf("record %d: expected an object, got %T", i, rec)
			}
			lat, ok := number(obj[latKey])
			if !ok {
				return fmt.Errorf("record %d: missing %q", i, latKey)
			}
			lng, ok := lngOf(obj, lngKey)
			if !ok {
				return fmt.Errorf("record %d: missing longitude", i)
			}
			name := fmt.Sprint(obj[nameKey])

			var details []string
			for _, key := range fields.Details {
				if v, ok := obj[key]; ok && v != nil {
					details = append(details, fmt.Sprint(v))
				}
			}
			var buf bytes.Buffer
			if err := contentTmpl.Execute(&buf, struct {
				Name    string
				Details []string
			}{name, details}); err != nil {
				return err
			}

			_, err := mapkit.NewLocation(l, mapkit.LocationOptions{
				ParentID: containerID,
				Name:     name,
				Position: models.LatLng{Lat: lat, Lng: lng},
				Content:  buf.String(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func recordList(data any, listKey string) ([]any, error) {
	switch v := data.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if listKey == "" {
			return nil, fmt.Errorf("payload is an object; set fields.list")
		}
		list, ok := v[listKey].([]any)
		if !ok {
			return nil, fmt.Errorf("payload has no list under %q", listKey)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T", data)
	}
}

func lngOf(obj map[string]any, key string) (float64, bool) {
	if key != "" {
		return number(obj[key])
	}
	if v, ok := number(obj["lng"]); ok {
		return v, true
	}
	return number(obj["long"])
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func slug(name string) string {
	var sb strings.Builder
	sep := false
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if sep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
			sep = false
			continue
		}
		sep = true
	}
	if sb.Len() == 0 {
		return "layer"
	}
	return sb.String()
}
