package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "map", cfg.Map.TargetID)
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, filepath.Join(dir, "layers.yaml"), cfg.Map.LayersFile)
}

func TestLoadConfig_RoundTripAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	orig := DefaultConfig()
	orig.Map.Zoom = 9
	orig.Services.LoadTimeoutSeconds = 3
	require.NoError(t, orig.Save(path))

	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAPTILER_KEY", "tiler-key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.View().Zoom)
	assert.Equal(t, 3*time.Second, cfg.LoadTimeout())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddr())
	require.NotNil(t, cfg.Map.MaxBounds)
	assert.Equal(t, -110.0, cfg.Map.MaxBounds.Bounds().SouthWest.Lng)

	tile := cfg.TileLayer()
	assert.True(t, strings.HasSuffix(tile.URLTemplate, "?key=tiler-key"))
	assert.Equal(t, 14, tile.MaxZoom)
}

func TestLoadConfig_InvalidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(path, []byte("<LayerMap><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestParseLayerCatalog(t *testing.T) {
	const doc = `
layers:
  - name: Parks
    source: https://example.org/parks.json
    panel_style: accordion
    header_icon: /icons/park.png
    icon:
      url: /icons/park.png
      size: [25, 41]
      anchor: [12, 41]
      popupAnchor: [1, -34]
    fields:
      list: parks
      lng: long
      details: [address]
  - name: Trailheads
    panel_style: overlay
    records:
      - name: La Luz
        lat: 35.22
        lng: -106.48
`
	catalog, err := ParseLayerCatalogFromReader(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, catalog.Layers, 2)

	parks := catalog.Layers[0]
	assert.Equal(t, "https://example.org/parks.json", parks.Source)
	require.NotNil(t, parks.Icon)
	assert.Equal(t, [2]float64{25, 41}, parks.Icon.Size)
	assert.Equal(t, "long", parks.Fields.Lng)
	assert.Equal(t, []string{"address"}, parks.Fields.Details)

	trails := catalog.Layers[1]
	require.Len(t, trails.Records, 1)
	assert.Equal(t, "La Luz", trails.Records[0]["name"])
	assert.Equal(t, 35.22, trails.Records[0]["lat"])
}

func TestParseLayerCatalog_Validation(t *testing.T) {
	_, err := ParseLayerCatalogFromReader(strings.NewReader("layers:\n  - source: x\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = ParseLayerCatalogFromReader(strings.NewReader("layers:\n  - name: Empty\n"))
	assert.ErrorContains(t, err, "source or records")

	_, err = ParseLayerCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
