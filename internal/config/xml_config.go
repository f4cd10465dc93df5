// Package config provides XML-based configuration management and the YAML
// layer catalog.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/layermap/backend/internal/models"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"LayerMap"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Map view configuration
	Map MapConfig `xml:"Map"`

	// External services
	Services ServicesConfig `xml:"Services"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains uploaded layer data settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize"`
}

// BoundsConfig is a south-west / north-east box.
type BoundsConfig struct {
	SouthLat float64 `xml:"SouthLat,attr"`
	WestLng  float64 `xml:"WestLng,attr"`
	NorthLat float64 `xml:"NorthLat,attr"`
	EastLng  float64 `xml:"EastLng,attr"`
}

// Bounds converts to the model type.
func (b BoundsConfig) Bounds() models.Bounds {
	return models.Bounds{
		SouthWest: models.LatLng{Lat: b.SouthLat, Lng: b.WestLng},
		NorthEast: models.LatLng{Lat: b.NorthLat, Lng: b.EastLng},
	}
}

// MapConfig contains the initial view and tile source
type MapConfig struct {
	TargetID        string        `xml:"TargetID"`
	PanelID         string        `xml:"PanelID"`
	CenterLat       float64       `xml:"CenterLat"`
	CenterLng       float64       `xml:"CenterLng"`
	Zoom            int           `xml:"Zoom"`
	MinZoom         int           `xml:"MinZoom"`
	MaxZoom         int           `xml:"MaxZoom"`
	TileURL         string        `xml:"TileURL"`
	TileAttribution string        `xml:"TileAttribution"`
	MaxBounds       *BoundsConfig `xml:"MaxBounds"`
	LayersFile      string        `xml:"LayersFile"`
}

// ServicesConfig contains data fetch and add-on service settings
type ServicesConfig struct {
	LoadTimeoutSeconds int           `xml:"LoadTimeoutSeconds"`
	FetchBaseURL       string        `xml:"FetchBaseURL"`
	MapQuestKey        string        `xml:"MapQuestKey"`
	MapTilerKey        string        `xml:"MapTilerKey"`
	SearchBounds       *BoundsConfig `xml:"SearchBounds"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "10M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MaxUploadSize:    "10M",
		},
		Map: MapConfig{
			TargetID:        "map",
			PanelID:         "panel",
			CenterLat:       35.3543606,
			CenterLng:       -106.2516825,
			Zoom:            7,
			MinZoom:         7,
			MaxZoom:         14,
			TileURL:         "https://api.maptiler.com/maps/streets/{z}/{x}/{y}.png?key={key}",
			TileAttribution: `<a href="https://www.maptiler.com/copyright/">© MapTiler</a> | <a href="https://openstreetmap.org">© OpenStreetMap contributors</a>`,
			MaxBounds:       &BoundsConfig{SouthLat: 30, WestLng: -110, NorthLat: 40, EastLng: -101},
			LayersFile:      "./layers.yaml",
		},
		Services: ServicesConfig{
			LoadTimeoutSeconds: 15,
			SearchBounds: &BoundsConfig{
				SouthLat: 31.3292864, WestLng: -109.0514539,
				NorthLat: 37.0039269, EastLng: -102.9935484,
			},
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- LayerMap Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
	if key := os.Getenv("MAPQUEST_KEY"); key != "" {
		c.Services.MapQuestKey = key
	}
	if key := os.Getenv("MAPTILER_KEY"); key != "" {
		c.Services.MapTilerKey = key
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
	if c.Map.LayersFile != "" && !filepath.IsAbs(c.Map.LayersFile) {
		c.Map.LayersFile = filepath.Join(configDir, c.Map.LayersFile)
	}
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// LoadTimeout returns the per-fetch deadline for remote layer data.
func (c *AppConfig) LoadTimeout() time.Duration {
	return time.Duration(c.Services.LoadTimeoutSeconds) * time.Second
}

// View returns the initial camera.
func (c *AppConfig) View() models.ViewOptions {
	return models.ViewOptions{
		Center: models.LatLng{Lat: c.Map.CenterLat, Lng: c.Map.CenterLng},
		Zoom:   c.Map.Zoom,
	}
}

// TileLayer returns the tile source with {key} replaced by the MapTiler key.
func (c *AppConfig) TileLayer() models.TileLayer {
	return models.TileLayer{
		URLTemplate: strings.ReplaceAll(c.Map.TileURL, "{key}", c.Services.MapTilerKey),
		Attribution: c.Map.TileAttribution,
		MinZoom:     c.Map.MinZoom,
		MaxZoom:     c.Map.MaxZoom,
	}
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
